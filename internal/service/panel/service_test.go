package panel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/hold"
)

// deviceRecorder stands in for the rig's HTTP endpoints.
type deviceRecorder struct {
	// mu protects paths.
	mu sync.Mutex
	// paths lists requested URL paths in arrival order.
	paths []string
}

// ServeHTTP records the path and answers like the rig.
func (d *deviceRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.paths = append(d.paths, r.URL.Path)
	d.mu.Unlock()

	_, _ = w.Write([]byte("ok"))
}

func (d *deviceRecorder) got() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.paths...)
}

func intPtr(v int) *int {
	return &v
}

func newTestConfig(t *testing.T, baseURL string, holdDelay time.Duration) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Device.BaseURL = baseURL
	cfg.HoldDelay = holdDelay
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// TestService_HoldNotifies sends begin and end paths for a long press.
func TestService_HoldNotifies(t *testing.T) {
	t.Parallel()

	device := new(deviceRecorder)
	server := httptest.NewServer(device)
	t.Cleanup(server.Close)

	svc, err := newService(newTestConfig(t, server.URL, 20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go svc.notifier.Run(ctx)

	changed, err := svc.Press(ctx, "algo2")
	require.NoError(t, err)
	require.True(t, changed)

	require.Eventually(t, func() bool {
		return len(device.got()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, []hold.ButtonState{
		{Name: "algo1"},
		{Name: "algo2", Pressed: true, Held: true},
	}, svc.Buttons())

	_, err = svc.Release(ctx, "algo2")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(device.got()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"/start", "/stop"}, device.got())
}

// TestService_Defaults covers unknown buttons and the initial read state.
func TestService_Defaults(t *testing.T) {
	t.Parallel()

	svc, err := newService(newTestConfig(t, config.DefaultBaseURL, time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { svc.board.Close(context.Background()) })

	_, err = svc.Press(context.Background(), "algo3")
	require.ErrorIs(t, err, hold.ErrUnknownButton)

	require.Empty(t, svc.Indicators().Active())
	require.Len(t, svc.Indicators(), 3)
	require.False(t, svc.Connection().Connected)
}

// TestStatusURLFor derives the websocket address from the device address.
func TestStatusURLFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base string
		want string
	}{
		{base: "http://192.168.4.2", want: "ws://192.168.4.2/ws"},
		{base: "https://rig.local:8443/panel?x=1", want: "wss://rig.local:8443/ws"},
		{base: "http://127.0.0.1:8080/", want: "ws://127.0.0.1:8080/ws"},
	}

	for _, tt := range tests {
		got, err := statusURLFor(tt.base)
		require.NoError(t, err, tt.base)
		require.Equal(t, tt.want, got)
	}

	_, err := statusURLFor("ftp://rig")
	require.ErrorIs(t, err, errUnsupportedScheme)
}

// TestOverrideDevice replaces both device addresses.
func TestOverrideDevice(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, overrideDevice(cfg, "http://10.0.0.7:8080"))
	require.Equal(t, "http://10.0.0.7:8080", cfg.Device.BaseURL)
	require.Equal(t, "ws://10.0.0.7:8080/ws", cfg.Device.StatusURL)
}

// TestBindings selects only wired buttons and indicators.
func TestBindings(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Buttons[1].GPIOLine = intPtr(17)
	cfg.Indicators[0].GPIOLine = intPtr(22)
	cfg.Indicators[2].GPIOLine = intPtr(27)

	svc, err := newService(newTestConfig(t, config.DefaultBaseURL, time.Hour))
	require.NoError(t, err)

	buttons := buttonBindings(cfg.Buttons, svc.board)
	require.Len(t, buttons, 1)
	require.Equal(t, "algo2", buttons[0].Name)
	require.Equal(t, 17, buttons[0].Line)
	require.NotNil(t, buttons[0].Presser)

	leds := ledBindings(cfg.Indicators)
	require.Len(t, leds, 2)
	require.Equal(t, "red", leds[0].Name)
	require.Equal(t, 27, leds[1].Line)
}
