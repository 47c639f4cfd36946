package integration

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthapi "github.com/oshokin/rig-panel/internal/api/grpc/health"
	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/indicator"
	"github.com/oshokin/rig-panel/internal/service/panel"
	"github.com/oshokin/rig-panel/internal/service/receiver"
	"github.com/oshokin/rig-panel/internal/service/simulator"
)

// indicatorsBody mirrors GET /api/indicators.
type indicatorsBody struct {
	Indicators indicator.Snapshot        `json:"indicators"`
	Connection receiver.ConnectionStatus `json:"connection"`
}

// simulatorState mirrors the simulator's GET /state.
type simulatorState struct {
	WebHeld    bool `json:"web_held"`
	RemoteHeld bool `json:"remote_held"`
	Clients    int  `json:"clients"`
}

// rigAddresses holds the local endpoints of one panel and simulator pair.
type rigAddresses struct {
	// cfgPath is the shared configuration file.
	cfgPath string
	// baseURL is the simulator's HTTP address.
	baseURL string
	// apiURL is the panel's control API address.
	apiURL string
	// healthAddr is the panel's health endpoint.
	healthAddr string
}

// writeRigConfig saves one configuration shared by the panel and the simulator.
func writeRigConfig(t *testing.T) rigAddresses {
	t.Helper()

	var (
		simAddr    = reservePort(t)
		apiAddr    = reservePort(t)
		healthAddr = reservePort(t)
	)

	cfg := config.Default()
	cfg.Device.BaseURL = "http://" + simAddr
	cfg.Device.StatusURL = "ws://" + simAddr + "/ws"
	cfg.Device.Timeout = time.Second
	cfg.HoldDelay = 30 * time.Millisecond
	cfg.Status.Reconnect = true
	cfg.Status.ReconnectDelay = 20 * time.Millisecond
	cfg.Status.MaxReconnectDelay = 100 * time.Millisecond
	cfg.API.ListenAddress = apiAddr
	cfg.Health.ListenAddress = healthAddr
	cfg.Simulator.ListenAddress = simAddr
	cfg.Simulator.StepInterval = 20 * time.Millisecond
	cfg.Simulator.HoldInterval = 40 * time.Millisecond

	cfgPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfgPath, cfg))

	return rigAddresses{
		cfgPath:    cfgPath,
		baseURL:    cfg.Device.BaseURL,
		apiURL:     "http://" + apiAddr,
		healthAddr: healthAddr,
	}
}

// startSimulator runs rig-simulator until ctx is canceled.
func startSimulator(ctx context.Context, cfgPath string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- simulator.Run(ctx, &simulator.Options{ConfigPath: cfgPath})
	}()

	return done
}

// startPanel runs rig-panel until ctx is canceled.
func startPanel(ctx context.Context, t *testing.T, cfgPath string) <-chan error {
	t.Helper()

	var (
		done    = make(chan error, 1)
		envPath = filepath.Join(t.TempDir(), ".env")
	)

	go func() {
		done <- panel.Run(ctx, &panel.Options{
			ConfigPath: cfgPath,
			EnvPath:    envPath,
		})
	}()

	return done
}

// TestPanel_AgainstSimulator runs rig-panel against rig-simulator over real sockets.
//
//nolint:funlen // Integration test requires comprehensive setup and verification.
func TestPanel_AgainstSimulator(t *testing.T) {
	var (
		rig        = writeRigConfig(t)
		baseURL    = rig.baseURL
		apiURL     = rig.apiURL
		healthAddr = rig.healthAddr
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	simDone := startSimulator(ctx, rig.cfgPath)
	panelDone := startPanel(ctx, t, rig.cfgPath)

	// The panel connects and mirrors the blinking lights.
	require.Eventually(t, func() bool {
		var body indicatorsBody
		if !getJSON(apiURL+"/api/indicators", &body) {
			return false
		}

		return body.Connection.Connected && body.Connection.Messages > 0
	}, 5*time.Second, 20*time.Millisecond)

	// Health follows the status connection.
	conn, err := grpc.NewClient(healthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	defer func() {
		_ = conn.Close()
	}()

	response, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{
		Service: healthapi.StatusService,
	})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, response.GetStatus())

	// A long press of algo1 holds the rig button; releasing it lets go.
	require.Equal(t, http.StatusAccepted, post(t, apiURL+"/api/buttons/algo1/press"))
	require.Eventually(t, func() bool {
		var state simulatorState

		return getJSON(baseURL+"/state", &state) && state.WebHeld
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusAccepted, post(t, apiURL+"/api/buttons/algo1/release"))
	require.Eventually(t, func() bool {
		var state simulatorState

		return getJSON(baseURL+"/state", &state) && !state.WebHeld
	}, 5*time.Second, 10*time.Millisecond)

	// The remote hold button maps to /start and /stop.
	require.Equal(t, http.StatusAccepted, post(t, apiURL+"/api/buttons/algo2/press"))
	require.Eventually(t, func() bool {
		var state simulatorState

		return getJSON(baseURL+"/state", &state) && state.RemoteHeld
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusAccepted, post(t, apiURL+"/api/buttons/algo2/release"))
	require.Eventually(t, func() bool {
		var state simulatorState

		return getJSON(baseURL+"/state", &state) && !state.RemoteHeld
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusNotFound, post(t, apiURL+"/api/buttons/algo3/press"))

	// Both processes stop cleanly.
	cancel()
	require.NoError(t, <-panelDone)
	require.NoError(t, <-simDone)
}

// TestPanel_ReleasesHoldOnShutdown ends a hold that is still down when the panel stops.
func TestPanel_ReleasesHoldOnShutdown(t *testing.T) {
	rig := writeRigConfig(t)

	simCtx, stopSimulator := context.WithCancel(context.Background())
	defer stopSimulator()

	panelCtx, stopPanel := context.WithCancel(context.Background())
	defer stopPanel()

	simDone := startSimulator(simCtx, rig.cfgPath)
	panelDone := startPanel(panelCtx, t, rig.cfgPath)

	// Wait for the control API, then hold algo1 until the rig sees it.
	require.Eventually(t, func() bool {
		var body indicatorsBody

		return getJSON(rig.apiURL+"/api/indicators", &body)
	}, 5*time.Second, 20*time.Millisecond)

	require.Equal(t, http.StatusAccepted, post(t, rig.apiURL+"/api/buttons/algo1/press"))
	require.Eventually(t, func() bool {
		var state simulatorState

		return getJSON(rig.baseURL+"/state", &state) && state.WebHeld
	}, 5*time.Second, 10*time.Millisecond)

	// Stop only the panel; it returns after the release was delivered.
	stopPanel()
	require.NoError(t, <-panelDone)

	var state simulatorState
	require.True(t, getJSON(rig.baseURL+"/state", &state))
	require.False(t, state.WebHeld)

	stopSimulator()
	require.NoError(t, <-simDone)
}

// getJSON decodes a GET response, reporting false on any failure.
func getJSON(url string, target any) bool {
	response, err := http.Get(url) //nolint:gosec,noctx // Test helper polls local servers.
	if err != nil {
		return false
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return false
	}

	return json.NewDecoder(response.Body).Decode(target) == nil
}

// post sends an empty POST and returns the status code.
func post(t *testing.T, url string) int {
	t.Helper()

	response, err := http.Post(url, "application/json", http.NoBody) //nolint:gosec,noctx // Test helper.
	require.NoError(t, err)

	_ = response.Body.Close()

	return response.StatusCode
}

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}
