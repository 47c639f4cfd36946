package panel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oshokin/rig-panel/internal/domain/hold"
	"github.com/oshokin/rig-panel/internal/domain/indicator"
	"github.com/oshokin/rig-panel/internal/logger"
	"github.com/oshokin/rig-panel/internal/service/receiver"
)

// Service abstracts the panel operations the transport layer depends on.
type Service interface {
	Press(ctx context.Context, button string) (bool, error)
	Release(ctx context.Context, button string) (bool, error)
	Buttons() []hold.ButtonState
	Indicators() indicator.Snapshot
	Connection() receiver.ConnectionStatus
}

// Server routes API requests to the panel service.
type Server struct {
	// service provides the panel operations.
	service Service
	// router dispatches requests.
	router *mux.Router
	// ctx carries the base logger.
	ctx context.Context //nolint:containedctx // Handlers log through the panel's named logger.
}

// buttonResponse answers press and release requests.
type buttonResponse struct {
	Button  string `json:"button"`
	Changed bool   `json:"changed"`
}

// indicatorsResponse carries the snapshot and connection state.
type indicatorsResponse struct {
	Indicators indicator.Snapshot        `json:"indicators"`
	Connection receiver.ConnectionStatus `json:"connection"`
}

// errorResponse carries a failure message.
type errorResponse struct {
	Error string `json:"error"`
}

// NewServer wires the provided service into an HTTP handler.
func NewServer(ctx context.Context, service Service) *Server {
	s := &Server{
		service: service,
		router:  mux.NewRouter(),
		ctx:     ctx,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/buttons", s.handleButtons).Methods(http.MethodGet)
	api.HandleFunc("/buttons/{button}/press", s.handlePress).Methods(http.MethodPost)
	api.HandleFunc("/buttons/{button}/release", s.handleRelease).Methods(http.MethodPost)
	api.HandleFunc("/indicators", s.handleIndicators).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleButtons lists buttons and their hold state.
func (s *Server) handleButtons(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"buttons": s.service.Buttons(),
	})
}

// handlePress presses the button named in the path.
func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	s.handleButton(w, r, s.service.Press)
}

// handleRelease releases the button named in the path.
func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.handleButton(w, r, s.service.Release)
}

func (s *Server) handleButton(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, button string) (bool, error),
) {
	button := mux.Vars(r)["button"]
	ctx := logger.WithKV(s.ctx, "remote", r.RemoteAddr)

	changed, err := action(ctx, button)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, hold.ErrUnknownButton) {
			status = http.StatusNotFound
		}

		s.writeJSON(w, status, errorResponse{Error: err.Error()})

		return
	}

	s.writeJSON(w, http.StatusAccepted, buttonResponse{
		Button:  button,
		Changed: changed,
	})
}

// handleIndicators returns the current snapshot.
func (s *Server) handleIndicators(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, indicatorsResponse{
		Indicators: s.service.Indicators(),
		Connection: s.service.Connection(),
	})
}

// handleHealth reports that the API is up.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.DebugKV(s.ctx, "Write response failed", "error", err)
	}
}
