// Package web provides an HTTP status and control server for the
// appliance-timer daemon.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sweeney/appliance-timer/internal/control"
	"github.com/sweeney/appliance-timer/internal/status"
)

// submitTimeout bounds how long a request waits for the control loop.
const submitTimeout = 2 * time.Second

// Server serves the status page and accepts override/mode requests.
// It never touches the controller; commands go to the control loop.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commands   chan<- control.Command
	log        *zap.Logger
	timeout    time.Duration
}

// New creates a Server that reads state from the given tracker and submits
// commands on the given channel.
func New(addr string, tracker *status.Tracker, commands chan<- control.Command, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		tracker:  tracker,
		commands: commands,
		log:      log,
		timeout:  submitTimeout,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	r.HandleFunc("/api/override", s.handleCommand(control.CommandOverride)).Methods(http.MethodPost)
	r.HandleFunc("/api/mode", s.handleCommand(control.CommandMode)).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.log.Error("render status page", zap.Error(err))
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleCommand(cmd control.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()

		select {
		case s.commands <- cmd:
			s.log.Info("http command accepted", zap.String("command", string(cmd)), zap.String("remote", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
		case <-ctx.Done():
			s.log.Warn("http command not accepted", zap.String("command", string(cmd)), zap.Error(ctx.Err()))
			http.Error(w, "control loop busy", http.StatusServiceUnavailable)
		}
	}
}
