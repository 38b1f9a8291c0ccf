// Package admin exposes the small HTTP surface operators use to check
// observer health and trigger analyzer runs on demand (§6 of the spec).
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/observer"
)

// Observer is the narrow view of *observer.Observer the admin endpoint
// needs for GET /status.
type Observer interface {
	Status() observer.Status
}

// TaskRunner is the narrow view of *analyzer.Runner the admin endpoint
// needs for GET /run and GET /run/<task>.
type TaskRunner interface {
	RunByName(ctx context.Context, name string) error
	RunAll(ctx context.Context) []error
}

// Config configures the Server.
type Config struct {
	Logger     *slog.Logger
	ListenAddr string
	Username   string
	Password   string
	Observer   Observer
	Runner     TaskRunner
	AppName    string
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	if cfg.Runner == nil {
		return errors.New("runner is required")
	}
	if cfg.Observer == nil {
		return errors.New("observer is required")
	}
	if cfg.AppName == "" {
		cfg.AppName = "sdnalyzer"
	}
	return nil
}

// Server is the admin HTTP endpoint.
type Server struct {
	log     *slog.Logger
	cfg     Config
	httpSrv *http.Server
}

// New builds a Server per cfg. It does not start listening; call Run.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{log: cfg.Logger, cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.withAuth(s.statusHandler))
	mux.HandleFunc("/run", s.withAuth(s.runHandler))
	mux.HandleFunc("/run/", s.withAuth(s.runHandler))
	mux.HandleFunc("/", s.withAuth(s.fallbackHandler))

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until ctx is canceled or the
// server fails.
func (s *Server) Run(ctx context.Context) error {
	serveErrCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- fmt.Errorf("admin: http server error: %w", err)
		}
	}()

	s.log.Info("admin: listening", "address", s.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin: failed to shut down: %w", err)
		}
		return nil
	case err := <-serveErrCh:
		return err
	}
}

// withAuth wraps h with HTTP Basic Auth, skipping the check entirely
// when no credentials are configured.
func (s *Server) withAuth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Username == "" && s.cfg.Password == "" {
			h(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !constantTimeEqual(user, s.cfg.Username) || !constantTimeEqual(pass, s.cfg.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="sdnalyzer"`)
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error":   401,
				"message": "authentication required",
			})
			return
		}
		h(w, r)
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusResponse struct {
	App     string `json:"app"`
	Started string `json:"started"`
	Healthy bool   `json:"healthy"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	st := s.cfg.Observer.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		App:     s.cfg.AppName,
		Started: st.Started.UTC().Format(time.RFC3339),
		Healthy: st.Healthy,
	})
}

type runResponse struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// runHandler serves both GET /run (run every catalogued task) and
// GET /run/<task> (run one task by name).
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	task := ""
	if len(r.URL.Path) > len("/run/") {
		task = r.URL.Path[len("/run/"):]
	}

	if task == "" {
		errs := s.cfg.Runner.RunAll(r.Context())
		success := true
		for _, err := range errs {
			if err != nil {
				success = false
				s.log.Error("admin: run all had failures", "error", err)
			}
		}
		writeJSON(w, http.StatusOK, runResponse{Command: "run", Success: success})
		return
	}

	err := s.cfg.Runner.RunByName(r.Context(), task)
	if err != nil {
		s.log.Error("admin: run task failed", "task", task, "error", err)
	}
	writeJSON(w, http.StatusOK, runResponse{Command: "run/" + task, Success: err == nil})
}

func (s *Server) fallbackHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   404,
		"message": "unknown route",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
