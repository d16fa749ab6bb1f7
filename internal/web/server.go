// Package web provides the authenticated HTTP control surface served in
// operational mode. Handlers never touch loop-owned state directly: reads
// come from the status tracker, relay mutations go through the command
// queue, broker-config changes through the update channel.
package web

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/relay"
	"github.com/sweeney/switchnode/internal/status"
)

// Server serves the operational UI and API.
type Server struct {
	httpServer  *http.Server
	tracker     *status.Tracker
	queue       relay.Queue
	store       *config.Store
	mqttUpdates chan<- struct{}
}

// New creates a Server. mqttUpdates signals broker-config changes to the
// cooperative loop, which re-reads the store and owns the reconnect.
func New(addr string, tracker *status.Tracker, queue relay.Queue, store *config.Store, mqttUpdates chan<- struct{}) *Server {
	s := &Server{
		tracker:     tracker,
		queue:       queue,
		store:       store,
		mqttUpdates: mqttUpdates,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.requireAuth(s.handleIndex))
	mux.HandleFunc("/api/status", s.requireAuth(s.handleStatus))
	mux.HandleFunc("/api/relay", s.requireAuth(s.handleRelay))
	mux.HandleFunc("/api/relays", s.requireAuth(s.handleRelays))
	mux.HandleFunc("/api/mqtt", s.requireAuth(s.handleMQTT))

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
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

// requireAuth gates a handler behind HTTP basic auth with the shared
// credential from the config store.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.store.Current().HTTP
		user, pass, ok := r.BasicAuth()
		if !ok || !credentialsMatch(user, pass, cfg.Username, cfg.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="switchnode"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	u := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass))
	return u == 1 && p == 1
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}
