// Package portal serves the provisioning surface while the node runs its
// setup hotspot: a captive DNS responder plus a small open HTTP server that
// collects network credentials. None of the operational routes are mounted
// here.
package portal

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/logging"

	"go.uber.org/zap"
)

// Captive-probe paths the major platforms request to detect a portal.
// Each redirects to the setup page.
var probePaths = []string{
	"/connecttest.txt",
	"/ncc.txt",
	"/generate_204",
	"/hotspot-detect.html",
	"/fwlink",
	"/canonical.html",
	"/success.txt",
	"/library/test/success.html",
	"/redirect",
	"/ncsi.txt",
	"/chromehotstart.crx",
}

// Server is the provisioning HTTP server.
type Server struct {
	httpServer *http.Server
	store      *config.Store
	deviceID   string
	restart    chan<- struct{}
}

// New builds the provisioning server. A successful credential submission
// persists through store and signals restart; the caller exits so the
// supervisor brings the process back up in station mode.
func New(addr string, store *config.Store, deviceID string, restart chan<- struct{}) *Server {
	s := &Server{
		store:    store,
		deviceID: deviceID,
		restart:  restart,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/wifi", s.handleWiFi)
	for _, p := range probePaths {
		mux.HandleFunc(p, s.redirectToRoot)
	}

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve serves on an existing listener. Used by tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) redirectToRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleRoot serves the credential form at exactly "/" and steers every
// other unknown path back to it, captive-portal style.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.redirectToRoot(w, r)
		return
	}
	renderSetupPage(w, s.deviceID)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":   true,
		"mode": "ap",
		"mdns": s.deviceID + ".local",
	})
}

func (s *Server) handleWiFi(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_form")
		return
	}

	ssid := r.PostFormValue("ssid")
	pass := r.PostFormValue("pass")
	if ssid == "" {
		writeJSONError(w, http.StatusBadRequest, "ssid_required")
		return
	}

	if err := s.store.UpdateWiFi(config.WiFiConfig{SSID: ssid, Password: pass}); err != nil {
		logging.Error("saving credential failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	logging.Info("network credential saved, restarting", zap.String("ssid", ssid))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "reboot": true})

	select {
	case s.restart <- struct{}{}:
	default:
	}
}

func writeJSONError(w http.ResponseWriter, code int, errCode string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "err": errCode})
}
