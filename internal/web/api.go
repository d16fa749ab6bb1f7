package web

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/logging"
	"github.com/sweeney/switchnode/internal/logic"
	"github.com/sweeney/switchnode/internal/mqtt"
	"github.com/sweeney/switchnode/internal/relay"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatStatus(snap))
}

// handleRelay sets a single relay: form fields relay=1..4 and
// state=ON|OFF|1|0|TRUE|FALSE|TOGGLE.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_form")
		return
	}
	relayStr, stateStr := r.PostFormValue("relay"), r.PostFormValue("state")
	if relayStr == "" || stateStr == "" {
		writeError(w, http.StatusBadRequest, "missing_params")
		return
	}

	n, err := strconv.Atoi(relayStr)
	if err != nil || n < 1 || n > logic.NumRelays {
		writeError(w, http.StatusBadRequest, "invalid_relay")
		return
	}
	kind, ok := logic.ParseCommand(stateStr)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_state")
		return
	}

	if !s.queue.Push(relay.Command{Index: n - 1, Kind: kind, Origin: relay.OriginHTTP}) {
		writeError(w, http.StatusServiceUnavailable, "busy")
		return
	}
	writeOK(w)
}

// handleRelays applies a batch: form field states carrying the same JSON
// object the MQTT batch topic accepts.
func (s *Server) handleRelays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_form")
		return
	}
	statesJSON := r.PostFormValue("states")
	if statesJSON == "" {
		writeError(w, http.StatusBadRequest, "missing_states")
		return
	}

	batch, err := logic.ParseBatch([]byte(statesJSON))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	for idx := 0; idx < logic.NumRelays; idx++ {
		kind, ok := batch[idx]
		if !ok {
			continue
		}
		s.queue.Push(relay.Command{Index: idx, Kind: kind, Origin: relay.OriginHTTP})
	}
	writeOK(w)
}

func (s *Server) handleMQTT(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleMQTTGet(w)
	case http.MethodPost:
		s.handleMQTTPost(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (s *Server) handleMQTTGet(w http.ResponseWriter) {
	cfg := s.store.Current().MQTT
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatMQTTConfig(cfg))
}

// handleMQTTPost updates the broker settings, persists them, and hands the
// new config to the loop for a clean reconnect. An empty pass field keeps
// the stored password.
func (s *Server) handleMQTTPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_form")
		return
	}

	current := s.store.Current().MQTT
	updated := config.MQTTConfig{
		Enabled:   formBool(r.PostFormValue("enabled")),
		Host:      r.PostFormValue("host"),
		Username:  r.PostFormValue("user"),
		Password:  current.Password,
		BaseTopic: r.PostFormValue("base_topic"),
	}
	if pass := r.PostFormValue("pass"); pass != "" {
		updated.Password = pass
	}
	port, err := strconv.Atoi(r.PostFormValue("port"))
	if err != nil || port <= 0 || port > 65535 {
		port = 1883
	}
	updated.Port = port

	if err := s.store.UpdateMQTT(updated); err != nil {
		logging.Error("persist mqtt config", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	select {
	case s.mqttUpdates <- struct{}{}:
	default:
		// A signal is already pending; the loop re-reads the store when it
		// drains it, so the latest config always wins.
	}
	writeOK(w)
}

func formBool(v string) bool {
	switch v {
	case "1", "true", "TRUE", "True", "on", "ON":
		return true
	}
	return false
}

// derivedTopics appears in the /api/mqtt response so users can copy exact
// topic names into their automation.
func derivedTopics(cfg config.MQTTConfig) mqtt.TopicSet {
	return mqtt.NewTopicSet(cfg.BaseTopic)
}
