package web

import (
	"encoding/json"
	"net/http"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/status"
)

// StatusJSON is the JSON representation of the device status.
type StatusJSON struct {
	OK           bool       `json:"ok"`
	Mode         string     `json:"mode"`
	IP           string     `json:"ip,omitempty"`
	MDNS         string     `json:"mdns,omitempty"`
	Relays       []bool     `json:"relays"`
	InputsClosed []bool     `json:"inputs_closed"`
	MQTT         MQTTStatus `json:"mqtt"`
	UptimeSecs   int64      `json:"uptime_seconds"`
}

// MQTTStatus reports broker connection state.
type MQTTStatus struct {
	Enabled      bool   `json:"enabled"`
	Connected    bool   `json:"connected"`
	BaseTopic    string `json:"base_topic"`
	Availability string `json:"availability"`
}

// MQTTConfigJSON is the /api/mqtt GET response. The password itself is
// never returned, only whether one is stored.
type MQTTConfigJSON struct {
	OK          bool   `json:"ok"`
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	User        string `json:"user"`
	PassSet     bool   `json:"pass_set"`
	BaseTopic   string `json:"base_topic"`
	AvailTopic  string `json:"avail_topic"`
	Relay1Set   string `json:"relay1_set"`
	Relay1State string `json:"relay1_state"`
	Input1State string `json:"input1_state"`
}

// ResultJSON is the generic API response.
type ResultJSON struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

func formatStatus(snap status.Snapshot) []byte {
	sj := StatusJSON{
		OK:           true,
		Mode:         snap.Mode,
		IP:           snap.IP,
		MDNS:         snap.MDNSHost,
		Relays:       snap.Relays[:],
		InputsClosed: snap.InputsClosed[:],
		MQTT: MQTTStatus{
			Enabled:      snap.MQTT.Enabled,
			Connected:    snap.MQTT.Connected,
			BaseTopic:    snap.MQTT.BaseTopic,
			Availability: snap.MQTT.Availability,
		},
		UptimeSecs: int64(snap.Uptime().Seconds()),
	}
	data, _ := json.Marshal(sj)
	return data
}

func formatMQTTConfig(cfg config.MQTTConfig) []byte {
	topics := derivedTopics(cfg)
	cj := MQTTConfigJSON{
		OK:          true,
		Enabled:     cfg.Enabled,
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.Username,
		PassSet:     cfg.Password != "",
		BaseTopic:   cfg.BaseTopic,
		AvailTopic:  topics.Availability(),
		Relay1Set:   topics.RelaySet(0),
		Relay1State: topics.RelayState(0),
		Input1State: topics.InputState(0),
	}
	data, _ := json.Marshal(cj)
	return data
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	data, _ := json.Marshal(ResultJSON{OK: true})
	w.Write(data)
}

func writeError(w http.ResponseWriter, code int, errCode string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	data, _ := json.Marshal(ResultJSON{Err: errCode})
	w.Write(data)
}
