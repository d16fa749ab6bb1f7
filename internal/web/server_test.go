package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/logic"
	"github.com/sweeney/switchnode/internal/relay"
	"github.com/sweeney/switchnode/internal/status"
)

type testEnv struct {
	ts      *httptest.Server
	tracker *status.Tracker
	queue   relay.Queue
	store   *config.Store
	updates chan struct{}
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker := status.NewTracker(start, "sta", status.Config{PollMs: 10, DebounceMs: 50, HTTPAddr: ":80"})

	cfg := config.Default()
	cfg.MQTT = config.MQTTConfig{
		Enabled: true, Host: "broker.local", Port: 1883,
		Password: "secret", BaseTopic: "home/sw",
	}
	store := config.NewStore(filepath.Join(t.TempDir(), "config.yaml"), cfg)

	queue := relay.NewQueue(16)
	updates := make(chan struct{}, 1)
	srv := New(":0", tracker, queue, store, updates)

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, tracker: tracker, queue: queue, store: store, updates: updates}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	req.SetBasicAuth("admin", "switch4node")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, e.ts.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("admin", "switch4node")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestAuthRequired(t *testing.T) {
	e := newTestServer(t)

	for _, path := range []string{"/", "/api/status", "/api/mqtt"} {
		resp, err := http.Get(e.ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without credentials: got %d, want 401", path, resp.StatusCode)
		}
		if h := resp.Header.Get("WWW-Authenticate"); !strings.HasPrefix(h, "Basic") {
			t.Errorf("%s: WWW-Authenticate: got %q", path, h)
		}
	}
}

func TestAuthWrongPassword(t *testing.T) {
	e := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, e.ts.URL+"/api/status", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d, want 401", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	e := newTestServer(t)
	e.tracker.Update([4]bool{true, false, false, true}, [4]bool{false, true, false, false})
	e.tracker.SetMQTT(status.MQTT{Enabled: true, Connected: true, BaseTopic: "home/sw", Availability: "home/sw/status"})
	e.tracker.SetNetwork("192.168.1.50", "switchnode-a1b2c3")

	resp := e.get(t, "/api/status")
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !sj.OK || sj.Mode != "sta" {
		t.Errorf("got ok=%v mode=%q", sj.OK, sj.Mode)
	}
	if len(sj.Relays) != 4 || !sj.Relays[0] || !sj.Relays[3] {
		t.Errorf("relays: got %v", sj.Relays)
	}
	if len(sj.InputsClosed) != 4 || !sj.InputsClosed[1] {
		t.Errorf("inputs_closed: got %v", sj.InputsClosed)
	}
	if !sj.MQTT.Connected || sj.MQTT.BaseTopic != "home/sw" {
		t.Errorf("mqtt: got %+v", sj.MQTT)
	}
}

func TestRelayPostEnqueues(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/api/relay", url.Values{"relay": {"2"}, "state": {"ON"}})
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("got %d, want 200", resp.StatusCode)
	}

	select {
	case cmd := <-e.queue:
		want := relay.Command{Index: 1, Kind: logic.KindTurnOn, Origin: relay.OriginHTTP}
		if cmd != want {
			t.Errorf("queued: got %+v, want %+v", cmd, want)
		}
	default:
		t.Fatal("no command queued")
	}
}

func TestRelayPostValidation(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing params", url.Values{}},
		{"relay zero", url.Values{"relay": {"0"}, "state": {"ON"}}},
		{"relay five", url.Values{"relay": {"5"}, "state": {"ON"}}},
		{"relay garbage", url.Values{"relay": {"x"}, "state": {"ON"}}},
		{"bad state", url.Values{"relay": {"1"}, "state": {"bogus"}}},
	}
	for _, tt := range tests {
		resp := e.post(t, "/api/relay", tt.form)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", tt.name, resp.StatusCode)
		}
	}
	select {
	case cmd := <-e.queue:
		t.Errorf("invalid request queued a command: %+v", cmd)
	default:
	}
}

func TestRelaysBatchPost(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/api/relays", url.Values{"states": {`{"1":"ON","3":"bogus","4":"TOGGLE"}`}})
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("got %d, want 200", resp.StatusCode)
	}

	var got []relay.Command
	for {
		select {
		case cmd := <-e.queue:
			got = append(got, cmd)
			continue
		default:
		}
		break
	}
	if len(got) != 2 {
		t.Fatalf("got %d commands, want 2: %+v", len(got), got)
	}
	if got[0].Index != 0 || got[0].Kind != logic.KindTurnOn {
		t.Errorf("command 0: got %+v", got[0])
	}
	if got[1].Index != 3 || got[1].Kind != logic.KindToggle {
		t.Errorf("command 1: got %+v", got[1])
	}
}

func TestRelaysBatchMalformed(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/api/relays", url.Values{"states": {`{"1":"ON"`}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got %d, want 400", resp.StatusCode)
	}
}

func TestMQTTGetHidesPassword(t *testing.T) {
	e := newTestServer(t)

	resp := e.get(t, "/api/mqtt")
	defer resp.Body.Close()

	var cj MQTTConfigJSON
	if err := json.NewDecoder(resp.Body).Decode(&cj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !cj.PassSet {
		t.Error("pass_set: got false, want true")
	}
	if cj.Relay1Set != "home/sw/relay/1/set" {
		t.Errorf("relay1_set: got %q", cj.Relay1Set)
	}
	if cj.AvailTopic != "home/sw/status" {
		t.Errorf("avail_topic: got %q", cj.AvailTopic)
	}
}

func TestMQTTPostPersistsAndSignals(t *testing.T) {
	e := newTestServer(t)

	resp := e.post(t, "/api/mqtt", url.Values{
		"enabled":    {"1"},
		"host":       {"10.0.0.5"},
		"port":       {"1884"},
		"user":       {"mq"},
		"pass":       {""},
		"base_topic": {"home/new/"},
	})
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("got %d, want 200", resp.StatusCode)
	}

	got := e.store.Current().MQTT
	if got.Host != "10.0.0.5" || got.Port != 1884 || got.BaseTopic != "home/new/" {
		t.Errorf("stored config: %+v", got)
	}
	// Empty pass field keeps the previous password.
	if got.Password != "secret" {
		t.Errorf("password: got %q, want retained", got.Password)
	}

	select {
	case <-e.updates:
	default:
		t.Error("no reconnect signal sent")
	}
}

func TestIndexPage(t *testing.T) {
	e := newTestServer(t)
	e.tracker.Update([4]bool{true, false, false, false}, [4]bool{})

	resp := e.get(t, "/")
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("got %d, want 200", resp.StatusCode)
	}
	body := make([]byte, 16384)
	n, _ := resp.Body.Read(body)
	html := string(body[:n])
	if !strings.Contains(html, "Relay 1") {
		t.Error("index page missing relay table")
	}
	if !strings.Contains(html, "Switchnode") {
		t.Error("index page missing title")
	}
}
