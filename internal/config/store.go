package config

import "sync"

// Store holds the live configuration and persists updates. HTTP handlers
// mutate it from their own goroutines, so access is locked; the cooperative
// loop reads broker config only through the update channel it drains.
type Store struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

// NewStore wraps an already loaded configuration.
func NewStore(path string, cfg Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// Current returns a copy of the configuration.
func (s *Store) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateMQTT replaces the broker settings and persists the file.
func (s *Store) UpdateMQTT(m MQTTConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cfg.MQTT
	s.cfg.MQTT = m
	if err := Save(s.path, s.cfg); err != nil {
		s.cfg.MQTT = old
		return err
	}
	return nil
}

// UpdateWiFi replaces the station credential and persists the file.
func (s *Store) UpdateWiFi(w WiFiConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cfg.WiFi
	s.cfg.WiFi = w
	if err := Save(s.path, s.cfg); err != nil {
		s.cfg.WiFi = old
		return err
	}
	return nil
}
