// Package config loads and saves the durable device configuration.
// The file is plain YAML; a missing file yields defaults, which means an
// empty wifi credential and therefore provisioning mode.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/switchnode/internal/logic"
)

// DefaultPath is where the daemon looks for its configuration.
const DefaultPath = "/etc/switchnode/config.yaml"

// Config is the root configuration structure.
type Config struct {
	WiFi WiFiConfig `yaml:"wifi"`
	MQTT MQTTConfig `yaml:"mqtt"`
	HTTP HTTPConfig `yaml:"http"`
	GPIO GPIOConfig `yaml:"gpio"`
}

// WiFiConfig is the stored station credential. An empty SSID forces
// provisioning mode at boot.
type WiFiConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	BaseTopic string `yaml:"base_topic"`
}

// NormalizedBase returns the base topic trimmed of whitespace and trailing
// slashes. All derived topics start from this form.
func (c MQTTConfig) NormalizedBase() string {
	return strings.TrimRight(strings.TrimSpace(c.BaseTopic), "/")
}

// Ready reports whether the broker connection should be attempted:
// enabled, host set, and a non-empty base topic after normalization.
func (c MQTTConfig) Ready() bool {
	return c.Enabled && c.Host != "" && c.NormalizedBase() != ""
}

// HTTPConfig contains the web server address and the shared credential
// gating operational routes.
type HTTPConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// GPIOConfig contains pin assignments and relay polarity.
type GPIOConfig struct {
	RelayPins [logic.NumRelays]int `yaml:"relay_pins"`
	InputPins [logic.NumInputs]int `yaml:"input_pins"`
	ActiveLow bool                 `yaml:"active_low"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		MQTT: MQTTConfig{Port: 1883},
		HTTP: HTTPConfig{
			Addr:     ":80",
			Username: "admin",
			Password: "switch4node",
		},
		GPIO: GPIOConfig{
			RelayPins: [logic.NumRelays]int{16, 17, 18, 19},
			InputPins: [logic.NumInputs]int{25, 26, 27, 14},
		},
	}
}

// Load reads the configuration from path. A missing file is not an error:
// defaults are returned so the device boots into provisioning mode.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
// The file is private: it holds wifi and broker credentials.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// normalize fills in values a hand-edited file may have left out.
func (c *Config) normalize() {
	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		c.MQTT.Port = 1883
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":80"
	}
	if c.GPIO.RelayPins == ([logic.NumRelays]int{}) {
		c.GPIO.RelayPins = Default().GPIO.RelayPins
	}
	if c.GPIO.InputPins == ([logic.NumInputs]int{}) {
		c.GPIO.InputPins = Default().GPIO.InputPins
	}
}
