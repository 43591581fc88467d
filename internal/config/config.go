// ABOUTME: YAML configuration for the bridge and the peer server
// ABOUTME: Defaults, file loading and per-section validation
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bridge configuration
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Local   LocalConfig   `yaml:"local"`
	Remote  RemoteConfig  `yaml:"remote"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig selects the driver and format
type DeviceConfig struct {
	Driver          string `yaml:"driver"`
	DeviceIndex     int    `yaml:"device_index"`
	SampleRate      int    `yaml:"sample_rate"`
	PlayoutStereo   bool   `yaml:"playout_stereo"`
	RecordingStereo bool   `yaml:"recording_stereo"`
	Playout         bool   `yaml:"playout"`
	Recording       bool   `yaml:"recording"`
	Volume          int    `yaml:"volume"`
	PeriodMs        int    `yaml:"period_ms"` // virtual driver only
}

// LocalConfig describes local playout and recording endpoints
type LocalConfig struct {
	// Source is a file path or URL to play; empty plays a tone
	Source string `yaml:"source"`
	// RecordFile receives raw 16-bit PCM; empty discards recordings
	RecordFile string `yaml:"record_file"`
}

// RemoteConfig links the bridge to a peer server
type RemoteConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Server   string `yaml:"server"` // host:port; empty discovers via mDNS
	Name     string `yaml:"name"`
	Codec    string `yaml:"codec"`
	BufferMs int    `yaml:"buffer_ms"`
	// DiscoveryTimeout bounds the mDNS search, in seconds
	DiscoveryTimeout int `yaml:"discovery_timeout"`
}

// ServerConfig configures the peer server
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Echo   bool   `yaml:"echo"`
	MDNS   bool   `yaml:"mdns"`
	// RecordDir receives one raw PCM file per client; empty discards
	RecordDir string `yaml:"record_dir"`
}

// MetricsConfig contains the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Driver:        "malgo",
			DeviceIndex:   -1,
			SampleRate:    48000,
			PlayoutStereo: true,
			Playout:       true,
			Recording:     true,
			Volume:        100,
			PeriodMs:      10,
		},
		Remote: RemoteConfig{
			Name:             "Audio Bridge",
			Codec:            "pcm",
			BufferMs:         200,
			DiscoveryTimeout: 10,
		},
		Server: ServerConfig{
			Port: 8927,
			Name: "Audio Bridge Server",
			MDNS: true,
		},
		Metrics: MetricsConfig{
			Address: ":9464",
		},
		Logging: LoggingConfig{
			File: "audiobridge.log",
		},
	}
}

// Load reads a configuration file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device config: %w", err)
	}

	if err := c.Remote.Validate(); err != nil {
		return fmt.Errorf("remote config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

// Validate validates device configuration
func (d *DeviceConfig) Validate() error {
	validDrivers := map[string]bool{"malgo": true, "oto": true, "portaudio": true, "virtual": true}
	if !validDrivers[d.Driver] {
		return fmt.Errorf("driver must be one of [malgo, oto, portaudio, virtual], got '%s'", d.Driver)
	}

	if d.SampleRate < 8000 || d.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", d.SampleRate)
	}

	if d.Volume < 0 || d.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", d.Volume)
	}

	if d.PeriodMs < 0 {
		return fmt.Errorf("period_ms cannot be negative, got %d", d.PeriodMs)
	}

	if d.Driver == "oto" && d.Recording {
		return fmt.Errorf("the oto driver cannot record; set recording: false")
	}

	return nil
}

// Validate validates remote link configuration
func (r *RemoteConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	if r.Codec != "pcm" && r.Codec != "opus" {
		return fmt.Errorf("codec must be 'pcm' or 'opus', got '%s'", r.Codec)
	}

	if r.BufferMs < 20 || r.BufferMs > 5000 {
		return fmt.Errorf("buffer_ms must be between 20 and 5000, got %d", r.BufferMs)
	}

	if r.Server == "" && r.DiscoveryTimeout < 1 {
		return fmt.Errorf("discovery_timeout must be at least 1 second without a server, got %d", r.DiscoveryTimeout)
	}

	return nil
}

// Validate validates peer server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("address cannot be empty when metrics are enabled")
	}
	return nil
}

// Period returns the virtual driver period as a time.Duration
func (d *DeviceConfig) Period() time.Duration {
	return time.Duration(d.PeriodMs) * time.Millisecond
}

// DiscoveryTimeoutDuration returns the mDNS search bound as a time.Duration
func (r *RemoteConfig) DiscoveryTimeoutDuration() time.Duration {
	return time.Duration(r.DiscoveryTimeout) * time.Second
}
