// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers defaults, YAML overrides and per-section errors
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Device.SampleRate != 48000 {
		t.Errorf("expected 48000, got %d", cfg.Device.SampleRate)
	}
	if cfg.Device.Period() != 10*time.Millisecond {
		t.Errorf("expected 10ms period, got %v", cfg.Device.Period())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
device:
  driver: virtual
  sample_rate: 16000
  recording: false
remote:
  enabled: true
  server: 10.0.0.2:8927
  codec: opus
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Device.Driver != "virtual" || cfg.Device.SampleRate != 16000 {
		t.Errorf("device not applied: %+v", cfg.Device)
	}
	if cfg.Device.Recording {
		t.Error("expected recording disabled")
	}
	if !cfg.Device.Playout {
		t.Error("expected playout default to survive")
	}
	if cfg.Remote.Codec != "opus" || cfg.Remote.BufferMs != 200 {
		t.Errorf("remote not merged with defaults: %+v", cfg.Remote)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad yaml", "device: [", "failed to parse"},
		{"bad driver", "device:\n  driver: alsa\n", "driver must be one of"},
		{"low rate", "device:\n  sample_rate: 4000\n", "sample_rate"},
		{"loud", "device:\n  volume: 150\n", "volume"},
		{"oto records", "device:\n  driver: oto\n", "cannot record"},
		{"bad codec", "remote:\n  enabled: true\n  codec: flac\n", "codec"},
		{"tiny buffer", "remote:\n  enabled: true\n  buffer_ms: 5\n", "buffer_ms"},
		{"no discovery", "remote:\n  enabled: true\n  discovery_timeout: 0\n", "discovery_timeout"},
		{"bad port", "server:\n  port: 70000\n", "port"},
		{"metrics without address", "metrics:\n  enabled: true\n  address: \"\"\n", "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestRemoteDisabledSkipsValidation(t *testing.T) {
	r := RemoteConfig{Codec: "flac"}
	if err := r.Validate(); err != nil {
		t.Errorf("disabled remote should not be validated: %v", err)
	}
}
