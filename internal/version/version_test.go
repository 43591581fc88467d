// ABOUTME: Tests for version constants
// ABOUTME: Checks device info fields and the startup banner
package version

import (
	"strings"
	"testing"
)

func TestDeviceInfoFields(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Fatalf("%s is empty", tt.name)
			}
			if strings.TrimSpace(tt.value) != tt.value {
				t.Errorf("%s has surrounding whitespace: %q", tt.name, tt.value)
			}
		})
	}
}

func TestVersionIsSemver(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("Version %q is not major.minor.patch", Version)
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			t.Errorf("Version %q has non-numeric part %q", Version, p)
		}
	}
}

func TestString(t *testing.T) {
	got := String()
	if !strings.HasPrefix(got, Product) || !strings.HasSuffix(got, Version) {
		t.Errorf("String() = %q", got)
	}
}
