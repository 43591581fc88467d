// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests configuration, query parameters and entry conversion
package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Test Server",
		Port:        8927,
		Path:        "/bridge",
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.Servers() == nil {
		t.Error("expected servers channel")
	}
	mgr.Stop()
}

func TestQueryParams(t *testing.T) {
	entries := make(chan *mdns.ServiceEntry)
	params := queryParams(entries)

	if params.Service != ServiceType {
		t.Errorf("expected service %s, got %s", ServiceType, params.Service)
	}
	if params.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", params.Timeout)
	}
	if !params.DisableIPv6 {
		t.Error("expected IPv6 disabled")
	}
}

func TestTXTRecords(t *testing.T) {
	if got := txtRecords(Config{}); got != nil {
		t.Errorf("expected no records without path, got %v", got)
	}
	got := txtRecords(Config{Path: "/bridge"})
	if len(got) != 1 || got[0] != "path=/bridge" {
		t.Errorf("unexpected records %v", got)
	}
}

func TestToServerInfo(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  string
	}{
		{"nil entry", nil, ""},
		{"no ipv4", &mdns.ServiceEntry{Name: "s", Port: 1}, ""},
		{"ipv4", &mdns.ServiceEntry{Name: "s", AddrV4: net.ParseIP("192.168.1.5"), Port: 8927}, "192.168.1.5:8927"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := toServerInfo(tt.entry)
			if tt.want == "" {
				if info != nil {
					t.Errorf("expected nil, got %+v", info)
				}
				return
			}
			if info == nil || info.Addr() != tt.want {
				t.Errorf("expected %s, got %+v", tt.want, info)
			}
		})
	}
}

func TestDiscoverHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Discover(ctx); err == nil {
		t.Error("expected error from cancelled discovery")
	}
}
