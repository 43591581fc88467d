// ABOUTME: Tests for the Prometheus collectors
// ABOUTME: Scrapes the handler against a fake bridge snapshot
package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/bridge"
	"github.com/Resonate-Protocol/audiobridge/pkg/engine"
)

type fakeBridge struct {
	status bridge.Status
	stats  engine.Stats
}

func (f *fakeBridge) Status() bridge.Status { return f.status }
func (f *fakeBridge) Stats() engine.Stats   { return f.stats }

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(body)
}

func TestScrapeReportsDirections(t *testing.T) {
	fb := &fakeBridge{
		status: bridge.Status{
			Volume: 70,
			Playout: bridge.DirectionStatus{
				DirectionState: adm.DirectionState{Initialized: true, Active: true},
				Pump:           adm.PumpStats{Bytes: 1920, Bursts: 2},
				Delay:          30 * time.Millisecond,
			},
			Recording: bridge.DirectionStatus{
				Warning: true,
				Dropped: 4,
			},
		},
		stats: engine.Stats{Underruns: 3},
	}

	body := scrape(t, New(fb, nil))

	for _, want := range []string{
		`audiobridge_pump_bytes_total{direction="playout"} 1920`,
		`audiobridge_pump_bursts_total{direction="playout"} 2`,
		`audiobridge_active{direction="playout"} 1`,
		`audiobridge_active{direction="recording"} 0`,
		`audiobridge_warning{direction="recording"} 1`,
		`audiobridge_dropped_bursts_total{direction="recording"} 4`,
		`audiobridge_delay_seconds{direction="playout"} 0.03`,
		`audiobridge_volume_percent 70`,
		`audiobridge_engine_underruns_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
	if strings.Contains(body, "audiobridge_link_") {
		t.Error("link metrics registered without a link")
	}
}

func TestScrapeReportsLink(t *testing.T) {
	m := New(&fakeBridge{}, func() LinkStats {
		return LinkStats{Sent: 5, Received: 6, Dropped: 1, Buffered: 3840}
	})

	body := scrape(t, m)
	for _, want := range []string{
		"audiobridge_link_sent_total 5",
		"audiobridge_link_received_total 6",
		"audiobridge_link_dropped_total 1",
		"audiobridge_link_buffered_bytes 3840",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestValuesAreLive(t *testing.T) {
	fb := &fakeBridge{}
	m := New(fb, nil)

	fb.status.Playout.Pump.Bytes = 100
	body := scrape(t, m)
	if !strings.Contains(body, `audiobridge_pump_bytes_total{direction="playout"} 100`) {
		t.Error("expected scrape to read the current snapshot")
	}
}
