// ABOUTME: Tests for the buffer-owning engine driven through a session
// ABOUTME: Checks 10ms sizing, sink delivery and playout underrun handling
package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
)

type stubDevice struct {
	rate   int
	stereo [2]bool
}

func (d *stubDevice) OnInit() error                          { return nil }
func (d *stubDevice) OnTerminate()                           {}
func (d *stubDevice) OnInitPlayout() bool                    { return true }
func (d *stubDevice) OnInitRecording() bool                  { return true }
func (d *stubDevice) OnStartPlayout()                        {}
func (d *stubDevice) OnStopPlayout()                         {}
func (d *stubDevice) OnStartRecording()                      {}
func (d *stubDevice) OnStopRecording()                       {}
func (d *stubDevice) StereoAvailable(dir adm.Direction) bool { return d.stereo[dir] }
func (d *stubDevice) SampleRate(adm.Direction) int           { return d.rate }

type capture struct {
	chunks [][]byte
	bits   int
	rate   int
	ch     int
	frames int
}

func (c *capture) OnData(data []byte, bitsPerSample, sampleRate, channels, frames int) {
	c.chunks = append(c.chunks, append([]byte(nil), data...))
	c.bits, c.rate, c.ch, c.frames = bitsPerSample, sampleRate, channels, frames
}

func TestConfigureRateSizesTenMilliseconds(t *testing.T) {
	tests := []struct {
		name   string
		rate   int
		stereo bool
		size   int
	}{
		{"48k stereo", 48000, true, 1920},
		{"48k mono", 48000, false, 960},
		{"16k mono", 16000, false, 320},
		{"44.1k stereo", 44100, true, 1764},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Config{RecordingStereo: tt.stereo})
			buf := e.ConfigureRate(adm.Recording, tt.rate)
			if buf == nil || buf.Cap() != tt.size {
				t.Fatalf("buffer = %v, want %d bytes", buf, tt.size)
			}
		})
	}
}

func TestConfigureRateReusesSameSizedBuffer(t *testing.T) {
	e := New(Config{})
	first := e.ConfigureRate(adm.Playout, 48000)
	if again := e.ConfigureRate(adm.Playout, 48000); again != first {
		t.Error("same-sized buffer should be reused")
	}
	if other := e.ConfigureRate(adm.Playout, 16000); other == first {
		t.Error("resized buffer should be new")
	}
}

func TestConfigureRateTooLowIsContractViolation(t *testing.T) {
	e := New(Config{})
	sess := adm.NewSession(adm.Compose(&stubDevice{rate: 50}, e))
	if err := sess.InitPlayout(); !errors.Is(err, adm.ErrBackendContract) {
		t.Fatalf("expected ErrBackendContract, got %v", err)
	}
}

func TestRecordingReachesSinkWithFormat(t *testing.T) {
	sink := &capture{}
	e := New(Config{RecordingStereo: true, Sink: sink})
	sess := adm.NewSession(adm.Compose(&stubDevice{rate: 48000, stereo: [2]bool{false, true}}, e))

	if err := sess.InitRecording(); err != nil {
		t.Fatalf("InitRecording failed: %v", err)
	}

	src := make([]byte, 1920*2+100)
	for i := range src {
		src[i] = byte(i)
	}
	if err := sess.Record(src); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if len(sink.chunks) != 2 {
		t.Fatalf("sink got %d buffers, want 2", len(sink.chunks))
	}
	if sink.bits != 16 || sink.rate != 48000 || sink.ch != 2 || sink.frames != 480 {
		t.Errorf("format = %d bits %d Hz %d ch %d frames", sink.bits, sink.rate, sink.ch, sink.frames)
	}
	if !bytes.Equal(sink.chunks[1], src[1920:3840]) {
		t.Error("second buffer content mismatch")
	}
	if e.Stats().Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", e.Stats().Delivered)
	}
}

func TestPlayoutReadsSourceAndZeroFillsUnderrun(t *testing.T) {
	audioData := bytes.Repeat([]byte{0xAB}, 320+100)
	e := New(Config{Source: bytes.NewReader(audioData)})
	sess := adm.NewSession(adm.Compose(&stubDevice{rate: 16000}, e))

	if err := sess.InitPlayout(); err != nil {
		t.Fatalf("InitPlayout failed: %v", err)
	}

	out := make([]byte, 640)
	if err := sess.Play(out); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !bytes.Equal(out[:420], audioData) {
		t.Error("source bytes not played in order")
	}
	for i, b := range out[420:] {
		if b != 0 {
			t.Fatalf("byte %d after underrun = %#x, want silence", 420+i, b)
		}
	}

	stats := e.Stats()
	if stats.Refills != 2 || stats.Underruns != 1 {
		t.Errorf("stats = %+v, want 2 refills 1 underrun", stats)
	}
}

func TestPlayoutWithoutSourceIsSilence(t *testing.T) {
	e := New(Config{})
	sess := adm.NewSession(adm.Compose(&stubDevice{rate: 8000}, e))
	if err := sess.InitPlayout(); err != nil {
		t.Fatalf("InitPlayout failed: %v", err)
	}

	out := bytes.Repeat([]byte{1}, 160)
	if err := sess.Play(out); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !bytes.Equal(out, make([]byte, 160)) {
		t.Error("expected silence")
	}
}

func TestSetStereoTakesEffectOnNextInit(t *testing.T) {
	e := New(Config{})
	dev := &stubDevice{rate: 48000}
	sess := adm.NewSession(adm.Compose(dev, e))

	if err := sess.InitPlayout(); err != nil {
		t.Fatalf("InitPlayout failed: %v", err)
	}
	sess.StopPlayout()

	e.SetStereo(adm.Playout, true)
	var cfgErr *adm.ConfigError
	if err := sess.InitPlayout(); !errors.As(err, &cfgErr) || cfgErr.Expected != 1 {
		t.Fatalf("stereo engine on mono device should fail, got %v", err)
	}

	dev.stereo[adm.Playout] = true
	if err := sess.InitPlayout(); err != nil {
		t.Fatalf("InitPlayout after matching device failed: %v", err)
	}
}

func TestUnknownDirection(t *testing.T) {
	e := New(Config{PlayoutStereo: true})
	d := adm.Direction(3)

	e.SetStereo(d, true)
	if got := e.Channels(d); got != 0 {
		t.Errorf("Channels = %d, want 0", got)
	}
	if buf := e.ConfigureRate(d, 48000); buf != nil {
		t.Errorf("expected no buffer, got %d bytes", buf.Cap())
	}
	if got := e.Channels(adm.Playout); got != 2 {
		t.Errorf("playout channels = %d, want 2", got)
	}
}

func TestWriterSink(t *testing.T) {
	var out bytes.Buffer
	s := NewWriterSink(&out)
	s.OnData([]byte{1, 2}, 16, 48000, 1, 1)
	s.OnData([]byte{3, 4}, 16, 48000, 1, 1)
	if !bytes.Equal(out.Bytes(), []byte{1, 2, 3, 4}) || s.Errors() != 0 {
		t.Errorf("wrote %v with %d errors", out.Bytes(), s.Errors())
	}
}

func TestVolumeScalesPlayout(t *testing.T) {
	tests := []struct {
		name   string
		volume int
		muted  bool
		in     int16
		want   int16
	}{
		{"full", 100, false, 1000, 1000},
		{"half", 50, false, 1000, 500},
		{"half negative", 50, false, -1000, -500},
		{"muted", 100, true, 1000, 0},
		{"clamped above", 150, false, 1000, 1000},
		{"zero", 0, false, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, 160)
			for i := 0; i < len(data); i += 2 {
				data[i] = byte(uint16(tt.in))
				data[i+1] = byte(uint16(tt.in) >> 8)
			}

			e := New(Config{Source: bytes.NewReader(data)})
			e.SetVolume(tt.volume)
			e.SetMuted(tt.muted)
			sess := adm.NewSession(adm.Compose(&stubDevice{rate: 8000}, e))
			if err := sess.InitPlayout(); err != nil {
				t.Fatalf("InitPlayout failed: %v", err)
			}

			out := make([]byte, 2)
			if err := sess.Play(out); err != nil {
				t.Fatalf("Play failed: %v", err)
			}
			got := int16(uint16(out[0]) | uint16(out[1])<<8)
			if got != tt.want {
				t.Errorf("sample = %d, want %d", got, tt.want)
			}
		})
	}
}
