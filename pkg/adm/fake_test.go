// ABOUTME: Scriptable backend used by the session tests
// ABOUTME: Records every hook call and lets tests inject failures
package adm

import (
	"errors"
	"sync"
	"time"
)

type fakeBackend struct {
	StatusFlags

	mu    sync.Mutex
	calls []string

	initErr        error
	rejectPlayout  bool
	rejectRecord   bool
	stereo         [2]bool
	channels       [2]int
	rate           [2]int
	capacity       [2]int
	nilBuffer      bool
	configuredRate [2]int
	bufs           [2]*Buffer

	recorded [][]byte
	nextFill byte
	onRecord func()
	delays   [2]time.Duration
}

func newFakeBackend(capacity int) *fakeBackend {
	return &fakeBackend{
		channels: [2]int{1, 1},
		rate:     [2]int{48000, 48000},
		capacity: [2]int{capacity, capacity},
		nextFill: 1,
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) OnInit() error {
	f.record("init")
	return f.initErr
}

func (f *fakeBackend) OnTerminate() { f.record("terminate") }

func (f *fakeBackend) OnInitPlayout() bool {
	f.record("initPlayout")
	return !f.rejectPlayout
}

func (f *fakeBackend) OnInitRecording() bool {
	f.record("initRecording")
	return !f.rejectRecord
}

func (f *fakeBackend) OnStartPlayout()   { f.record("startPlayout") }
func (f *fakeBackend) OnStopPlayout()    { f.record("stopPlayout") }
func (f *fakeBackend) OnStartRecording() { f.record("startRecording") }
func (f *fakeBackend) OnStopRecording()  { f.record("stopRecording") }

func (f *fakeBackend) StereoAvailable(d Direction) bool { return f.stereo[d] }
func (f *fakeBackend) SampleRate(d Direction) int       { return f.rate[d] }
func (f *fakeBackend) Channels(d Direction) int         { return f.channels[d] }

func (f *fakeBackend) Delay(d Direction) time.Duration { return f.delays[d] }

func (f *fakeBackend) ConfigureRate(d Direction, rate int) *Buffer {
	f.record("configure" + d.String())
	f.configuredRate[d] = rate
	if f.nilBuffer {
		return nil
	}
	f.bufs[d] = NewBuffer(f.capacity[d])
	return f.bufs[d]
}

// DataRecorded snapshots the full recording buffer.
func (f *fakeBackend) DataRecorded() {
	f.record("dataRecorded")
	f.recorded = append(f.recorded, append([]byte(nil), f.bufs[Recording].Bytes()...))
	if f.onRecord != nil {
		f.onRecord()
	}
}

// NeedPlayoutData fills the playout buffer with consecutive byte values.
func (f *fakeBackend) NeedPlayoutData() {
	f.record("needPlayout")
	data := f.bufs[Playout].Bytes()
	for i := range data {
		data[i] = f.nextFill
		f.nextFill++
	}
}

var errDeviceMissing = errors.New("no device")
