// ABOUTME: Format adapter that remaps channels and resamples a source
// ABOUTME: Lets any file feed a device running at a different rate or layout
package source

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/resample"
)

// Adapter converts a Source to a target rate and channel count.
type Adapter struct {
	src       Source
	rate      int
	channels  int
	resampler *resample.Resampler

	raw     []byte
	in      []int16
	mapped  []int16
	out     []int16
	pending []byte
}

// Adapt returns src unchanged when it already matches rate and channels,
// otherwise an Adapter around it.
func Adapt(src Source, rate, channels int) Source {
	if src.SampleRate() == rate && src.Channels() == channels {
		return src
	}
	a := &Adapter{src: src, rate: rate, channels: channels}
	if src.SampleRate() != rate {
		a.resampler = resample.New(src.SampleRate(), rate, channels)
	}
	return a
}

func (a *Adapter) Read(p []byte) (int, error) {
	for len(a.pending) < len(p) {
		if err := a.fill(len(p) - len(a.pending)); err != nil {
			if len(a.pending) == 0 {
				return 0, err
			}
			break
		}
	}
	n := copy(p, a.pending)
	a.pending = append(a.pending[:0], a.pending[n:]...)
	return n, nil
}

// fill converts roughly want more output bytes into pending.
func (a *Adapter) fill(want int) error {
	outFrames := want/(a.channels*audio.BytesPerSample) + 1
	inFrames := outFrames
	if a.resampler != nil {
		inFrames = a.resampler.InputFramesNeeded(outFrames)
	}

	srcFrameBytes := a.src.Channels() * audio.BytesPerSample
	have := len(a.raw)
	need := inFrames * srcFrameBytes
	if cap(a.raw) < need {
		raw := make([]byte, have, need)
		copy(raw, a.raw)
		a.raw = raw
	}
	a.raw = a.raw[:need]
	n, err := a.src.Read(a.raw[have:])
	a.raw = a.raw[:have+n]
	if n == 0 {
		if err == nil {
			err = io.ErrNoProgress
		}
		return err
	}

	frames := len(a.raw) / srcFrameBytes
	a.in = grow(a.in, frames*a.src.Channels())
	audio.BytesToInt16(a.in, a.raw[:frames*srcFrameBytes])
	a.raw = append(a.raw[:0], a.raw[frames*srcFrameBytes:]...)

	a.mapped = remap(a.mapped[:0], a.in, a.src.Channels(), a.channels)

	samples := a.mapped
	if a.resampler != nil {
		a.out = a.resampler.Resample(a.out[:0], a.mapped)
		samples = a.out
	}

	start := len(a.pending)
	a.pending = append(a.pending, make([]byte, len(samples)*audio.BytesPerSample)...)
	audio.Int16ToBytes(a.pending[start:], samples)
	return nil
}

func (a *Adapter) SampleRate() int { return a.rate }
func (a *Adapter) Channels() int   { return a.channels }
func (a *Adapter) Close() error    { return a.src.Close() }

func (a *Adapter) Name() string {
	return fmt.Sprintf("%s (%dHz/%dch)", a.src.Name(), a.rate, a.channels)
}

// remap appends in, converted from inCh to outCh interleaved channels, to dst.
// Downmixing to mono averages; other layouts repeat source channels.
func remap(dst, in []int16, inCh, outCh int) []int16 {
	frames := len(in) / inCh
	if inCh == outCh {
		return append(dst, in[:frames*inCh]...)
	}
	for f := 0; f < frames; f++ {
		frame := in[f*inCh : (f+1)*inCh]
		if outCh == 1 {
			sum := 0
			for _, s := range frame {
				sum += int(s)
			}
			dst = append(dst, int16(sum/inCh))
			continue
		}
		for c := 0; c < outCh; c++ {
			dst = append(dst, frame[c%inCh])
		}
	}
	return dst
}

func grow(s []int16, n int) []int16 {
	if cap(s) < n {
		return make([]int16, n)
	}
	return s[:n]
}
