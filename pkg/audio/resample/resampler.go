// ABOUTME: Streaming linear resampler for 16-bit interleaved audio
// ABOUTME: Carries the last input frame across calls so chunk edges stay continuous
package resample

// Resampler converts interleaved int16 audio between sample rates using
// linear interpolation. It keeps state between calls, so a stream can be
// fed in chunks of any size.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64
	position   float64
	prev       []int16 // last input frame of the previous call
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		prev:       make([]int16, channels),
	}
}

// Resample appends the converted form of input to dst and returns the
// extended slice. input must hold whole frames.
func (r *Resampler) Resample(dst, input []int16) []int16 {
	frames := len(input) / r.channels
	if frames == 0 {
		return dst
	}

	// Positions index the sequence prev, input[0], input[1], ...
	for int(r.position) < frames {
		idx := int(r.position)
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			var s0 int16
			if idx == 0 {
				s0 = r.prev[ch]
			} else {
				s0 = input[(idx-1)*r.channels+ch]
			}
			s1 := input[idx*r.channels+ch]
			v := float64(s0)*(1-frac) + float64(s1)*frac
			dst = append(dst, int16(v))
		}
		r.position += r.step
	}

	r.position -= float64(frames)
	copy(r.prev, input[(frames-1)*r.channels:frames*r.channels])
	return dst
}

// Reset forgets the stream history
func (r *Resampler) Reset() {
	r.position = 0
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// InputFramesNeeded estimates the input frames that yield outputFrames
func (r *Resampler) InputFramesNeeded(outputFrames int) int {
	return int(float64(outputFrames)*r.step) + 1
}

// Ratio returns input rate over output rate
func (r *Resampler) Ratio() float64 {
	return r.step
}
