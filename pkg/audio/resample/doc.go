// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts 16-bit audio between sample rates in a streaming fashion
// Package resample provides audio sample rate conversion.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out = r.Resample(out[:0], chunk)
package resample
