// ABOUTME: Audio fundamentals shared by drivers, codecs and the link
// ABOUTME: Defines Format, 10ms buffer sizing and sample conversions
// Package audio holds the format types and PCM arithmetic the rest of the
// module agrees on.
//
// Device buffers always carry interleaved 16-bit little-endian samples and
// always hold 10ms of audio:
//
//	frames := audio.FramesPerBuffer(48000)  // 480
//	size := audio.BufferBytes(48000, 2)     // 1920
//
// Sample helpers convert between 16-bit and 24-bit representations for
// the 24-bit PCM link codec.
package audio
