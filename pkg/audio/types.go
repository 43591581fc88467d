// ABOUTME: Audio format description and 16-bit PCM buffer math
// ABOUTME: Sizes 10ms device buffers and converts between sample widths
package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// BitsPerSample is the sample width every device buffer carries.
	BitsPerSample = 16
	// BytesPerSample is BitsPerSample in bytes.
	BytesPerSample = BitsPerSample / 8
	// BuffersPerSecond fixes device buffers at 10ms each.
	BuffersPerSecond = 100

	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes an audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dHz/%dch/%dbit", f.Codec, f.SampleRate, f.Channels, f.BitDepth)
}

// FrameBytes returns the size of one interleaved frame at 16 bits per sample.
func (f Format) FrameBytes() int {
	return f.Channels * BytesPerSample
}

// BufferBytes returns the size of one 10ms buffer at 16 bits per sample.
func (f Format) BufferBytes() int {
	return BufferBytes(f.SampleRate, f.Channels)
}

// FramesPerBuffer returns the frames in one 10ms buffer at rate.
func FramesPerBuffer(rate int) int {
	return rate / BuffersPerSecond
}

// BufferBytes returns the bytes in one 10ms, 16-bit buffer.
func BufferBytes(rate, channels int) int {
	return channels * BytesPerSample * FramesPerBuffer(rate)
}

// Duration returns how long n bytes of 16-bit PCM last.
func Duration(n, rate, channels int) time.Duration {
	frameBytes := channels * BytesPerSample
	if rate <= 0 || frameBytes <= 0 {
		return 0
	}
	frames := n / frameBytes
	return time.Duration(frames) * time.Second / time.Duration(rate)
}

// BytesToInt16 decodes little-endian 16-bit samples from src into dst and
// returns the number of samples written.
func BytesToInt16(dst []int16, src []byte) int {
	n := len(src) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
	return n
}

// Int16ToBytes encodes samples from src into dst as little-endian 16-bit
// and returns the number of bytes written.
func Int16ToBytes(dst []byte, src []int16) int {
	n := len(src)
	if n > len(dst)/2 {
		n = len(dst) / 2
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(src[i]))
	}
	return n * 2
}

// SampleToInt16 converts a 24-bit sample to 16-bit
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts a 16-bit sample to 24-bit range
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit packs the low 24 bits of sample little-endian
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit unpacks a little-endian 24-bit sample, sign-extended
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
