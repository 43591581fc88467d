// ABOUTME: Audio encoder package for the bridge link
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode turns 10ms buffers of 16-bit little-endian PCM into link
// payloads.
//
// Supports: PCM (16-bit and 24-bit), Opus
//
// Example:
//
//	encoder, err := encode.New(format)
//	payload, err := encoder.Encode(buf)
package encode
