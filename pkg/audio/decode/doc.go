// ABOUTME: Audio decoder package for the bridge link
// ABOUTME: Provides Decoder interface and implementations for PCM, Opus
// Package decode turns link payloads back into 16-bit little-endian PCM.
//
// Supports: PCM (16-bit and 24-bit), Opus
//
// Example:
//
//	decoder, err := decode.New(format)
//	pcm, err := decoder.Decode(payload)
package decode
