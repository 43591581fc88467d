// Package source provides playout audio: a sine tone, looping MP3 and FLAC
// files, HTTP MP3 streams, and an Adapter that converts any of them to the
// rate and channel layout a device runs at.
package source
