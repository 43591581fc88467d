package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/audiobridge/internal/protocol"
)

func TestRecorderAppendsPerClient(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder(dir)

	format := protocol.AudioFormat{Codec: "pcm", SampleRate: 48000, Channels: 1, BitDepth: 16}
	rec.Write("a", format, []byte{1, 2})
	rec.Write("a", format, []byte{3, 4})
	rec.Write("b", format, []byte{9})
	rec.Close()

	got, err := os.ReadFile(filepath.Join(dir, recordingName("a", format)))
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("client a recording = %v", got)
	}

	got, err = os.ReadFile(filepath.Join(dir, recordingName("b", format)))
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if !bytes.Equal(got, []byte{9}) {
		t.Errorf("client b recording = %v", got)
	}
}

func TestRecorderIgnoresWritesAfterClose(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder(dir)
	rec.Close()

	rec.Write("a", protocol.AudioFormat{SampleRate: 48000, Channels: 2}, []byte{1})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files after close, got %d", len(entries))
	}
}

func TestRecordingName(t *testing.T) {
	got := recordingName("abc", protocol.AudioFormat{SampleRate: 16000, Channels: 2})
	if got != "abc-16000hz-2ch-s16le.pcm" {
		t.Errorf("recordingName = %q", got)
	}
}
