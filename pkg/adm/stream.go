// ABOUTME: io.Writer and io.Reader views of the session's pump
// ABOUTME: Lets stream-oriented drivers feed and drain a session directly
package adm

// RecordingWriter returns a writer whose Write pumps into the recording
// buffer. Each Write is all-or-nothing.
func (s *Session) RecordingWriter() *RecordingWriter {
	return &RecordingWriter{s: s}
}

// PlayoutReader returns a reader whose Read fills p completely from the
// playout buffer. It never returns io.EOF.
func (s *Session) PlayoutReader() *PlayoutReader {
	return &PlayoutReader{s: s}
}

// RecordingWriter adapts Session.DataIsRecorded to io.Writer.
type RecordingWriter struct {
	s *Session
}

func (w *RecordingWriter) Write(p []byte) (int, error) {
	if err := w.s.DataIsRecorded(p, 0, len(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// PlayoutReader adapts Session.GetPlayoutData to io.Reader.
type PlayoutReader struct {
	s *Session
}

func (r *PlayoutReader) Read(p []byte) (int, error) {
	if err := r.s.GetPlayoutData(p, 0, len(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
