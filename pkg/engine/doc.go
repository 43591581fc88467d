// Package engine is the buffer-owning half of an adm backend.
//
// It sizes each direction's buffer as 10ms of 16-bit PCM at the negotiated
// rate, hands every full recording buffer to a Sink and refills every
// drained playout buffer from an io.Reader, playing silence when the reader
// runs short.
package engine
