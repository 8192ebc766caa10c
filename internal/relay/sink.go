package relay

import (
	"errors"
	"io"
	"net/http"
	"time"
)

// Sink receives outbound text. WriteFragment must not return until the text
// has been handed to the transport; an error means the caller is gone.
type Sink interface {
	WriteFragment(text string) error
}

// WriterSink writes fragments to an io.Writer. For an http.ResponseWriter each
// write gets its own deadline, so a caller that stops reading surfaces as a
// write error instead of blocking the relay.
type WriterSink struct {
	w            io.Writer
	flusher      http.Flusher
	controller   *http.ResponseController
	writeTimeout time.Duration
}

// NewWriterSink writes fragments to w and flushes after each one when w is an
// http.Flusher. A positive writeTimeout bounds every write to an
// http.ResponseWriter.
func NewWriterSink(w io.Writer, writeTimeout time.Duration) *WriterSink {
	s := &WriterSink{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	if rw, ok := w.(http.ResponseWriter); ok && writeTimeout > 0 {
		s.controller = http.NewResponseController(rw)
		s.writeTimeout = writeTimeout
	}
	return s
}

func (s *WriterSink) WriteFragment(text string) error {
	if err := s.setDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, text); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Close clears the write deadline so a kept-alive connection can serve the
// next request.
func (s *WriterSink) Close() error {
	return s.setDeadline(time.Time{})
}

func (s *WriterSink) setDeadline(deadline time.Time) error {
	if s.controller == nil {
		return nil
	}
	err := s.controller.SetWriteDeadline(deadline)
	if errors.Is(err, http.ErrNotSupported) {
		// Recorders and some wrappers have no connection to bound
		s.controller = nil
		return nil
	}
	return err
}
