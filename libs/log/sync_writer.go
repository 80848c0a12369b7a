package log

import (
	"io"
	"sync"
)

// syncWriter serializes writes so that log lines from concurrent goroutines
// are not interleaved.
type syncWriter struct {
	mtx sync.Mutex
	w   io.Writer
}

func newSyncWriter(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.w.Write(p)
}
