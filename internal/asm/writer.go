package asm

import (
	"fmt"
	"io"
)

// streamWriter remembers the first write error and drops everything after
// it. The run checks Err once at the end.
type streamWriter struct {
	w   io.Writer
	n   int64
	err error
}

func newStreamWriter(w io.Writer) *streamWriter {
	if w == nil {
		return nil
	}
	return &streamWriter{w: w}
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.n += int64(n)
	if err != nil {
		s.err = err
	}
	return n, err
}

func (s *streamWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, _ = fmt.Fprintf(s, format, args...)
}

func (s *streamWriter) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

func (s *streamWriter) Written() int64 {
	if s == nil {
		return 0
	}
	return s.n
}
