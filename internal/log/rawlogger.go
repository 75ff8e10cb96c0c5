package log

import (
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

// RawLogger records the decoded bytes of every source the loader reads,
// after decryption and decompression.
type RawLogger interface {
	Log(source string, data []byte)
}

type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log writes a header line followed by a canonical hex dump of data.
func (r *rawLogger) Log(source string, data []byte) {
	if r.w == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, "%s: %d bytes\n", source, len(data))
	if len(data) == 0 {
		return
	}
	d := hex.Dumper(r.w)
	_, _ = d.Write(data)
	_ = d.Close()
}
