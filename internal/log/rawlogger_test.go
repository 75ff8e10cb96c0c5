package log

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	r := NewRaw(&buf)
	r.Log("img.png", []byte("ABC"))
	r.Log("empty.bin", nil)

	assert.Equal(t, "img.png: 3 bytes\n"+hex.Dump([]byte("ABC"))+"empty.bin: 0 bytes\n", buf.String())
}

func TestRawLoggerNil(t *testing.T) {
	assert.NotPanics(t, func() { NewRaw(nil).Log("x", []byte{1}) })
}
