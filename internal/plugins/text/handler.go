// Package text compiles TXT objects into NUL-terminated C strings.
package text

import (
	"fmt"

	"github.com/Alia5/dat2s/internal/asm"
	"github.com/Alia5/dat2s/internal/datafile"
)

// Type is the tag handled by this plugin.
var Type = datafile.ID("TXT ")

func init() {
	asm.RegisterExtension(Type, &encoder{})
}

type encoder struct{}

func (e *encoder) Declaration(sym asm.Symbol) string {
	return fmt.Sprintf("extern char %s[];", sym.Name)
}

func (e *encoder) Encode(s *asm.Session, obj *datafile.Object, sym asm.Symbol) error {
	data, ok := obj.Bytes()
	if !ok {
		return fmt.Errorf("%w: text has %T", asm.ErrPayload, obj.Payload)
	}
	str := make([]byte, 0, len(data)+1)
	str = append(str, data...)
	str = append(str, 0)
	s.EmitBytes(sym.Label, "text", str, 1, true)
	return nil
}
