package asm

import (
	"fmt"

	"github.com/Alia5/dat2s/internal/datafile"
)

// blobEncoder writes the payload verbatim as a global byte-block. It backs
// FLI animations and every type nobody claimed.
type blobEncoder struct {
	kind string
}

func (blobEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern unsigned char %s[];", sym.Name)
}

func (e blobEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	data, ok := obj.Bytes()
	if !ok {
		return fmt.Errorf("%w: %s has %T", ErrPayload, e.kind, obj.Payload)
	}
	s.EmitBytes(sym.Label, e.kind, data, defaultAlign, true)
	return nil
}

type paletteEncoder struct{}

func (paletteEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern PALETTE %s;", sym.Name)
}

func (paletteEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	var data []byte
	switch p := obj.Payload.(type) {
	case *datafile.Palette:
		data = p.Bytes()
	case []byte:
		if len(p) != datafile.PaletteSize*4 {
			return fmt.Errorf("%w: palette is %d bytes", ErrPayload, len(p))
		}
		data = p
	default:
		return fmt.Errorf("%w: palette has %T", ErrPayload, obj.Payload)
	}
	s.EmitBytes(sym.Label, "palette", data, defaultAlign, true)
	return nil
}

// patchEncoder skips GUS patches. They are known but cannot be compiled in.
type patchEncoder struct{}

func (patchEncoder) Declaration(Symbol) string { return "" }

func (patchEncoder) Encode(s *Session, _ *datafile.Object, sym Symbol) error {
	s.Logger().Warn("Compiled GUS patch objects are not supported, skipping", "object", sym.Name)
	return nil
}
