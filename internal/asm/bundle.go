package asm

import (
	"fmt"

	"github.com/Alia5/dat2s/internal/datafile"
)

type bundleEncoder struct{}

func (bundleEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern DATAFILE %s[];", sym.Name)
}

func (bundleEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	b, ok := obj.Payload.(datafile.Bundle)
	if !ok {
		return fmt.Errorf("%w: datafile has %T", ErrPayload, obj.Payload)
	}
	s.EncodeBundle(b, sym, false)
	return nil
}

// EncodeBundle encodes every child of b depth first and then the DATAFILE
// table for b itself. Top-level children also get a header declaration.
// Child failures are recorded on the session and do not stop the walk.
func (s *Session) EncodeBundle(b datafile.Bundle, sym Symbol, top bool) {
	children := make([]Symbol, len(b))
	for i, obj := range b {
		children[i] = s.ChildSymbol(sym, obj, i)
		enc := s.registry.encoderFor(obj.Type)
		if top {
			s.Declare(enc.Declaration(children[i]))
		}
		s.logger.Debug("Encoding object", "symbol", children[i].Name, "type", obj.Type.String(), "size", obj.Size)
		if err := enc.Encode(s, obj, children[i]); err != nil {
			s.Fail(fmt.Errorf("%s: %w", children[i].Name, err))
		}
	}

	fields := make([]Field, 0, 4*(len(b)+1))
	for i, obj := range b {
		c := obj.Type.Chars()
		fields = append(fields,
			longs(Ref(children[i].Label)),
			long(Int(int(obj.Type)), fmt.Sprintf("%c%c%c%c", c[0], c[1], c[2], c[3])),
			long(Int(obj.Size), "size"),
			long(Int(0), "properties"),
		)
	}
	fields = append(fields,
		longs(Int(0)),
		longs(Int(int(datafile.TypeEnd))),
		longs(Int(0)),
		longs(Int(0)),
	)

	s.Emit(Record{
		Comment: "datafile",
		Label:   sym.Label,
		Global:  true,
		Fields:  fields,
	})
}
