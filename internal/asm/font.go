package asm

import (
	"fmt"

	"github.com/Alia5/dat2s/internal/datafile"
)

type fontEncoder struct{}

func (fontEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern FONT %s;", sym.Name)
}

func (fontEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	f, ok := obj.Payload.(*datafile.Font)
	if !ok {
		return fmt.Errorf("%w: font has %T", ErrPayload, obj.Payload)
	}
	if err := validateFont(f); err != nil {
		return err
	}
	s.emitFont(f, sym, 0)
	return nil
}

// fontVariant names the depth-th range of a font chain. The first range keeps
// the object's own symbol, later ones are numbered from _r2.
func fontVariant(sym Symbol, depth int) Symbol {
	if depth == 0 {
		return sym
	}
	return sym.Suffix(fmt.Sprintf("_r%d", depth+1))
}

// validateFont checks the whole chain up front so a bad variant cannot leave
// half a font behind.
func validateFont(f *datafile.Font) error {
	for v := f; v != nil; v = v.Next {
		if v.End < v.Start {
			return fmt.Errorf("%w: font range 0x%04X-0x%04X is empty", ErrPayload, v.Start, v.End)
		}
		n := v.End - v.Start + 1
		if v.Mono && len(v.Glyphs) < n {
			return fmt.Errorf("%w: font range 0x%04X-0x%04X has %d glyphs", ErrPayload, v.Start, v.End, len(v.Glyphs))
		}
		if !v.Mono && len(v.Bitmaps) < n {
			return fmt.Errorf("%w: font range 0x%04X-0x%04X has %d bitmaps", ErrPayload, v.Start, v.End, len(v.Bitmaps))
		}
		if v.Mono {
			for i, g := range v.Glyphs[:n] {
				if len(g.Data) < (g.Width+7)/8*g.Height {
					return fmt.Errorf("%w: glyph 0x%04X is truncated", ErrPayload, v.Start+i)
				}
			}
		} else {
			for i, b := range v.Bitmaps[:n] {
				if len(b.Pixels) < b.Stride()*b.Height {
					return fmt.Errorf("%w: glyph 0x%04X is truncated", ErrPayload, v.Start+i)
				}
			}
		}
	}
	return nil
}

// emitFont writes the chain tail first, so the next pointer of every range
// refers to a label that is already defined.
func (s *Session) emitFont(f *datafile.Font, sym Symbol, depth int) {
	if f.Next != nil {
		s.emitFont(f.Next, sym, depth+1)
	}
	name := fontVariant(sym, depth)

	glyphs := make([]Field, 0, f.End-f.Start+1)
	for c := f.Start; c <= f.End; c++ {
		glyph := name.Suffix(fmt.Sprintf("_char_%04X", c))
		glyphs = append(glyphs, longs(Ref(glyph.Label)))

		if f.Mono {
			g := f.Glyphs[c-f.Start]
			s.Emit(Record{
				Comment: "glyph",
				Label:   glyph.Label,
				Fields: []Field{
					short(Int(g.Width), "w"),
					short(Int(g.Height), "h"),
				},
				Data: g.Data[:(g.Width+7)/8*g.Height],
			})
		} else {
			// validateFont already checked the pixel buffers.
			_ = s.EmitBitmap(f.Bitmaps[c-f.Start], glyph, false)
		}
	}

	s.Emit(Record{
		Comment: "glyph list",
		Label:   name.Suffix("_glyphs").Label,
		Fields:  glyphs,
	})

	mono := 0
	if f.Mono {
		mono = 1
	}
	next := long(Int(0), "next")
	if f.Next != nil {
		next = longs(Ref(fontVariant(sym, depth+1).Label))
	}
	s.Emit(Record{
		Comment: "font",
		Label:   name.Label,
		Global:  depth == 0,
		Fields: []Field{
			long(Int(mono), "mono"),
			long(Hex(f.Start, 4), "start"),
			long(Hex(f.End, 4), "end"),
			longs(Ref(name.Suffix("_glyphs").Label)),
			next,
			long(Int(0), "renderhook"),
			long(Int(0), "widthhook"),
			long(Int(0), "heighthook"),
			long(Int(0), "destroyhook"),
		},
	})
}
