package asm

import (
	"fmt"

	"github.com/Alia5/dat2s/internal/datafile"
)

type rleEncoder struct{}

func (rleEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern RLE_SPRITE %s;", sym.Name)
}

func (rleEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	spr, ok := obj.Payload.(*datafile.RLESprite)
	if !ok {
		return fmt.Errorf("%w: rle sprite has %T", ErrPayload, obj.Payload)
	}
	s.NoteDepth(spr.Depth)

	s.Emit(Record{
		Comment: "RLE sprite",
		Label:   sym.Label,
		Global:  true,
		Fields: []Field{
			long(Int(spr.Width), "w"),
			long(Int(spr.Height), "h"),
			long(Int(spr.Depth), "color depth"),
			long(Int(len(spr.Data)), "size"),
		},
		Data: spr.Data,
	})
	return nil
}

type compiledEncoder struct{}

func (compiledEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern COMPILED_SPRITE %s;", sym.Name)
}

func (compiledEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	spr, ok := obj.Payload.(*datafile.CompiledSprite)
	if !ok {
		return fmt.Errorf("%w: compiled sprite has %T", ErrPayload, obj.Payload)
	}
	if spr.Depth != 8 {
		return fmt.Errorf("%w (%s, %d bpp)", ErrUnsupportedDepth, sym.Name, spr.Depth)
	}

	for i, p := range spr.Planes {
		if p.Code != nil {
			s.EmitBytes(sym.Suffix(fmt.Sprintf("_plane_%d", i)).Label, "compiled sprite code", p.Code, defaultAlign, false)
		}
	}

	planar := 0
	if spr.Planar {
		planar = 1
	}
	fields := []Field{
		short(Int(planar), "planar"),
		short(Int(spr.Depth), "color depth"),
		short(Int(spr.Width), "w"),
		short(Int(spr.Height), "h"),
	}
	for i, p := range spr.Planes {
		if p.Code != nil {
			fields = append(fields,
				longs(Ref(sym.Suffix(fmt.Sprintf("_plane_%d", i)).Label)),
				long(Int(len(p.Code)), "len"))
		} else {
			fields = append(fields,
				longs(Int(0)),
				long(Int(0), "len"))
		}
	}

	s.Emit(Record{
		Comment: "compiled sprite",
		Label:   sym.Label,
		Global:  true,
		Fields:  fields,
	})
	return nil
}
