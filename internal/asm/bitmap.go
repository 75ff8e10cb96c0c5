package asm

import (
	"fmt"

	"github.com/Alia5/dat2s/internal/datafile"
)

type bitmapEncoder struct{}

func (bitmapEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern BITMAP %s;", sym.Name)
}

func (bitmapEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	bmp, ok := obj.Payload.(*datafile.Bitmap)
	if !ok {
		return fmt.Errorf("%w: bitmap has %T", ErrPayload, obj.Payload)
	}
	return s.EmitBitmap(bmp, sym, true)
}

// EmitBitmap writes the pixel block followed by the BITMAP structure and its
// row pointer table.
func (s *Session) EmitBitmap(bmp *datafile.Bitmap, sym Symbol, global bool) error {
	size := bmp.Stride() * bmp.Height
	if len(bmp.Pixels) < size {
		return fmt.Errorf("%w: bitmap %dx%d@%d needs %d bytes, has %d",
			ErrPayload, bmp.Width, bmp.Height, bmp.Depth, size, len(bmp.Pixels))
	}
	s.NoteDepth(bmp.Depth)

	data := sym.Suffix("_data")
	s.EmitBytes(data.Label, "bitmap data", bmp.Pixels[:size], defaultAlign, false)

	fields := []Field{
		long(Int(bmp.Width), "w"),
		long(Int(bmp.Height), "h"),
		long(Int(-1), "clip"),
		long(Int(0), "cl"),
		long(Int(bmp.Width), "cr"),
		long(Int(0), "ct"),
		long(Int(bmp.Height), "cb"),
		longs(Ref(s.Extern(fmt.Sprintf("__linear_vtable%d", bmp.Depth)))),
		longs(Ref(s.Extern("_stub_bank_switch"))),
		longs(Ref(s.Extern("_stub_bank_switch"))),
		longs(Ref(data.Label)),
		long(Int(0), "bitmap_id"),
		long(Int(0), "extra"),
		long(Int(0), "x_ofs"),
		long(Int(0), "y_ofs"),
		long(Int(0), "seg"),
	}
	for row := 0; row < bmp.Height; row++ {
		fields = append(fields, longs(RefPlus(data.Label, row*bmp.Stride())))
	}

	s.Emit(Record{
		Comment: "bitmap",
		Label:   sym.Label,
		Global:  global,
		Fields:  fields,
	})
	return nil
}
