package datafile

// PayloadSize is the size recorded in a datafile table for a payload: the
// byte length of its data, or the sum over the children of a bundle.
func PayloadSize(payload any) int {
	switch p := payload.(type) {
	case []byte:
		return len(p)
	case *Bitmap:
		return p.Stride() * p.Height
	case *Sample:
		return p.DataSize()
	case *MIDI:
		n := 0
		for _, t := range p.Tracks {
			n += len(t.Data)
		}
		return n
	case *Font:
		n := 0
		for f := p; f != nil; f = f.Next {
			for _, g := range f.Glyphs {
				n += len(g.Data)
			}
			for _, b := range f.Bitmaps {
				n += b.Stride() * b.Height
			}
		}
		return n
	case *RLESprite:
		return len(p.Data)
	case *CompiledSprite:
		n := 0
		for _, pl := range p.Planes {
			n += len(pl.Code)
		}
		return n
	case *Palette:
		return PaletteSize * 4
	case Bundle:
		n := 0
		for _, o := range p {
			n += o.Size
		}
		return n
	default:
		return 0
	}
}
