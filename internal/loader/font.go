package loader

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Alia5/dat2s/internal/datafile"
)

var faces = map[string]*basicfont.Face{
	"7x13": basicfont.Face7x13,
}

var defaultFontRanges = []FontRange{{Start: 0x20, End: 0x7E}}

// buildFont renders every range of spec into a chain of font variants.
func buildFont(spec *FontSpec) (*datafile.Font, error) {
	name := spec.Face
	if name == "" {
		name = "7x13"
	}
	face, ok := faces[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown font face %q", ErrBadManifest, name)
	}
	if spec.Color < 0 || spec.Color > 255 {
		return nil, fmt.Errorf("%w: font color %d is not a palette index", ErrBadManifest, spec.Color)
	}
	ranges := spec.Ranges
	if len(ranges) == 0 {
		ranges = defaultFontRanges
	}

	var head, tail *datafile.Font
	for _, r := range ranges {
		if r.End < r.Start || r.Start < 0 {
			return nil, fmt.Errorf("%w: font range %#x-%#x is empty", ErrBadManifest, r.Start, r.End)
		}
		f := &datafile.Font{Mono: spec.Color == 0, Start: r.Start, End: r.End}
		for c := r.Start; c <= r.End; c++ {
			mask, err := renderGlyph(face, rune(c))
			if err != nil {
				return nil, err
			}
			if f.Mono {
				f.Glyphs = append(f.Glyphs, monoGlyph(mask))
			} else {
				f.Bitmaps = append(f.Bitmaps, colorGlyph(mask, uint8(spec.Color)))
			}
		}
		if head == nil {
			head = f
		} else {
			tail.Next = f
		}
		tail = f
	}
	return head, nil
}

// renderGlyph returns the coverage of one character as rows of booleans.
func renderGlyph(face font.Face, r rune) ([][]bool, error) {
	ascent := face.Metrics().Ascent.Ceil()
	dr, mask, maskp, _, ok := face.Glyph(fixed.P(0, ascent), r)
	if !ok && mask == nil {
		return nil, fmt.Errorf("%w: face has no glyph for %#x", ErrSource, r)
	}
	rows := make([][]bool, dr.Dy())
	for y := range rows {
		rows[y] = make([]bool, dr.Dx())
		for x := range rows[y] {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			rows[y][x] = a >= 0x8000
		}
	}
	return rows, nil
}

func monoGlyph(rows [][]bool) *datafile.Glyph {
	g := &datafile.Glyph{Height: len(rows)}
	if len(rows) > 0 {
		g.Width = len(rows[0])
	}
	pitch := (g.Width + 7) / 8
	g.Data = make([]byte, pitch*g.Height)
	for y, row := range rows {
		for x, set := range row {
			if set {
				g.Data[y*pitch+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return g
}

func colorGlyph(rows [][]bool, color uint8) *datafile.Bitmap {
	b := &datafile.Bitmap{Height: len(rows), Depth: 8}
	if len(rows) > 0 {
		b.Width = len(rows[0])
	}
	b.Pixels = make([]byte, b.Width*b.Height)
	for y, row := range rows {
		for x, set := range row {
			if set {
				b.Pixels[y*b.Width+x] = color
			}
		}
	}
	return b
}
