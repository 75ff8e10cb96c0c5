package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/Alia5/dat2s/internal/datafile"
)

// Mask colors mark transparent pixels, per color depth.
const (
	maskColor8  = 0
	maskColor15 = 0x7C1F
	maskColor16 = 0xF81F
	maskColor32 = 0xFF00FF
)

func decodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image: %w", ErrSource, err)
	}
	return img, format, nil
}

// toBitmap converts img to a linear bitmap of the given depth. Pixels with
// zero alpha become the mask color of deep color bitmaps.
func toBitmap(img image.Image, depth int) (*datafile.Bitmap, error) {
	b := img.Bounds()
	bmp := &datafile.Bitmap{Width: b.Dx(), Height: b.Dy(), Depth: depth}
	switch depth {
	case 8, 15, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: unsupported color depth %d", ErrBadManifest, depth)
	}
	bmp.Pixels = make([]byte, 0, bmp.Stride()*bmp.Height)

	if depth == 8 {
		pal, ok := img.(*image.Paletted)
		if !ok {
			return nil, fmt.Errorf("%w: 8 bit bitmaps need a paletted image, got %T", ErrSource, img)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := pal.PixOffset(b.Min.X, y)
			bmp.Pixels = append(bmp.Pixels, pal.Pix[off:off+bmp.Width]...)
		}
		return bmp, nil
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			bmp.Pixels = appendPixel(bmp.Pixels, c, depth)
		}
	}
	return bmp, nil
}

func appendPixel(dst []byte, c color.NRGBA, depth int) []byte {
	transparent := c.A == 0
	switch depth {
	case 15:
		v := uint16(c.R>>3)<<10 | uint16(c.G>>3)<<5 | uint16(c.B>>3)
		if transparent {
			v = maskColor15
		}
		return binary.LittleEndian.AppendUint16(dst, v)
	case 16:
		v := uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
		if transparent {
			v = maskColor16
		}
		return binary.LittleEndian.AppendUint16(dst, v)
	case 24:
		if transparent {
			return append(dst, 0xFF, 0x00, 0xFF)
		}
		return append(dst, c.B, c.G, c.R)
	default:
		if transparent {
			return binary.LittleEndian.AppendUint32(dst, maskColor32)
		}
		return append(dst, c.B, c.G, c.R, c.A)
	}
}

// toPalette extracts a VGA palette (6 bit components) from a paletted image
// or a raw table of 768 RGB bytes.
func toPalette(data []byte) (*datafile.Palette, error) {
	var pal datafile.Palette
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		p, ok := img.(*image.Paletted)
		if !ok {
			return nil, fmt.Errorf("%w: palette image is not paletted", ErrSource)
		}
		for i, c := range p.Palette {
			if i >= datafile.PaletteSize {
				break
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			pal[i] = datafile.RGB{R: n.R >> 2, G: n.G >> 2, B: n.B >> 2}
		}
		return &pal, nil
	}

	if len(data) != datafile.PaletteSize*3 {
		return nil, fmt.Errorf("%w: raw palette must be %d bytes, got %d", ErrSource, datafile.PaletteSize*3, len(data))
	}
	for i := range pal {
		pal[i] = datafile.RGB{R: data[3*i] >> 2, G: data[3*i+1] >> 2, B: data[3*i+2] >> 2}
	}
	return &pal, nil
}

// encodeRLE run-length encodes a bitmap. Each row is a series of runs: a
// positive count followed by that many solid pixels, or a negative count of
// transparent pixels to skip. The row ends with the mask color. Counts use
// the pixel size of the depth.
func encodeRLE(bmp *datafile.Bitmap) (*datafile.RLESprite, error) {
	var (
		bpp      = bmp.BytesPerPixel()
		maxRun   int
		putCount func([]byte, int) []byte
		eol      []byte
		isMask   func([]byte) bool
	)
	switch bmp.Depth {
	case 8:
		maxRun = 127
		putCount = func(b []byte, n int) []byte { return append(b, byte(int8(n))) }
		eol = []byte{maskColor8}
		isMask = func(p []byte) bool { return p[0] == maskColor8 }
	case 15, 16:
		mask := uint16(maskColor15)
		if bmp.Depth == 16 {
			mask = maskColor16
		}
		maxRun = 32767
		putCount = func(b []byte, n int) []byte { return binary.LittleEndian.AppendUint16(b, uint16(int16(n))) }
		eol = binary.LittleEndian.AppendUint16(nil, mask)
		isMask = func(p []byte) bool { return binary.LittleEndian.Uint16(p) == mask }
	case 32:
		maxRun = 1<<31 - 1
		putCount = func(b []byte, n int) []byte { return binary.LittleEndian.AppendUint32(b, uint32(int32(n))) }
		eol = binary.LittleEndian.AppendUint32(nil, maskColor32)
		isMask = func(p []byte) bool { return binary.LittleEndian.Uint32(p)&0xFFFFFF == maskColor32 }
	default:
		return nil, fmt.Errorf("%w: RLE sprites support 8, 15, 16 and 32 bit, got %d", ErrBadManifest, bmp.Depth)
	}

	stride := bmp.Stride()
	var out []byte
	for y := 0; y < bmp.Height; y++ {
		row := bmp.Pixels[y*stride : (y+1)*stride]
		pixel := func(x int) []byte { return row[x*bpp : (x+1)*bpp] }

		for x := 0; x < bmp.Width; {
			masked := isMask(pixel(x))
			n := 1
			for x+n < bmp.Width && n < maxRun && isMask(pixel(x+n)) == masked {
				n++
			}
			if masked {
				out = putCount(out, -n)
			} else {
				out = putCount(out, n)
				out = append(out, row[x*bpp:(x+n)*bpp]...)
			}
			x += n
		}
		out = append(out, eol...)
	}

	return &datafile.RLESprite{Width: bmp.Width, Height: bmp.Height, Depth: bmp.Depth, Data: out}, nil
}
