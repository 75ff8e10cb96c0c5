package datafile

// Property is a typed string attached to an object. NAME is the one the
// converter cares about.
type Property struct {
	Type  Type
	Value string
}

// Object is one entry of a datafile.
type Object struct {
	Type       Type
	Size       int
	Properties []Property
	// Payload is one of *Bitmap, *Sample, *MIDI, *Font, *RLESprite,
	// *CompiledSprite, *Palette, Bundle or []byte.
	Payload any
}

// Bundle is an ordered list of objects. Order is the emission order.
type Bundle []*Object

// Property returns the value of the first property with the given type, or ""
// when absent.
func (o *Object) Property(t Type) string {
	for _, p := range o.Properties {
		if p.Type == t {
			return p.Value
		}
	}
	return ""
}

// Name is shorthand for the NAME property.
func (o *Object) Name() string {
	return o.Property(TypeName)
}

// SetProperty replaces or appends a property.
func (o *Object) SetProperty(t Type, value string) {
	for i := range o.Properties {
		if o.Properties[i].Type == t {
			o.Properties[i].Value = value
			return
		}
	}
	o.Properties = append(o.Properties, Property{Type: t, Value: value})
}

// Bytes returns the payload as raw bytes when it is a blob.
func (o *Object) Bytes() ([]byte, bool) {
	b, ok := o.Payload.([]byte)
	return b, ok
}

// Bitmap is a linear memory bitmap. Pixels holds h rows of w*BytesPerPixel
// bytes with no padding between rows.
type Bitmap struct {
	Width, Height int
	Depth         int
	Pixels        []byte
}

// BytesPerPixel rounds the color depth up to whole bytes.
func (b *Bitmap) BytesPerPixel() int {
	return (b.Depth + 7) / 8
}

// Stride is the byte distance between two rows.
func (b *Bitmap) Stride() int {
	return b.Width * b.BytesPerPixel()
}

// Sample is a digital sound.
type Sample struct {
	Bits      int
	Stereo    bool
	Freq      int
	Priority  int
	Length    int
	LoopStart int
	LoopEnd   int
	Param     int
	Data      []byte
}

// DataSize is the waveform byte length implied by the sample format.
func (s *Sample) DataSize() int {
	n := s.Length
	if s.Bits != 8 {
		n *= 2
	}
	if s.Stereo {
		n *= 2
	}
	return n
}

// MIDITracks is the fixed track count of a song.
const MIDITracks = 32

// MIDITrack is the raw event stream of one track. Nil Data means no track.
type MIDITrack struct {
	Data []byte
}

// MIDI is a song split into tracks.
type MIDI struct {
	Divisions int
	Tracks    [MIDITracks]MIDITrack
}

// Glyph is one monochrome character: Height rows of (Width+7)/8 bytes,
// most significant bit leftmost.
type Glyph struct {
	Width, Height int
	Data          []byte
}

// Font is one size variant of a font covering [Start, End]. Mono fonts use
// Glyphs, color fonts use Bitmaps. Next chains further ranges.
type Font struct {
	Mono    bool
	Start   int
	End     int
	Glyphs  []*Glyph
	Bitmaps []*Bitmap
	Next    *Font
}

// RLESprite is a run-length encoded sprite.
type RLESprite struct {
	Width, Height int
	Depth         int
	Data          []byte
}

// CompiledPlanes is the fixed plane count of a compiled sprite.
const CompiledPlanes = 4

// CompiledPlane holds the machine code of one plane. Nil Code means absent.
type CompiledPlane struct {
	Code []byte
}

// CompiledSprite is a sprite compiled into drawing code.
type CompiledSprite struct {
	Planar        bool
	Depth         int
	Width, Height int
	Planes        [CompiledPlanes]CompiledPlane
}

// PaletteSize is the number of entries of a palette.
const PaletteSize = 256

// RGB is one palette entry, components in 0..63.
type RGB struct {
	R, G, B, Filler uint8
}

// Palette is a full 256 color palette.
type Palette [PaletteSize]RGB

// Bytes lays the palette out as r, g, b, filler per entry.
func (p *Palette) Bytes() []byte {
	out := make([]byte, 0, PaletteSize*4)
	for _, c := range p {
		out = append(out, c.R, c.G, c.B, c.Filler)
	}
	return out
}
