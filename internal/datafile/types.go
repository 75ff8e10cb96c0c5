// Package datafile holds the in-memory model of a grabber datafile: an ordered
// tree of typed objects with properties, as handed to the asm encoder.
package datafile

import (
	"fmt"
	"strings"
)

// Type is a four-character object tag packed big-endian into an int32.
type Type int32

// ID packs a four-character tag. Shorter tags are padded with spaces.
func ID(tag string) Type {
	var b [4]byte
	for i := range b {
		if i < len(tag) {
			b[i] = tag[i]
		} else {
			b[i] = ' '
		}
	}
	return Type(int32(b[0])<<24 | int32(b[1])<<16 | int32(b[2])<<8 | int32(b[3]))
}

var (
	TypeFile          = ID("FILE")
	TypeData          = ID("DATA")
	TypeFont          = ID("FONT")
	TypeSample        = ID("SAMP")
	TypeMIDI          = ID("MIDI")
	TypePatch         = ID("PAT ")
	TypeFLI           = ID("FLIC")
	TypeBitmap        = ID("BMP ")
	TypeRLESprite     = ID("RLE ")
	TypeCompiled      = ID("CMP ")
	TypeXCompiled     = ID("XCMP")
	TypePalette       = ID("PAL ")
	TypeProperty      = ID("prop")
	TypeName          = ID("NAME")
	TypeEnd      Type = -1
)

// Chars returns the four constituent bytes of the tag, high byte first.
func (t Type) Chars() [4]byte {
	v := uint32(t)
	return [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func (t Type) String() string {
	if t == TypeEnd {
		return "END"
	}
	c := t.Chars()
	return strings.TrimRight(string(c[:]), " ")
}

// ParseType accepts either a tag of up to four characters or a decimal/hex
// integer literal.
func ParseType(s string) (Type, error) {
	if s == "" {
		return 0, fmt.Errorf("empty type tag")
	}
	if len(s) > 4 {
		var v int64
		if _, err := fmt.Sscan(s, &v); err != nil {
			return 0, fmt.Errorf("invalid type tag %q", s)
		}
		return Type(int32(v)), nil
	}
	return ID(s), nil
}
