package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Manifest describes a bundle: an ordered list of objects whose payloads are
// built from source files next to the manifest.
type Manifest struct {
	Objects []ObjectSpec `json:"objects" yaml:"objects" toml:"objects"`
}

// ObjectSpec is one manifest entry. Type may be omitted when exactly one of
// the payload blocks is present.
type ObjectSpec struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`

	// Source is read relative to the manifest directory.
	Source      string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty" toml:"compression,omitempty"`
	Encrypted   bool   `json:"encrypted,omitempty" yaml:"encrypted,omitempty" toml:"encrypted,omitempty"`

	// Properties maps a property tag such as "AUTH" to its value.
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`

	Image    *ImageSpec    `json:"image,omitempty" yaml:"image,omitempty" toml:"image,omitempty"`
	Sample   *SampleSpec   `json:"sample,omitempty" yaml:"sample,omitempty" toml:"sample,omitempty"`
	MIDI     *MIDISpec     `json:"midi,omitempty" yaml:"midi,omitempty" toml:"midi,omitempty"`
	Font     *FontSpec     `json:"font,omitempty" yaml:"font,omitempty" toml:"font,omitempty"`
	Sprite   *SpriteSpec   `json:"sprite,omitempty" yaml:"sprite,omitempty" toml:"sprite,omitempty"`
	Compiled *CompiledSpec `json:"compiled,omitempty" yaml:"compiled,omitempty" toml:"compiled,omitempty"`
	Palette  *PaletteSpec  `json:"palette,omitempty" yaml:"palette,omitempty" toml:"palette,omitempty"`

	// Objects makes the entry a nested datafile.
	Objects []ObjectSpec `json:"objects,omitempty" yaml:"objects,omitempty" toml:"objects,omitempty"`
	// Include loads another manifest as a nested datafile.
	Include string `json:"include,omitempty" yaml:"include,omitempty" toml:"include,omitempty"`
}

// ImageSpec converts an image source into a BMP object.
type ImageSpec struct {
	// Depth is one of 8, 15, 16, 24 or 32. 8 needs a paletted source.
	Depth int `json:"depth,omitempty" yaml:"depth,omitempty" toml:"depth,omitempty"`
}

// SampleSpec describes raw PCM sources. WAV sources carry their own format
// and only use Priority and the loop points.
type SampleSpec struct {
	Bits      int  `json:"bits,omitempty" yaml:"bits,omitempty" toml:"bits,omitempty"`
	Stereo    bool `json:"stereo,omitempty" yaml:"stereo,omitempty" toml:"stereo,omitempty"`
	Freq      int  `json:"freq,omitempty" yaml:"freq,omitempty" toml:"freq,omitempty"`
	Priority  int  `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	LoopStart int  `json:"loop_start,omitempty" yaml:"loop_start,omitempty" toml:"loop_start,omitempty"`
	LoopEnd   int  `json:"loop_end,omitempty" yaml:"loop_end,omitempty" toml:"loop_end,omitempty"`
	Param     *int `json:"param,omitempty" yaml:"param,omitempty" toml:"param,omitempty"`
}

// MIDISpec marks a Standard MIDI File source.
type MIDISpec struct {
	// MaxTracks rejects files with more tracks than this. Defaults to 32.
	MaxTracks int `json:"max_tracks,omitempty" yaml:"max_tracks,omitempty" toml:"max_tracks,omitempty"`
}

// FontSpec renders glyphs from a built-in face.
type FontSpec struct {
	// Face names the built-in face. Only "7x13" exists.
	Face   string      `json:"face,omitempty" yaml:"face,omitempty" toml:"face,omitempty"`
	Ranges []FontRange `json:"ranges,omitempty" yaml:"ranges,omitempty" toml:"ranges,omitempty"`
	// Color, when non-zero, renders an 8-bit color font using this palette
	// index for set pixels.
	Color int `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
}

// FontRange is an inclusive code point range.
type FontRange struct {
	Start int `json:"start" yaml:"start" toml:"start"`
	End   int `json:"end" yaml:"end" toml:"end"`
}

// SpriteSpec converts an image source into an RLE sprite.
type SpriteSpec struct {
	Depth int `json:"depth,omitempty" yaml:"depth,omitempty" toml:"depth,omitempty"`
}

// CompiledSpec assembles a compiled sprite from per-plane machine code files.
type CompiledSpec struct {
	Planar bool     `json:"planar,omitempty" yaml:"planar,omitempty" toml:"planar,omitempty"`
	Depth  int      `json:"depth,omitempty" yaml:"depth,omitempty" toml:"depth,omitempty"`
	Width  int      `json:"width" yaml:"width" toml:"width"`
	Height int      `json:"height" yaml:"height" toml:"height"`
	Planes []string `json:"planes" yaml:"planes" toml:"planes"`
}

// PaletteSpec reads a palette from a paletted image or a raw 768 byte RGB
// table.
type PaletteSpec struct{}

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the manifest format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: unknown manifest extension %q", ErrBadManifest, filepath.Ext(path))
	}
}

// ParseManifest decodes a manifest. JSON input may carry comments and
// trailing commas.
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(jsonc.ToJSON(data), &m)
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrBadManifest, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadManifest, err)
	}
	return &m, nil
}
