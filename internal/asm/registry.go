package asm

import (
	"sync"

	"github.com/Alia5/dat2s/internal/datafile"
)

// Encoder turns one object into records.
type Encoder interface {
	// Encode emits the object under sym. An error means nothing structural
	// was emitted for the object; the walk carries on with its siblings.
	Encode(s *Session, obj *datafile.Object, sym Symbol) error
	// Declaration is the C header line for a top-level object named sym, or
	// "" when the object gets none.
	Declaration(sym Symbol) string
}

type registration struct {
	tag datafile.Type
	enc Encoder
}

// Registry maps type tags to encoders. Lookups scan in registration order and
// the first match wins, so built-ins shadow extensions for the same tag.
type Registry struct {
	entries []registration
}

// NewRegistry returns a registry holding only the built-in encoders.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(datafile.TypeFont, fontEncoder{})
	r.Register(datafile.TypeBitmap, bitmapEncoder{})
	r.Register(datafile.TypePalette, paletteEncoder{})
	r.Register(datafile.TypeSample, sampleEncoder{})
	r.Register(datafile.TypeMIDI, midiEncoder{})
	r.Register(datafile.TypePatch, patchEncoder{})
	r.Register(datafile.TypeRLESprite, rleEncoder{})
	r.Register(datafile.TypeFLI, blobEncoder{kind: "FLI/FLC animation"})
	r.Register(datafile.TypeCompiled, compiledEncoder{})
	r.Register(datafile.TypeXCompiled, compiledEncoder{})
	r.Register(datafile.TypeFile, bundleEncoder{})
	return r
}

// Register appends an encoder for tag.
func (r *Registry) Register(tag datafile.Type, enc Encoder) {
	r.entries = append(r.entries, registration{tag: tag, enc: enc})
}

// Lookup returns the first encoder registered for tag.
func (r *Registry) Lookup(tag datafile.Type) (Encoder, bool) {
	for _, e := range r.entries {
		if e.tag == tag {
			return e.enc, true
		}
	}
	return nil, false
}

// encoderFor falls back to the raw blob rule for unclaimed tags.
func (r *Registry) encoderFor(tag datafile.Type) Encoder {
	if enc, ok := r.Lookup(tag); ok {
		return enc
	}
	return blobEncoder{kind: "binary data"}
}

var (
	extensions   []registration
	extensionsMu sync.RWMutex
)

// RegisterExtension registers an encoder for a non built-in type. It is meant
// to be called from plugin package init() functions.
func RegisterExtension(tag datafile.Type, enc Encoder) {
	extensionsMu.Lock()
	defer extensionsMu.Unlock()
	extensions = append(extensions, registration{tag: tag, enc: enc})
}

// DefaultRegistry returns the built-ins followed by every registered
// extension.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	extensionsMu.RLock()
	defer extensionsMu.RUnlock()
	for _, e := range extensions {
		r.Register(e.tag, e.enc)
	}
	return r
}
