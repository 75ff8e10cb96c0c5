// Package loader builds a datafile.Bundle from a manifest and the source
// files it names.
package loader

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Alia5/dat2s/internal/datafile"
	"github.com/Alia5/dat2s/internal/log"
)

// Options configures Load.
type Options struct {
	// Password opens encrypted sources.
	Password string
	Logger   *slog.Logger
	// Raw receives every source after decryption and decompression.
	Raw log.RawLogger
}

type loader struct {
	dir      string
	password string
	logger   *slog.Logger
	raw      log.RawLogger
	// including guards against manifests including themselves.
	including map[string]bool
}

// Load reads the manifest at path and every source it references.
func Load(path string, opts Options) (datafile.Bundle, error) {
	return newLoader("", opts).loadManifest(path)
}

// LoadManifest builds a bundle from an already parsed manifest. Relative
// sources resolve against dir.
func LoadManifest(m *Manifest, dir string, opts Options) (datafile.Bundle, error) {
	return newLoader(dir, opts).bundle(m.Objects, "")
}

func newLoader(dir string, opts Options) *loader {
	l := &loader{
		dir:       dir,
		password:  opts.Password,
		logger:    opts.Logger,
		raw:       opts.Raw,
		including: map[string]bool{},
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if l.raw == nil {
		l.raw = log.NewRaw(nil)
	}
	return l
}

func (l *loader) loadManifest(path string) (datafile.Bundle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if l.including[abs] {
		return nil, fmt.Errorf("%w: %s includes itself", ErrBadManifest, path)
	}
	l.including[abs] = true
	defer delete(l.including, abs)

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	prev := l.dir
	l.dir = filepath.Dir(abs)
	defer func() { l.dir = prev }()

	l.logger.Debug("Loading manifest", "path", path, "objects", len(m.Objects))
	return l.bundle(m.Objects, "")
}

func (l *loader) bundle(specs []ObjectSpec, parent string) (datafile.Bundle, error) {
	b := make(datafile.Bundle, 0, len(specs))
	for i := range specs {
		spec := &specs[i]
		where := spec.Name
		if where == "" {
			where = fmt.Sprintf("#%d", i)
		}
		if parent != "" {
			where = parent + "/" + where
		}
		obj, err := l.object(spec, where)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", where, err)
		}
		b = append(b, obj)
	}
	return b, nil
}

func (l *loader) object(spec *ObjectSpec, where string) (*datafile.Object, error) {
	typ, err := objectType(spec)
	if err != nil {
		return nil, err
	}
	obj := &datafile.Object{Type: typ}
	if spec.Name != "" {
		obj.SetProperty(datafile.TypeName, spec.Name)
	}
	keys := make([]string, 0, len(spec.Properties))
	for k := range spec.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pt, err := datafile.ParseType(k)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: %w", ErrBadManifest, k, err)
		}
		obj.SetProperty(pt, spec.Properties[k])
	}

	if obj.Payload, err = l.payload(spec, typ, where); err != nil {
		return nil, err
	}
	obj.Size = datafile.PayloadSize(obj.Payload)
	return obj, nil
}

// objectType resolves the explicit tag or infers it from the payload block.
func objectType(spec *ObjectSpec) (datafile.Type, error) {
	if spec.Type != "" {
		t, err := datafile.ParseType(spec.Type)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrBadManifest, err)
		}
		return t, nil
	}
	var found []datafile.Type
	add := func(present bool, t datafile.Type) {
		if present {
			found = append(found, t)
		}
	}
	add(spec.Image != nil, datafile.TypeBitmap)
	add(spec.Sample != nil, datafile.TypeSample)
	add(spec.MIDI != nil, datafile.TypeMIDI)
	add(spec.Font != nil, datafile.TypeFont)
	add(spec.Sprite != nil, datafile.TypeRLESprite)
	add(spec.Compiled != nil, datafile.TypeCompiled)
	add(spec.Palette != nil, datafile.TypePalette)
	add(spec.Objects != nil || spec.Include != "", datafile.TypeFile)
	switch len(found) {
	case 0:
		return datafile.TypeData, nil
	case 1:
		return found[0], nil
	default:
		return 0, fmt.Errorf("%w: object %q has several payload blocks, set its type", ErrBadManifest, spec.Name)
	}
}

func (l *loader) payload(spec *ObjectSpec, typ datafile.Type, where string) (any, error) {
	switch typ {
	case datafile.TypeFile:
		if spec.Include != "" {
			path := spec.Include
			if !filepath.IsAbs(path) {
				path = filepath.Join(l.dir, path)
			}
			return l.loadManifest(path)
		}
		return l.bundle(spec.Objects, where)

	case datafile.TypeFont:
		fs := spec.Font
		if fs == nil {
			fs = &FontSpec{}
		}
		return buildFont(fs)

	case datafile.TypeCompiled, datafile.TypeXCompiled:
		return l.compiled(spec)
	}

	data, err := l.readSource(spec, spec.Source)
	if err != nil {
		return nil, err
	}
	kind := strings.ToLower(filepath.Ext(payloadPath(spec.Source)))

	switch typ {
	case datafile.TypeBitmap:
		img, _, err := decodeImage(data)
		if err != nil {
			return nil, err
		}
		depth := 8
		if spec.Image != nil && spec.Image.Depth != 0 {
			depth = spec.Image.Depth
		}
		return toBitmap(img, depth)

	case datafile.TypeRLESprite:
		img, _, err := decodeImage(data)
		if err != nil {
			return nil, err
		}
		depth := 8
		if spec.Sprite != nil && spec.Sprite.Depth != 0 {
			depth = spec.Sprite.Depth
		}
		bmp, err := toBitmap(img, depth)
		if err != nil {
			return nil, err
		}
		return encodeRLE(bmp)

	case datafile.TypeSample:
		return loadSample(data, spec.Sample, kind == ".wav")

	case datafile.TypeMIDI:
		maxTracks := 0
		if spec.MIDI != nil {
			maxTracks = spec.MIDI.MaxTracks
		}
		return parseMIDI(data, maxTracks)

	case datafile.TypePalette:
		return toPalette(data)

	default:
		return data, nil
	}
}

func (l *loader) compiled(spec *ObjectSpec) (*datafile.CompiledSprite, error) {
	cs := spec.Compiled
	if cs == nil {
		return nil, fmt.Errorf("%w: compiled sprite %q needs a compiled block", ErrBadManifest, spec.Name)
	}
	if len(cs.Planes) > datafile.CompiledPlanes {
		return nil, fmt.Errorf("%w: compiled sprite has %d planes, at most %d", ErrBadManifest, len(cs.Planes), datafile.CompiledPlanes)
	}
	spr := &datafile.CompiledSprite{Planar: cs.Planar, Depth: cs.Depth, Width: cs.Width, Height: cs.Height}
	if spr.Depth == 0 {
		spr.Depth = 8
	}
	for i, src := range cs.Planes {
		if src == "" {
			continue
		}
		code, err := l.readSource(spec, src)
		if err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
		spr.Planes[i].Code = code
	}
	return spr, nil
}
