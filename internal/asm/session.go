package asm

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Alia5/dat2s/internal/datafile"
)

// RootName is the path of the outermost datafile.
const RootName = "data"

// defaultAlign is the .balign used for every record.
const defaultAlign = 4

// Symbol names one emitted object in its three spellings.
type Symbol struct {
	// Path is the unprefixed name, e.g. "data_img".
	Path string
	// Name carries the user prefix and is what C code sees, e.g. "x_data_img".
	Name string
	// Label additionally carries the target's assembler prefix.
	Label string
}

// Suffix derives a related symbol such as sym_data or sym_plane_0.
func (s Symbol) Suffix(suffix string) Symbol {
	return Symbol{Path: s.Path + suffix, Name: s.Name + suffix, Label: s.Label + suffix}
}

// Session carries the state of one conversion run. It is not safe for
// concurrent use; one session writes one pair of streams.
type Session struct {
	out      *streamWriter
	header   *streamWriter
	prefix   string
	target   Target
	registry *Registry
	logger   *slog.Logger

	records      []Record
	declarations []string
	deepColor    bool
	errs         []error
}

// SessionConfig configures NewSession.
type SessionConfig struct {
	// Prefix is the user symbol prefix; see NormalizePrefix.
	Prefix   string
	Target   Target
	Registry *Registry
	Logger   *slog.Logger
}

// NewSession binds a session to its output streams. header may be nil.
func NewSession(out, header io.Writer, cfg SessionConfig) *Session {
	reg := cfg.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if out == nil {
		out = io.Discard
	}
	return &Session{
		out:      newStreamWriter(out),
		header:   newStreamWriter(header),
		prefix:   NormalizePrefix(cfg.Prefix),
		target:   cfg.Target,
		registry: reg,
		logger:   logger,
	}
}

// NormalizePrefix makes a non-empty prefix end in an underscore.
func NormalizePrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "_") {
		return prefix + "_"
	}
	return prefix
}

// SanitizeName lowercases name and replaces anything that is not a valid
// identifier character with an underscore.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Symbol builds the symbol for an unprefixed path.
func (s *Session) Symbol(path string) Symbol {
	name := s.prefix + path
	return Symbol{Path: path, Name: name, Label: s.target.SymbolPrefix + name}
}

// ChildSymbol derives the symbol of the index-th child of parent.
func (s *Session) ChildSymbol(parent Symbol, obj *datafile.Object, index int) Symbol {
	name := SanitizeName(obj.Name())
	if name == "" {
		name = fmt.Sprintf("entry_%d", index)
	}
	return s.Symbol(parent.Path + "_" + name)
}

// Extern prefixes a runtime symbol with the target's assembler prefix.
func (s *Session) Extern(name string) string {
	return s.target.SymbolPrefix + name
}

func (s *Session) Target() Target { return s.target }

func (s *Session) Logger() *slog.Logger { return s.logger }

// Out is the data section stream, for extensions that write directly.
func (s *Session) Out() io.Writer { return s.out }

// Records lists every record emitted through Emit, in order.
func (s *Session) Records() []Record { return s.records }

// Declarations lists every header line written through Declare.
func (s *Session) Declarations() []string { return s.declarations }

// Header returns the declaration stream, if one is configured.
func (s *Session) Header() (io.Writer, bool) {
	if s.header == nil {
		return nil, false
	}
	return s.header, true
}

// Emit writes a record to the data section.
func (s *Session) Emit(r Record) {
	if r.Align == 0 {
		r.Align = defaultAlign
	}
	s.records = append(s.records, r)
	writeRecord(s.out, &s.records[len(s.records)-1])
}

// EmitBytes writes a byte-block.
func (s *Session) EmitBytes(label, kind string, data []byte, align int, global bool) {
	s.Emit(Record{
		Comment: fmt.Sprintf("%s (%d bytes)", kind, len(data)),
		Label:   label,
		Global:  global,
		Align:   align,
		Data:    data,
	})
}

// Declare appends one line to the header stream. It is a no-op without one.
func (s *Session) Declare(decl string) {
	if s.header == nil || decl == "" {
		return
	}
	s.declarations = append(s.declarations, decl)
	s.header.printf("%s\n", decl)
}

// NoteDepth records that an image of the given color depth was emitted.
func (s *Session) NoteDepth(depth int) {
	if depth > 8 {
		s.deepColor = true
	}
}

// DeepColor reports whether any image deeper than 8 bits was emitted.
func (s *Session) DeepColor() bool {
	return s.deepColor
}

// Fail records an encoding error. The walk continues.
func (s *Session) Fail(err error) {
	s.logger.Error("Encoding failed", "error", err)
	s.errs = append(s.errs, err)
}

// Err joins every encoding error and stream fault seen so far.
func (s *Session) Err() error {
	errs := append([]error(nil), s.errs...)
	if err := s.out.Err(); err != nil {
		errs = append(errs, fmt.Errorf("%w: data: %w", ErrStream, err))
	}
	if err := s.header.Err(); err != nil {
		errs = append(errs, fmt.Errorf("%w: header: %w", ErrStream, err))
	}
	return errors.Join(errs...)
}
