package asm

import (
	"fmt"
	"io"
	"log/slog"
	"text/template"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/Alia5/dat2s/internal/datafile"
)

const dataBannerTmpl = `/* Compiled data file, produced by dat2s v{{.Version}}, {{.Platform}} */
/* Input file: {{.Input}} */
{{- if .Digest}}
/* Input digest: {{.Digest}} */
{{- end}}
/* Date: {{.Date}} */
/* Do not hand edit! */

.data

`

const headerBannerTmpl = `/* Data file definitions, produced by dat2s v{{.Version}}, {{.Platform}} */
/* Input file: {{.Input}} */
{{- if .Digest}}
/* Input digest: {{.Digest}} */
{{- end}}
/* Date: {{.Date}} */
/* Do not hand edit! */

`

// constructorTmpl registers the root datafile with the runtime from a static
// constructor, on targets that run .ctor entries.
const constructorTmpl = `.text
.balign 4
{{.Ctor}}:
	pushl %ebp
	movl %esp, %ebp
	pushl ${{.Root}}
	call {{.Construct}}
	addl $4, %esp
	leave
	ret

.section .ctor
	.long {{.Ctor}}
`

var (
	dataBanner   = template.Must(template.New("data").Parse(dataBannerTmpl))
	headerBanner = template.Must(template.New("header").Parse(headerBannerTmpl))
	constructor  = template.Must(template.New("ctor").Parse(constructorTmpl))
)

type bannerData struct {
	Version  string
	Platform string
	Input    string
	Digest   digest.Digest
	Date     string
}

// Options configures Convert.
type Options struct {
	Prefix   string
	Target   Target
	Registry *Registry
	Logger   *slog.Logger

	// Version is the tool version written into the banners.
	Version string
	// Input is the input path as shown in the banners.
	Input string
	// Digest identifies the input content. Optional.
	Digest digest.Digest
	// Date is the generation time written into the banners.
	Date time.Time
}

// Result summarises a finished run.
type Result struct {
	// DeepColor is set when any image deeper than 8 bits was emitted, which
	// means the data needs fixing up after a video mode is set.
	DeepColor    bool
	Records      int
	Declarations int
	DataBytes    int64
	HeaderBytes  int64
}

// Convert writes bundle as an assembler data section to out and, when header
// is non-nil, the matching declarations to header. The returned error joins
// every encoding error and any stream fault; the result is valid either way.
func Convert(out, header io.Writer, bundle datafile.Bundle, opts Options) (*Result, error) {
	s := NewSession(out, header, SessionConfig{
		Prefix:   opts.Prefix,
		Target:   opts.Target,
		Registry: opts.Registry,
		Logger:   opts.Logger,
	})

	banner := bannerData{
		Version:  opts.Version,
		Platform: opts.Target.Platform,
		Input:    opts.Input,
		Digest:   opts.Digest,
		Date:     opts.Date.Format(time.ANSIC),
	}
	if err := dataBanner.Execute(s.out, banner); err != nil {
		return nil, fmt.Errorf("%w: data banner: %w", ErrStream, err)
	}
	if s.header != nil {
		if err := headerBanner.Execute(s.header, banner); err != nil {
			return nil, fmt.Errorf("%w: header banner: %w", ErrStream, err)
		}
	}

	root := s.Symbol(RootName)
	s.EncodeBundle(bundle, root, true)

	if s.target.Constructors {
		if err := constructor.Execute(s.out, struct{ Ctor, Root, Construct string }{
			Ctor:      s.Extern("_construct_me"),
			Root:      root.Label,
			Construct: s.Extern("_construct_datafile"),
		}); err != nil {
			s.Fail(fmt.Errorf("%w: constructor: %w", ErrStream, err))
		}
	}

	res := &Result{
		DeepColor:    s.DeepColor(),
		Records:      len(s.records),
		Declarations: len(s.declarations),
		DataBytes:    s.out.Written(),
		HeaderBytes:  s.header.Written(),
	}
	return res, s.Err()
}
