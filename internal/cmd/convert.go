package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"golang.org/x/term"

	"github.com/Alia5/dat2s/internal/asm"
	"github.com/Alia5/dat2s/internal/loader"
	"github.com/Alia5/dat2s/internal/log"
	"github.com/Alia5/dat2s/internal/version"
)

// Convert turns a datafile manifest into an assembler source file and,
// optionally, a C header declaring its symbols.
type Convert struct {
	Input     string `arg:"" name:"inputfile" help:"Datafile manifest (.json, .jsonc, .yaml or .toml)" config:"-"`
	Output    string `short:"o" help:"Sets the output file (default stdout)" config:"-"`
	Header    string `short:"h" help:"Sets the output header file (default none)" config:"-"`
	Prefix    string `short:"p" help:"Sets the object name prefix string" env:"DAT2S_PREFIX"`
	Secret    string `help:"Sets the datafile password, '-' prompts for it" env:"DAT2S_SECRET" config:"-"`
	Target    string `help:"Assembler target (${targets})" enum:"${targets}" default:"unix" env:"DAT2S_TARGET"`
	DateEpoch int64  `name:"date-epoch" help:"Unix time written into the banners (default now)" env:"SOURCE_DATE_EPOCH"`
}

// valueFlags are the convert flags that may be given at most once, keyed by
// long name with their short alias.
var valueFlags = []struct{ long, short string }{
	{"output", "o"},
	{"header", "h"},
	{"prefix", "p"},
	{"secret", ""},
	{"target", ""},
	{"date-epoch", ""},
}

// AfterApply rejects repeated flags, which kong would otherwise silently
// resolve to the last value.
func (c *Convert) AfterApply(ctx *kong.Context) error {
	seen := map[string]bool{}
	for _, a := range ctx.Args {
		if a == "--" {
			break
		}
		name := flagName(a)
		if name == "" {
			continue
		}
		if seen[name] {
			return fmt.Errorf("--%s given more than once", name)
		}
		seen[name] = true
	}
	return nil
}

func flagName(arg string) string {
	for _, f := range valueFlags {
		if arg == "--"+f.long || strings.HasPrefix(arg, "--"+f.long+"=") {
			return f.long
		}
		if f.short != "" && !strings.HasPrefix(arg, "--") && strings.HasPrefix(arg, "-"+f.short) {
			return f.long
		}
	}
	return ""
}

// legacyFlags maps single-dash spellings kong cannot parse to their long form.
var legacyFlags = map[string]string{
	"-007":    "--secret",
	"-secret": "--secret",
}

// NormalizeArgs rewrites legacy single-dash flags so kong can parse them.
// Everything after "--" is left alone.
func NormalizeArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(a, "=")
		long, ok := legacyFlags[strings.ToLower(name)]
		if !ok {
			continue
		}
		if hasValue {
			out[i] = long + "=" + value
		} else {
			out[i] = long
		}
	}
	return out
}

// Run converts the input, writing the assembler source to the output file or
// stdout. Partial outputs are removed when anything fails.
func (c *Convert) Run(logger *slog.Logger, raw log.RawLogger) error {
	return c.run(logger, stdio{out: os.Stdout, err: os.Stderr, prompt: promptSecret, raw: raw})
}

type stdio struct {
	out    io.Writer
	err    io.Writer
	prompt func() (string, error)
	raw    log.RawLogger
}

func (c *Convert) run(logger *slog.Logger, std stdio) (err error) {
	target, err := asm.LookupTarget(c.Target)
	if err != nil {
		return err
	}

	password := c.Secret
	if password == "-" {
		if password, err = std.prompt(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	bundle, err := loader.Load(c.Input, loader.Options{Password: password, Logger: logger, Raw: std.raw})
	if err != nil {
		return fmt.Errorf("error reading %s: %w", c.Input, err)
	}
	dgst, err := fileDigest(c.Input)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", c.Input, err)
	}

	ver, err := version.Get()
	if err != nil {
		return err
	}

	// Chatter must not end up inside an assembler stream on stdout.
	msg := std.out
	if c.Output == "" {
		msg = std.err
	}

	var outputs []*outputFile
	defer func() {
		for _, o := range outputs {
			if cerr := o.close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if err == nil {
			return
		}
		for _, o := range outputs {
			if rmErr := os.Remove(o.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				logger.Warn("Failed to remove partial output", "path", o.path, "error", rmErr)
			}
		}
	}()

	var out *bufio.Writer
	if c.Output != "" {
		o, err := createOutput(c.Output)
		if err != nil {
			return err
		}
		outputs = append(outputs, o)
		out = o.w
	} else {
		out = bufio.NewWriter(std.out)
	}

	var header io.Writer
	var headerBuf *bufio.Writer
	if c.Header != "" {
		o, err := createOutput(c.Header)
		if err != nil {
			return err
		}
		outputs = append(outputs, o)
		header, headerBuf = o.w, o.w
	}

	if c.Output != "" {
		fmt.Fprintf(msg, "Converting %s to %s...\n", c.Input, c.Output)
	}

	res, err := asm.Convert(out, header, bundle, asm.Options{
		Prefix:  c.Prefix,
		Target:  target,
		Logger:  logger,
		Version: ver,
		Input:   c.Input,
		Digest:  dgst,
		Date:    c.date(),
	})
	if ferr := out.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("%w: %w", asm.ErrStream, ferr)
	}
	if headerBuf != nil {
		if ferr := headerBuf.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("%w: %w", asm.ErrStream, ferr)
		}
	}
	if err != nil {
		return err
	}

	logger.Debug("Converted datafile",
		"input", c.Input,
		"records", res.Records,
		"declarations", res.Declarations,
		"data", humanize.Bytes(uint64(res.DataBytes)),
		"header", humanize.Bytes(uint64(res.HeaderBytes)),
	)

	fmt.Fprint(msg, advisory(target, res))
	return nil
}

func (c *Convert) date() time.Time {
	if c.DateEpoch != 0 {
		return time.Unix(c.DateEpoch, 0).UTC()
	}
	return time.Now()
}

// advisory reminds the user that the data needs fixing up at runtime.
func advisory(target asm.Target, res *asm.Result) string {
	if target.Constructors {
		if !res.DeepColor {
			return ""
		}
		return "\nI noticed some truecolor images, so you must call fixup_datafile()\n" +
			"before using this data! (after setting a video mode).\n"
	}
	return "\nI don't know how to do constructor functions on this platform, so you must\n" +
		"call fixup_datafile() before using this data! (after setting a video mode).\n"
}

type outputFile struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func createOutput(path string) (*outputFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error writing %s: %w", path, err)
	}
	return &outputFile{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (o *outputFile) close() error {
	if o.f == nil {
		return nil
	}
	err := o.f.Close()
	o.f = nil
	if err != nil {
		return fmt.Errorf("error writing %s: %w", o.path, err)
	}
	return nil
}

func fileDigest(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return digest.FromReader(f)
}

func promptSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
