package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/Alia5/dat2s/internal/loader"
)

// Seal prepares a source file for an encrypted manifest entry. The data is
// compressed first, so the entry's compression setting must match.
type Seal struct {
	Input       string `arg:"" name:"source" help:"Plain source file" type:"existingfile"`
	Output      string `arg:"" name:"dest" help:"Sealed file to write" type:"path"`
	Secret      string `required:"" help:"Password, '-' prompts for it" env:"DAT2S_SECRET"`
	Compression string `help:"Compress before sealing" enum:"none,zstd,lz4" default:"none"`
	Force       bool   `help:"Overwrite if the destination already exists"`
}

func (s *Seal) Run(logger *slog.Logger) error {
	return s.run(logger, stdio{out: os.Stdout, err: os.Stderr, prompt: promptSecret})
}

func (s *Seal) run(logger *slog.Logger, std stdio) error {
	password := s.Secret
	if password == "-" {
		var err error
		if password, err = std.prompt(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if password == "" {
		return loader.ErrPasswordRequired
	}
	comp, err := loader.ParseCompression(s.Compression, s.Input)
	if err != nil {
		return err
	}

	if !s.Force {
		if _, err := os.Stat(s.Output); err == nil {
			return fmt.Errorf("%s exists; use --force to overwrite", s.Output)
		}
	}

	plain, err := os.ReadFile(s.Input)
	if err != nil {
		return err
	}
	packed, err := loader.Compress(plain, comp)
	if err != nil {
		return err
	}
	sealed, err := loader.Seal(packed, password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Output, sealed, 0o644); err != nil {
		return err
	}

	logger.Debug("Sealed source", "source", s.Input, "dest", s.Output, "compression", comp)
	fmt.Fprintf(std.out, "Sealed %s to %s (%s -> %s)\n", s.Input, s.Output,
		humanize.Bytes(uint64(len(plain))), humanize.Bytes(uint64(len(sealed))))
	return nil
}
