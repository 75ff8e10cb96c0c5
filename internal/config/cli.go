// Package config holds the command line grammar of dat2s.
package config

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Alia5/dat2s/internal/asm"
	"github.com/Alia5/dat2s/internal/cmd"
	"github.com/Alia5/dat2s/internal/version"
)

// CLI is the root command.
type CLI struct {
	Log        LogConfig        `embed:"" prefix:"log."`
	ConfigFile string           `name:"config" help:"Configuration file (.json, .yaml or .toml)" type:"path" env:"DAT2S_CONFIG"`
	Help       HelpFlag         `help:"Show context-sensitive help."`
	Version    kong.VersionFlag `help:"Print version information and quit."`

	Convert cmd.Convert       `cmd:"" default:"withargs" help:"Convert a datafile manifest to assembler source"`
	Seal    cmd.Seal          `cmd:"" help:"Compress and encrypt a source file for an encrypted manifest entry"`
	Config  cmd.ConfigCommand `cmd:"" help:"Configuration file helpers"`
}

// LogConfig selects what the converter reports on stderr.
type LogConfig struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"warn" env:"DAT2S_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" type:"path" env:"DAT2S_LOG_FILE"`
	RawFile string `help:"Hex dump every decoded source to this file" type:"path"`
}

// HelpFlag replaces kong's built-in help, which would claim -h for itself.
type HelpFlag bool

func (h HelpFlag) BeforeReset(ctx *kong.Context) error {
	_ = ctx.PrintUsage(false)
	ctx.Kong.Exit(0)
	return nil
}

// Options are the kong options shared by the binary and its tests.
func Options() []kong.Option {
	ver, err := version.Get()
	if err != nil {
		ver = version.Version
	}
	return []kong.Option{
		kong.Name("dat2s"),
		kong.Description("Converts a datafile into an assembler source file and an optional C header."),
		kong.NoDefaultHelp(),
		kong.UsageOnError(),
		kong.Vars{
			"targets": strings.Join(asm.TargetNames(), ","),
			"version": ver,
		},
	}
}
