package main

import (
	"flag"
	"fmt"
)

const (
	modeHeadless = "headless"
	modeTerminal = "terminal"
	modeServer   = "server"
)

// Flags represents the command-line parameters for the application.
type Flags struct {
	Config  string
	EnvFile string
	Mode    string
	Seed    string
	Ticks   uint64
	LogFile string
}

// NewFlags returns Flags populated with defaults.
func NewFlags() *Flags {
	return &Flags{EnvFile: ".env", Mode: modeTerminal}
}

// Bind attaches the flags to the provided FlagSet.
func (f *Flags) Bind(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", f.Config, "path to a YAML config file")
	fs.StringVar(&f.EnvFile, "env", f.EnvFile, "dotenv file with SCATTER_* overrides, ignored when missing")
	fs.StringVar(&f.Mode, "mode", f.Mode, "run mode: headless, terminal or server")
	fs.StringVar(&f.Seed, "seed", f.Seed, "world seed, overrides the config")
	fs.Uint64Var(&f.Ticks, "ticks", f.Ticks, "stop after this many ticks, 0 runs until interrupted")
	fs.StringVar(&f.LogFile, "log-file", f.LogFile, "write logs to this file instead of stderr")
}

func (f *Flags) validate() error {
	switch f.Mode {
	case modeHeadless, modeTerminal, modeServer:
		return nil
	default:
		return fmt.Errorf("unknown mode %q", f.Mode)
	}
}
