package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/scatter/internal/config"
	"github.com/zeusync/scatter/internal/core/observability/log"
	"github.com/zeusync/scatter/internal/injector"
	"github.com/zeusync/scatter/internal/render/terminal"
	"github.com/zeusync/scatter/internal/runner"
	"github.com/zeusync/scatter/pkg/concurrent"
)

const shutdownTimeout = 5 * time.Second

func main() {
	flags := NewFlags()
	flags.Bind(flag.CommandLine)
	flag.Parse()

	if err := run(flags); err != nil {
		fmt.Fprintln(os.Stderr, "scatter:", err)
		os.Exit(1)
	}
}

func run(flags *Flags) error {
	if err := flags.validate(); err != nil {
		return err
	}

	cfg, err := config.Load(flags.Config, flags.EnvFile)
	if err != nil {
		return err
	}
	if flags.Seed != "" {
		cfg.Seed = flags.Seed
	}
	if flags.Ticks > 0 {
		cfg.MaxTicks = flags.Ticks
	}

	logger, err := newLogger(flags, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app, err := injector.InitializeApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group := concurrent.NewGroup(ctx)
	group.Go(func(ctx context.Context) error {
		defer group.Stop()
		return app.Runner.Loop(ctx)
	})

	switch flags.Mode {
	case modeServer:
		if err := app.Server.Start(group.Context()); err != nil {
			group.Stop()
			_ = group.Wait()
			return err
		}
		group.Go(func(ctx context.Context) error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.Server.Shutdown(shutdownCtx)
		})
	case modeTerminal:
		viewer, err := terminal.NewTerminal(app.Scene,
			terminal.WithClear(app.Runner.RequestClear),
			terminal.WithStatus(statusLine(app.Runner)),
			terminal.WithLogger(logger),
		)
		if err != nil {
			group.Stop()
			_ = group.Wait()
			return err
		}
		group.Go(func(ctx context.Context) error {
			defer group.Stop()
			return viewer.Run(ctx)
		})
	}

	err = group.Wait()
	stats := app.Runner.Stats()
	logger.Info("Scatter stopped",
		log.Uint64("ticks", stats.Ticks),
		log.Uint64("spawned", stats.Spawned),
		log.Uint64("evicted", stats.Evicted),
		log.Uint64("cleared", stats.Cleared),
		log.Uint64("failures", stats.Failures),
	)
	return err
}

func newLogger(flags *Flags, cfg config.Config) (*log.Logger, error) {
	level := log.ParseLevel(cfg.LogLevel)
	switch {
	case flags.LogFile != "":
		return log.NewWithOutput(level, flags.LogFile)
	case flags.Mode == modeTerminal:
		// The viewer owns the terminal.
		return log.NewNop(), nil
	default:
		return log.NewWithOutput(level, "stderr")
	}
}

func statusLine(r *runner.Runner) func() string {
	return func() string {
		s := r.Stats()
		return fmt.Sprintf(" objects %d  seeds %d  ticks %d  spawned %d  evicted %d  [c] clear  [q] quit",
			s.Live, s.Seeds, s.Ticks, s.Spawned, s.Evicted)
	}
}
