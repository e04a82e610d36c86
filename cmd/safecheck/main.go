package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/safecheck/internal/buildinfo"
	"github.com/dmitrijs2005/safecheck/internal/cli"
	"github.com/dmitrijs2005/safecheck/internal/clock"
	"github.com/dmitrijs2005/safecheck/internal/common"
	"github.com/dmitrijs2005/safecheck/internal/config"
	"github.com/dmitrijs2005/safecheck/internal/cryptox"
	"github.com/dmitrijs2005/safecheck/internal/dispatch"
	"github.com/dmitrijs2005/safecheck/internal/engine"
	"github.com/dmitrijs2005/safecheck/internal/logging"
	"github.com/dmitrijs2005/safecheck/internal/settings"
	"github.com/dmitrijs2005/safecheck/internal/storage"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	l, err := logging.New(cfg.LogBackend, cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	repo, closer, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer closer.Close()

	// The URI opener needs the app, which needs the machine, which needs
	// the dispatcher.
	var app *cli.App
	open := func(ctx context.Context, uri string) error { return app.OpenURI(ctx, uri) }

	fanout, cleanup, err := dispatch.FromConfig(cfg, l, open)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	defer cleanup()

	hook := func(ctx context.Context, o dispatch.Outcome) { app.DispatchFailed(ctx, o) }
	policy, err := dispatch.PolicyByName(cfg.DispatchFailurePolicy, l, hook)
	if err != nil {
		return err
	}

	store := settings.NewStore(repo)
	if cfg.StatePassphrase != "" {
		sealer, err := cryptox.NewSealer(cfg.StatePassphrase, cryptox.DefaultKDF)
		if err != nil {
			return err
		}
		store = settings.NewSealedStore(repo, sealer)
	}

	m := engine.NewMachine(engine.Options{
		Store:             store,
		Dispatcher:        fanout,
		Clock:             clock.System{},
		Logger:            l,
		UrgentThreshold:   cfg.UrgentThreshold,
		TickInterval:      cfg.TickInterval,
		StoreTimeout:      cfg.StoreTimeout,
		DispatchTimeout:   cfg.DispatchTimeout,
		OnDispatchFailure: policy,
	})
	defer m.Close()

	app = cli.NewApp(m, l, clock.System{}).WithDefaultPeriod(cfg.DefaultPeriodHours)

	if err := m.Restore(ctx); err != nil {
		if !errors.Is(err, common.ErrCorruptState) {
			return err
		}
		fmt.Println("Saved settings could not be read and were reset.")
	}

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Println()
	}
	return nil
}
