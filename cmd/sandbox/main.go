// Command sandbox runs the in-memory AlphaDoc service for local
// development. SIGHUP rotates the token secret, forcing every client to log
// in again.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/alphadoc/internal/config"
	"github.com/JaimeStill/alphadoc/internal/infrastructure"
	"github.com/JaimeStill/alphadoc/internal/sandbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	logger, closer := infrastructure.NewLogger(&cfg.Logging, os.Stderr)
	logger.Info("sandbox starting", "addr", cfg.Sandbox.Addr(), "env", cfg.Env())

	err = run(cfg, logger)
	if closer != nil {
		closer.Close()
	}
	if err != nil {
		log.Fatal("sandbox failed: ", err)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sb := sandbox.New(&cfg.Sandbox, logger)
	srv := newHTTPServer(&cfg.Sandbox, sb.Handler(), logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				if err := sb.RotateSecret(); err != nil {
					logger.Error("token secret rotation failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("sandbox stopped")
	return nil
}
