package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fundamentals dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	fl := cmd.Flags()
	fl.String("addr", ":8501", "listen address")
	fl.Duration("session-idle", 30*time.Minute, "drop a browser session's cache after this much inactivity")
	bindFlags(fl, map[string]string{
		"server.addr":         "addr",
		"server.session_idle": "session-idle",
	})
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	srv, err := web.New(web.Config{
		Addr:            a.cfg.Server.Addr,
		Log:             a.log,
		Live:            a.liveProvider(),
		Fixture:         provider.NewFixture(a.store(), a.log),
		DefaultProvider: a.cfg.Provider,
		CacheTTL:        a.cfg.Live.CacheTTL,
		CacheMaxItems:   a.cfg.Live.CacheMaxItems,
		Concurrency:     a.cfg.Live.Concurrency,
		SessionIdle:     a.cfg.Server.SessionIdle,
		DefaultSymbols:  a.cfg.Symbols,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
