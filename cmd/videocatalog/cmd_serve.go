package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HerbHall/videocatalog/internal/category"
	"github.com/HerbHall/videocatalog/internal/seed"
	"github.com/HerbHall/videocatalog/internal/server"
	"github.com/HerbHall/videocatalog/internal/version"
)

func runServe(args []string, _ io.Writer) error {
	fs, configPath := newFlagSet("serve")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := loadSettings(*configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, s, nil)
	if err != nil {
		return err
	}
	defer a.logger.Sync()
	defer a.close()

	a.logger.Info("videocatalog starting", zap.String("version", version.Short()))
	return serve(ctx, a, nil)
}

// serve seeds when configured, then runs the HTTP server until ctx is
// cancelled. A nil ln listens on the configured address.
func serve(ctx context.Context, a *app, ln net.Listener) error {
	if a.settings.Seed.OnStart {
		if _, err := seedCatalog(ctx, a, a.settings.Seed.File); err != nil {
			return err
		}
	}

	srv := server.New(server.Options{
		Addr:         a.settings.Server.Addr(),
		ReadTimeout:  a.settings.Server.ReadTimeout,
		WriteTimeout: a.settings.Server.WriteTimeout,
		RateLimit:    a.settings.Server.RateLimit,
		RateBurst:    a.settings.Server.RateBurst,
		Ready:        a.ready,
	}, a.metrics, a.logger, category.NewHandler(a.service, a.logger))

	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", srv.Addr()); err != nil {
			return fmt.Errorf("listen %s: %w", srv.Addr(), err)
		}
	}
	a.logger.Info("videocatalog ready", zap.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.settings.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("videocatalog stopped")
	return nil
}

// seedCatalog applies the seed file at path, or the embedded defaults when
// path is empty.
func seedCatalog(ctx context.Context, a *app, path string) (seed.Result, error) {
	entries, err := seed.Default()
	if path != "" {
		entries, err = seed.LoadFile(path)
	}
	if err != nil {
		return seed.Result{}, err
	}
	return seed.Apply(ctx, a.service, entries, a.logger.Named("seed"))
}
