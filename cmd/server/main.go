package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mechwars/arena-backend/internal/config"
	"github.com/mechwars/arena-backend/internal/httpapi"
	"github.com/mechwars/arena-backend/internal/hub"
	"github.com/mechwars/arena-backend/internal/match"
	"github.com/mechwars/arena-backend/internal/registry"
)

func main() {
	cfg := config.Load()

	log := newLogger(cfg.Debug)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.New(log)
	h := hub.NewHub(ctx, reg, cfg.CountdownSeconds, log)
	mm := match.New(ctx, h, cfg.QueueSweepInterval, log)

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Registry:   reg,
			Matchmaker: mm,
			Hub:        h,
			Log:        log,
		}),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Tick driver: measures real elapsed time between fires and feeds it to
	// the orchestrator. The simulation itself is rate-agnostic.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				h.Inbox() <- hub.Tick{Delta: dt}
			}
		}
	})

	// Idle session sweeper.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				reg.SweepIdle(cfg.SessionTimeout)
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}
