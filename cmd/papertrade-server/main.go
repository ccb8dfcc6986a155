// papertrade-server runs the account mirror and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Open-Papertrade/papertrade/internal/brokerage"
	"github.com/Open-Papertrade/papertrade/internal/config"
	"github.com/Open-Papertrade/papertrade/internal/httpapi"
	"github.com/Open-Papertrade/papertrade/internal/market"
	"github.com/Open-Papertrade/papertrade/internal/portfolio"
	"github.com/Open-Papertrade/papertrade/internal/store"
	"github.com/Open-Papertrade/papertrade/internal/util"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "papertrade-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/papertrade.yaml"
	if p := os.Getenv("PAPERTRADE_CONFIG"); p != "" {
		cfgPath = p
	}

	var cfg *config.Config
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config %s: %w", cfgPath, err)
		}
	} else {
		cfg = config.Default("data")
	}

	logger := util.NewLogger(os.Stderr, cfg.Logging.Level)
	util.SetDefault(logger)

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// Pick the account service backend.
	var svc brokerage.Service
	switch cfg.Brokerage.Mode {
	case "sim", "":
		sim, err := brokerage.OpenSimulator(cfg, logger)
		if err != nil {
			return fmt.Errorf("opening simulator: %w", err)
		}
		defer sim.Close()
		svc = sim
	case "remote":
		if cfg.Brokerage.BaseURL == "" {
			return errors.New("brokerage.base_url required in remote mode")
		}
		svc = brokerage.NewClient(cfg.Brokerage.BaseURL, cfg.Brokerage.Token,
			cfg.Brokerage.RateLimitPerMin, logger)
	default:
		return fmt.Errorf("unknown brokerage mode %q", cfg.Brokerage.Mode)
	}
	logger.Info("account service ready", "backend", svc.Name())

	watch := portfolio.NewWatchlist(cfg.Storage.WatchlistPath, logger)
	mirror := portfolio.NewMirror(svc, watch, logger)
	clock := market.NewClock(svc, logger)
	history := store.NewParquetStore(cfg.Storage.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mirror.Start(ctx)

	sched := portfolio.NewScheduler(mirror,
		time.Duration(cfg.Portfolio.QuoteRefreshSec)*time.Second,
		time.Duration(cfg.Portfolio.FullRefreshSec)*time.Second,
		logger)
	sampler := store.NewSampler(mirror, history, history,
		time.Duration(cfg.Portfolio.ValueSampleSec)*time.Second, logger)

	api := httpapi.NewServer(mirror, clock, history, logger)
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the stream endpoint holds connections open
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return sampler.Run(ctx) })
	g.Go(func() error {
		logger.Info("listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	mirror.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
