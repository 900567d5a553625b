package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	auction "reverse-auction/internal/auctionService"
	"reverse-auction/internal/config"
	"reverse-auction/internal/repository"
	"reverse-auction/internal/server"
	"reverse-auction/internal/tracing"
	handler "reverse-auction/services/auction/handler"
	"reverse-auction/services/auction/stream"
	"reverse-auction/utils"

	"golang.org/x/sync/errgroup"
)

// store is what the service needs from a persistence backend.
type store interface {
	repository.AuctionStore
	repository.QuoteSource
}

func main() {
	configPath := flag.String("config", os.Getenv("AUCTION_CONFIG"), "path to a TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "auction server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	tracer, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	hub := stream.NewHub()
	coord := auction.NewCoordinator(repo,
		auction.WithPublisher(hub),
		auction.WithTracer(tracer),
	)
	if _, err := coord.Restore(ctx); err != nil {
		return fmt.Errorf("restore auctions: %w", err)
	}

	router := server.SetupRouter(server.Deps{
		Coordinator: coord,
		Quotes:      repo,
		Hub:         hub,
		Tracer:      tracer,
		Defaults: handler.Defaults{
			DurationMinutes:   cfg.Auction.DefaultDurationMinutes,
			ExtensionWindow:   cfg.Auction.ExtensionWindow.Duration,
			ExtensionDuration: cfg.Auction.ExtensionDuration.Duration,
			LeaderboardLimit:  cfg.Auction.LeaderboardLimit,
			MinEligibleQuotes: cfg.Auction.MinEligibleQuotes,
		},
	})
	srv := &http.Server{Addr: cfg.Server.Port, Handler: router}
	scheduler := auction.NewScheduler(coord, cfg.Scheduler.TickInterval.Duration)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": cfg.Server.Port, "store": cfg.Store.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		utils.Info("shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Warn("http server shutdown", map[string]any{"error": err.Error()})
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			utils.Warn("tracing shutdown", map[string]any{"error": err.Error()})
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	utils.Info("auction server stopped", nil)
	return nil
}

// openStore builds the configured backend and seeds quotes from the config.
func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.Store.Driver {
	case "sqlite":
		repo, err := repository.NewSQLiteRepo(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		for listingID, vendors := range cfg.Seed.Listings {
			for _, vendorID := range vendors {
				if err := repo.AddQuote(ctx, listingID, vendorID); err != nil {
					_ = repo.Close()
					return nil, nil, fmt.Errorf("seed quotes: %w", err)
				}
			}
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		repo := repository.NewMemoryRepo()
		for listingID, vendors := range cfg.Seed.Listings {
			for _, vendorID := range vendors {
				repo.AddQuote(listingID, vendorID)
			}
		}
		return repo, func() {}, nil
	}
}
