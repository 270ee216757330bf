package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"FinDesk/internal/api"
	"FinDesk/internal/config"
	"FinDesk/internal/ledger"
	"FinDesk/internal/market"
	"FinDesk/internal/metrics"
	"FinDesk/internal/mockapi"
	"FinDesk/internal/news"
	"FinDesk/internal/poller"
	"FinDesk/internal/provider"
	"FinDesk/internal/recorder"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func openRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// mockBaseURL points the mock provider at the in-process mock routes.
func mockBaseURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "http://localhost:8080/mock"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/mock"
}

func newProvider(cfg *config.Config) (provider.Provider, error) {
	baseURL := cfg.Provider.BaseURL
	if cfg.Provider.Name == "mock" && baseURL == "" && cfg.Server.MockEnabled {
		baseURL = mockBaseURL(cfg.Server.ListenAddr)
	}
	return provider.New(provider.Options{
		Name:              cfg.Provider.Name,
		BaseURL:           baseURL,
		APIKey:            cfg.Provider.APIKey,
		Proxy:             cfg.Proxy,
		Timeout:           cfg.Provider.Timeout,
		RatePerMinute:     cfg.Provider.RatePerMinute,
		FallbackSimulated: cfg.Provider.FallbackSimulated,
		HistoricalTimeout: cfg.Polling.HistoricalTimeout,
	})
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := openRecorder(cfg.Database.SQLitePath)
	defer rec.Close()
	m := metrics.New()

	p, err := newProvider(cfg)
	if err != nil {
		return err
	}
	log.Info().Str("provider", p.Name()).Msg("market data provider ready")

	sched := poller.NewScheduler()
	sched.Start()
	defer sched.Stop()

	views := market.NewManager(ctx, market.Deps{
		Provider:          p,
		Scheduler:         sched,
		Recorder:          rec,
		Metrics:           m,
		HistoricalTimeout: cfg.Polling.HistoricalTimeout,
		LiveTailSize:      cfg.Polling.LiveTailSize,
		DefaultInterval:   cfg.Polling.DefaultInterval,
	}, cfg.Server.MaxViews)
	defer views.Close()

	var ledgerSvc *ledger.Service
	if cfg.Backend.BaseURL != "" {
		ledgerSvc = ledger.NewService(ledger.NewClient(cfg.Backend.BaseURL, cfg.Proxy, cfg.Backend.Timeout), rec, m)
	} else {
		log.Warn().Msg("backend.base_url not set, ledger routes disabled")
	}

	var mock *mockapi.Server
	if cfg.Server.MockEnabled {
		mock = mockapi.NewServer(nil)
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		Provider: p,
		Views:    views,
		Ledger:   ledgerSvc,
		News:     news.NewFeed("", cfg.News.APIKey, cfg.Proxy, cfg.News.TTL, cfg.Provider.Timeout),
		Recorder: rec,
		Metrics:  m,
		Mock:     mock,
	})
	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Bool("mock", mock != nil).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown signal received, stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("FinDesk stopped")
	return nil
}
