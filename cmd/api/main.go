package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"coverserver/internal/adapter/repo"
	"coverserver/internal/analytics"
	"coverserver/internal/cover"
	"coverserver/internal/http/handlers"
	httpapi "coverserver/internal/http/httpapi"
	"coverserver/internal/infra"
	"coverserver/internal/infra/geoip"
	"coverserver/internal/middleware"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	metricRepo := repo.NewMetricRepository(dbpool)
	if err := metricRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure metrics schema")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip resolver unavailable, country enrichment disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	prom := infra.NewPromMetrics()
	validator := cover.NewValidator(cover.ValidatorOptions{
		MaxTitleLen:    cfg.MaxTitleLen,
		MaxSubtitleLen: cfg.MaxSubtitleLen,
		Fonts:          cfg.Fonts,
	})
	generator := cover.NewOrchestrator(validator, cover.PNGRenderer{}, metricRepo, prom, logger)
	aggregator := analytics.NewAggregator(metricRepo, logger)

	app := handlers.NewApp(logger, generator, aggregator, metricRepo, prom)
	router := httpapi.NewRouter(app, httpapi.Options{
		Log:             logger,
		CountryLookup:   lookup,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
