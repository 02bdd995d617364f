package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"deckforge/internal/adapter/repo"
	"deckforge/internal/deck"
	"deckforge/internal/domain"
	"deckforge/internal/http/handlers"
	httpapi "deckforge/internal/http/httpapi"
	"deckforge/internal/infra"
	"deckforge/internal/infra/geoip"
	"deckforge/internal/middleware"
	"deckforge/internal/providers/image"
	"deckforge/internal/providers/outline"
	"deckforge/internal/render"
	"deckforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// History persistence is optional; the service runs in-memory without it.
	var history domain.HistoryStore
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		history = repo.NewHistoryStore(pool)
	}

	cache, err := storage.NewFileStore(cfg.ImageCacheDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create image cache")
	}

	acquirer, err := outline.NewAcquirer(outline.Options{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Models:  cfg.OutlineModels,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build outline acquirer")
	}

	fetcher, err := image.NewFetcher(image.FetcherOptions{
		UnsplashKey:    cfg.UnsplashAccessKey,
		PexelsKey:      cfg.PexelsAPIKey,
		PixabayKey:     cfg.PixabayAPIKey,
		Cache:          cache,
		PlaceholderDir: cfg.PlaceholderDir,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image fetcher")
	}

	orchestrator, err := deck.NewOrchestrator(deck.Options{
		Outline:       acquirer,
		Images:        fetcher,
		NewRenderer:   render.Factory,
		History:       history,
		OutputDir:     cfg.OutputDir,
		MaxConcurrent: cfg.MaxConcurrentGenerations,
		Logger:        &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(orchestrator, history, cache, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
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
