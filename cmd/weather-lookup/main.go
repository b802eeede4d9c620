package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/log"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	log.Init(cfg.LogLevel, "weather-lookup")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	history, closeHistory, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to open history store", "error", err)
	}
	defer func() {
		if err := closeHistory(); err != nil {
			log.Errorw("error closing history store", "error", err)
		}
	}()

	openWeather := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)

	var geocoder weather.Geocoder = openWeather
	if cfg.Geocoder == config.GeocoderGoogle {
		geocoder, err = providers.NewGoogleGeocoder(cfg.GoogleAPIKey, cfg.HTTPTimeout)
		if err != nil {
			log.Fatalw("failed to configure geocoder", "error", err)
		}
	}

	forecast, err := providers.NewForecast(openWeather, cfg.ForecastStrategy, cfg.ForecastDays)
	if err != nil {
		log.Fatalw("failed to configure forecast", "error", err)
	}

	// Core service sequencing resolution, fetches and persistence.
	service := weather.NewService(
		weather.NewResolver(geocoder, cfg.GeocodeCountry),
		openWeather,
		forecast,
		history,
	)

	// Optional retention job.
	sched := scheduler.New(history, cfg.HistoryMaxAge, cfg.HistoryPruneInterval)
	if err := sched.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(service)

	go func() {
		log.Infow("listening", "port", cfg.Port, "geocoder", cfg.Geocoder, "forecast", forecast.Name())
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}
