package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-lookup/internal/log"
)

// Geocoder backends.
const (
	GeocoderOpenWeather = "openweather"
	GeocoderGoogle      = "google"
)

// Forecast strategies, mirrored from the providers package.
const (
	ForecastThreeHourly = "3hourly"
	ForecastDaily       = "daily"
)

type AppConfig struct {
	Port     string
	LogLevel string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// Geocoder selects the location backend; GeocodeCountry scopes postal codes.
	Geocoder       string
	GoogleAPIKey   string
	GeocodeCountry string

	ForecastStrategy string
	ForecastDays     int // daily strategy only, 1-16

	// HTTPTimeout bounds every outbound call.
	HTTPTimeout time.Duration

	DatabaseURL string

	// History retention. Zero HistoryMaxAge disables pruning.
	HistoryMaxAge        time.Duration
	HistoryPruneInterval time.Duration
}

// Load reads configuration from the environment (and a .env file if present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugw("no .env file loaded", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")
	v.SetDefault("GEOCODER", GeocoderOpenWeather)
	v.SetDefault("GEOCODE_COUNTRY", "US")
	v.SetDefault("FORECAST_STRATEGY", ForecastThreeHourly)
	v.SetDefault("FORECAST_DAYS", 7)
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("DATABASE_URL", "weather.db")
	v.SetDefault("HISTORY_MAX_AGE", "0s")
	v.SetDefault("HISTORY_PRUNE_INTERVAL", "1h")

	cfg := &AppConfig{
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		OpenWeatherAPIKey:  v.GetString("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: v.GetString("OPENWEATHER_BASE_URL"),
		Geocoder:           v.GetString("GEOCODER"),
		GoogleAPIKey:       v.GetString("GOOGLE_GEOCODING_API_KEY"),
		GeocodeCountry:     v.GetString("GEOCODE_COUNTRY"),
		ForecastStrategy:   v.GetString("FORECAST_STRATEGY"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.HistoryMaxAge, err = duration(v, "HISTORY_MAX_AGE"); err != nil {
		return nil, err
	}
	if cfg.HistoryPruneInterval, err = duration(v, "HISTORY_PRUNE_INTERVAL"); err != nil {
		return nil, err
	}

	days, err := integer(v, "FORECAST_DAYS")
	if err != nil {
		return nil, err
	}
	cfg.ForecastDays = days

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Geocoder {
	case GeocoderOpenWeather:
	case GeocoderGoogle:
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_GEOCODING_API_KEY is required when GEOCODER=%s", GeocoderGoogle)
		}
	default:
		return fmt.Errorf("invalid GEOCODER %q", c.Geocoder)
	}
	switch c.ForecastStrategy {
	case ForecastThreeHourly, ForecastDaily:
	default:
		return fmt.Errorf("invalid FORECAST_STRATEGY %q", c.ForecastStrategy)
	}
	if c.ForecastDays < 1 || c.ForecastDays > 16 {
		return fmt.Errorf("FORECAST_DAYS must be between 1 and 16, got %d", c.ForecastDays)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.HistoryMaxAge < 0 {
		return fmt.Errorf("HISTORY_MAX_AGE must not be negative")
	}
	if c.HistoryMaxAge > 0 && c.HistoryPruneInterval <= 0 {
		return fmt.Errorf("HISTORY_PRUNE_INTERVAL must be positive when retention is enabled")
	}
	return nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func integer(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
