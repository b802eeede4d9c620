package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// DefaultOpenWeatherURL is the public OpenWeatherMap host. Geocoding and
// weather endpoints share it.
const DefaultOpenWeatherURL = "https://api.openweathermap.org"

// OpenWeatherProvider talks to OpenWeatherMap. It serves current conditions,
// geocoding, and both forecast strategies.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
}

// NewOpenWeatherProvider creates a provider. An empty baseURL selects
// DefaultOpenWeatherURL.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuitBreaker("openweather"),
		},
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Current fetches current conditions at the given coordinates.
func (p *OpenWeatherProvider) Current(ctx context.Context, at weather.Coordinates, unit weather.Unit) (weather.Snapshot, error) {
	var payload struct {
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
	}
	if err := p.get(ctx, "/data/2.5/weather", p.pointQuery(at, unit), &payload); err != nil {
		return weather.Snapshot{}, err
	}
	return snapshotFrom(payload.Main.Temp, payload.Weather)
}

func (p *OpenWeatherProvider) get(ctx context.Context, path string, values url.Values, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("openweather: %w", errNoAPIKey)
	}
	values.Set("appid", p.apiKey)
	u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
	if err := getJSON(ctx, p.httpCfg, u, out); err != nil {
		return fmt.Errorf("openweather %s: %w", path, err)
	}
	return nil
}

func (p *OpenWeatherProvider) pointQuery(at weather.Coordinates, unit weather.Unit) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	if unit == "" {
		unit = weather.UnitMetric
	}
	values.Set("units", string(unit))
	return values
}

func snapshotFrom(temp *float64, conditions []owmCondition) (weather.Snapshot, error) {
	if temp == nil || len(conditions) == 0 {
		return weather.Snapshot{}, fmt.Errorf("%w: missing temperature or conditions", errMalformed)
	}
	return weather.Snapshot{
		Temperature: weather.RoundTemperature(*temp),
		Description: conditions[0].Description,
		Icon:        conditions[0].Icon,
	}, nil
}
