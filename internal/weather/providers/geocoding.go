package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/i474232898/weather-lookup/internal/weather"
)

type owmPlace struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (pl owmPlace) coordinates() (weather.Coordinates, error) {
	if pl.Lat == nil || pl.Lon == nil {
		return weather.Coordinates{}, fmt.Errorf("%w: partial coordinates", errMalformed)
	}
	return weather.Coordinates{Lat: *pl.Lat, Lon: *pl.Lon}, nil
}

// ByPostalCode resolves a postal code within country. ZIP+4 codes are looked
// up by their five-digit prefix.
func (p *OpenWeatherProvider) ByPostalCode(ctx context.Context, code, country string) (weather.Coordinates, error) {
	zip, _, _ := strings.Cut(code, "-")
	values := url.Values{}
	values.Set("zip", zip+","+country)

	var place owmPlace
	if err := p.get(ctx, "/geo/1.0/zip", values, &place); err != nil {
		return weather.Coordinates{}, err
	}
	return place.coordinates()
}

// ByName resolves a free-text place name using the first match.
func (p *OpenWeatherProvider) ByName(ctx context.Context, name string) (weather.Coordinates, error) {
	values := url.Values{}
	values.Set("q", name)
	values.Set("limit", "1")

	var places []owmPlace
	if err := p.get(ctx, "/geo/1.0/direct", values, &places); err != nil {
		return weather.Coordinates{}, err
	}
	if len(places) == 0 {
		return weather.Coordinates{}, fmt.Errorf("openweather: no match for %q", name)
	}
	return places[0].coordinates()
}
