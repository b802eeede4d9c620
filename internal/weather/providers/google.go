package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// GoogleGeocoder resolves locations through the Google Maps Geocoding API.
// The underlying library keeps its key in a package variable, so only one
// key per process is supported.
type GoogleGeocoder struct {
	timeout time.Duration
}

// NewGoogleGeocoder configures the Google geocoding key. Every lookup is
// bounded by timeout.
func NewGoogleGeocoder(apiKey string, timeout time.Duration) (*GoogleGeocoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google geocoder: %w", errNoAPIKey)
	}
	// The key is process-wide; an unchanged value is left alone so in-flight
	// lookups never observe a write.
	if key := url.QueryEscape(apiKey); geocoder.ApiKey != key {
		geocoder.ApiKey = key
	}
	return &GoogleGeocoder{timeout: timeout}, nil
}

// ByPostalCode looks up the 5-digit prefix of code. Address parts are escaped
// because the library splices them into the query string unencoded.
func (g *GoogleGeocoder) ByPostalCode(ctx context.Context, code, country string) (weather.Coordinates, error) {
	zip, _, _ := strings.Cut(code, "-")
	return g.lookup(ctx, geocoder.Address{PostalCode: url.QueryEscape(zip), Country: url.QueryEscape(country)})
}

func (g *GoogleGeocoder) ByName(ctx context.Context, name string) (weather.Coordinates, error) {
	return g.lookup(ctx, geocoder.Address{City: url.QueryEscape(name)})
}

type googleResult struct {
	loc geocoder.Location
	err error
}

// lookup runs the blocking library call in the background and gives up when
// ctx or the timeout expires. The library indexes its first result without a
// length check, so a panic there is reported as an error.
func (g *GoogleGeocoder) lookup(ctx context.Context, addr geocoder.Address) (weather.Coordinates, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, err
	}

	done := make(chan googleResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- googleResult{err: fmt.Errorf("%w: %v", errMalformed, r)}
			}
		}()
		loc, err := geocoder.Geocoding(addr)
		done <- googleResult{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, fmt.Errorf("google geocoder: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return weather.Coordinates{}, fmt.Errorf("google geocoder: %w", res.err)
		}
		return weather.Coordinates{Lat: res.loc.Latitude, Lon: res.loc.Longitude}, nil
	}
}
