package weather

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/i474232898/weather-lookup/internal/log"
)

// LocationKind is the shape a free-text location was classified as.
type LocationKind string

const (
	KindCoordinates LocationKind = "coordinates"
	KindPostalCode  LocationKind = "postal-code"
	KindPlaceName   LocationKind = "place-name"
)

// DefaultCountry scopes postal-code lookups when none is configured.
const DefaultCountry = "US"

var (
	coordinatePattern = regexp.MustCompile(`^-?\d+\.\d+,\s*-?\d+\.\d+$`)
	postalPattern     = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)

	// ErrLocationNotFound is returned when a location cannot be resolved.
	ErrLocationNotFound = errors.New("location not found")
)

// Classify reports which lookup path text takes. Patterns are checked in
// priority order: coordinates, postal code, place name.
func Classify(text string) LocationKind {
	text = strings.TrimSpace(text)
	switch {
	case coordinatePattern.MatchString(text):
		return KindCoordinates
	case postalPattern.MatchString(text):
		return KindPostalCode
	default:
		return KindPlaceName
	}
}

// Resolver turns free-text locations into coordinates.
type Resolver struct {
	geocoder Geocoder
	country  string
}

// NewResolver creates a Resolver. Postal codes are looked up in country,
// or DefaultCountry when empty.
func NewResolver(geocoder Geocoder, country string) *Resolver {
	if country == "" {
		country = DefaultCountry
	}
	return &Resolver{geocoder: geocoder, country: country}
}

// Resolve classifies text and resolves it. Literal coordinates never touch
// the network. Any geocoding failure is logged and reported as
// ErrLocationNotFound.
func (r *Resolver) Resolve(ctx context.Context, text string) (Coordinates, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Coordinates{}, ErrLocationNotFound
	}

	var (
		c   Coordinates
		err error
	)
	switch Classify(text) {
	case KindCoordinates:
		return parseCoordinates(text)
	case KindPostalCode:
		c, err = r.geocoder.ByPostalCode(ctx, text, r.country)
	default:
		c, err = r.geocoder.ByName(ctx, text)
	}
	if err != nil {
		log.Infow("location lookup failed", "location", text, "error", err)
		return Coordinates{}, ErrLocationNotFound
	}
	return c, nil
}

func parseCoordinates(text string) (Coordinates, error) {
	lat, lon, _ := strings.Cut(text, ",")
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}
	return Coordinates{Lat: la, Lon: lo}, nil
}
