package providers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Forecast strategy names accepted by NewForecast.
const (
	StrategyThreeHourly = "3hourly"
	StrategyDaily       = "daily"
)

// NewForecast returns the forecast strategy called name. days only applies to
// the daily strategy.
func NewForecast(p *OpenWeatherProvider, name string, days int) (weather.ForecastProvider, error) {
	switch name {
	case "", StrategyThreeHourly:
		return &ThreeHourlyForecast{p: p}, nil
	case StrategyDaily:
		return &DailyForecast{p: p, days: days}, nil
	default:
		return nil, fmt.Errorf("unknown forecast strategy %q", name)
	}
}

// ThreeHourlyForecast uses the 5 day / 3 hour endpoint and keeps the first
// sample of each calendar day.
type ThreeHourlyForecast struct {
	p *OpenWeatherProvider
}

func (f *ThreeHourlyForecast) Name() string {
	return f.p.name + "/" + StrategyThreeHourly
}

func (f *ThreeHourlyForecast) Forecast(ctx context.Context, at weather.Coordinates, unit weather.Unit) ([]weather.ForecastEntry, error) {
	var payload struct {
		List []struct {
			DtTxt string `json:"dt_txt"` // "2006-01-02 15:04:05"
			Main  struct {
				Temp *float64 `json:"temp"`
			} `json:"main"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}
	if err := f.p.get(ctx, "/data/2.5/forecast", f.p.pointQuery(at, unit), &payload); err != nil {
		return nil, err
	}

	samples := make([]weather.ForecastEntry, 0, len(payload.List))
	for _, item := range payload.List {
		day, _, _ := strings.Cut(item.DtTxt, " ")
		if _, err := time.Parse(weather.DateLayout, day); err != nil {
			return nil, fmt.Errorf("%w: dt_txt %q", errMalformed, item.DtTxt)
		}
		snap, err := snapshotFrom(item.Main.Temp, item.Weather)
		if err != nil {
			return nil, err
		}
		samples = append(samples, weather.ForecastEntry{Date: day, Snapshot: snap})
	}
	return collapseDaily(samples), nil
}

// DailyForecast uses the daily aggregate endpoint, which already returns one
// record per day.
type DailyForecast struct {
	p    *OpenWeatherProvider
	days int
}

func (f *DailyForecast) Name() string {
	return f.p.name + "/" + StrategyDaily
}

func (f *DailyForecast) Forecast(ctx context.Context, at weather.Coordinates, unit weather.Unit) ([]weather.ForecastEntry, error) {
	var payload struct {
		City struct {
			Timezone int `json:"timezone"` // seconds east of UTC
		} `json:"city"`
		List []struct {
			Dt   int64 `json:"dt"`
			Temp struct {
				Day *float64 `json:"day"`
			} `json:"temp"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}
	values := f.p.pointQuery(at, unit)
	if f.days > 0 {
		values.Set("cnt", strconv.Itoa(f.days))
	}
	if err := f.p.get(ctx, "/data/2.5/forecast/daily", values, &payload); err != nil {
		return nil, err
	}

	zone := time.FixedZone("", payload.City.Timezone)
	samples := make([]weather.ForecastEntry, 0, len(payload.List))
	for _, item := range payload.List {
		if item.Dt <= 0 {
			return nil, fmt.Errorf("%w: missing dt", errMalformed)
		}
		snap, err := snapshotFrom(item.Temp.Day, item.Weather)
		if err != nil {
			return nil, err
		}
		samples = append(samples, weather.ForecastEntry{
			Date:     time.Unix(item.Dt, 0).In(zone).Format(weather.DateLayout),
			Snapshot: snap,
		})
	}
	return collapseDaily(samples), nil
}

// collapseDaily keeps the first sample per date and orders the result by
// date. Input order decides which same-day sample wins.
func collapseDaily(samples []weather.ForecastEntry) []weather.ForecastEntry {
	seen := make(map[string]struct{}, len(samples))
	out := make([]weather.ForecastEntry, 0, len(samples))
	for _, s := range samples {
		if _, ok := seen[s.Date]; ok {
			continue
		}
		seen[s.Date] = struct{}{}
		out = append(out, s)
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
