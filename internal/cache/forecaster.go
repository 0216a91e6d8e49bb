package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/weather"
)

// forecastSource is satisfied by weather.Forecaster.
type forecastSource interface {
	Forecast(ctx context.Context, at geo.Coordinate, date time.Time) (*weather.Forecast, error)
}

// Forecaster serves forecasts from Redis and falls back to the wrapped
// source on a miss. Redis failures are logged and bypassed.
type Forecaster struct {
	cache *Cache
	next  forecastSource
	log   *slog.Logger
}

// NewForecaster wraps next with c.
func NewForecaster(c *Cache, next forecastSource, log *slog.Logger) *Forecaster {
	if log == nil {
		log = slog.Default()
	}
	return &Forecaster{cache: c, next: next, log: log}
}

// Forecast implements itinerary.WeatherSource.
func (f *Forecaster) Forecast(ctx context.Context, at geo.Coordinate, date time.Time) (*weather.Forecast, error) {
	cached, err := f.cache.GetWeather(ctx, at, date)
	if err != nil {
		f.log.Warn("weather cache read failed", "err", err)
	} else if cached != nil {
		return cached, nil
	}

	fc, err := f.next.Forecast(ctx, at, date)
	if err != nil {
		return nil, err
	}

	// Only complete days are stored. A missing daily summary means the
	// upstream half failed and the ranker would read the day as fair.
	if fc != nil && fc.Daily != nil {
		if err := f.cache.SetWeather(ctx, at, date, fc); err != nil {
			f.log.Warn("weather cache write failed", "err", err)
		}
	}

	return fc, nil
}
