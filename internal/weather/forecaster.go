package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/wayfarer/internal/geo"
)

// dailyFetcher is the interface satisfied by Client for daily summaries.
type dailyFetcher interface {
	Daily(ctx context.Context, at geo.Coordinate, date time.Time) (*Summary, error)
}

// hourlyFetcher is the interface satisfied by Client for hourly series.
type hourlyFetcher interface {
	Hourly(ctx context.Context, at geo.Coordinate, date time.Time) ([]Hour, error)
}

// Forecaster combines daily and hourly data into a Forecast.
type Forecaster struct {
	daily  dailyFetcher
	hourly hourlyFetcher
	log    *slog.Logger
}

// NewForecaster constructs a Forecaster using the same client for both series.
func NewForecaster(c *Client, log *slog.Logger) *Forecaster {
	return NewForecasterWithFetchers(c, c, log)
}

// NewForecasterWithFetchers constructs a Forecaster with injectable fetchers (used in tests).
func NewForecasterWithFetchers(d dailyFetcher, h hourlyFetcher, log *slog.Logger) *Forecaster {
	if log == nil {
		log = slog.Default()
	}
	return &Forecaster{daily: d, hourly: h, log: log}
}

// Forecast fetches the daily summary and hourly series in parallel.
// Upstream failures are non-fatal: the affected half is left empty and the
// failure is logged, so callers see "no weather data" rather than an error.
func (f *Forecaster) Forecast(ctx context.Context, at geo.Coordinate, date time.Time) (*Forecast, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var daily *Summary
	var hours []Hour

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				f.log.Error("daily weather fetch panicked", "recover", r)
				err = fmt.Errorf("daily weather fetch panicked: %v", r)
			}
		}()
		s, fetchErr := f.daily.Daily(gCtx, at, date)
		if fetchErr != nil {
			f.log.Warn("daily weather fetch failed", "lat", at.Lat, "lon", at.Lon, "err", fetchErr)
			return nil
		}
		daily = s
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				f.log.Error("hourly weather fetch panicked", "recover", r)
				err = fmt.Errorf("hourly weather fetch panicked: %v", r)
			}
		}()
		h, fetchErr := f.hourly.Hourly(gCtx, at, date)
		if fetchErr != nil {
			f.log.Warn("hourly weather fetch failed", "lat", at.Lat, "lon", at.Lon, "err", fetchErr)
			return nil
		}
		hours = h
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching forecast for %s: %w", date.Format(dateLayout), err)
	}

	fc := &Forecast{Daily: daily}
	if len(hours) > 0 {
		fc.Dayparts = SummarizeDayparts(hours)
	}
	return fc, nil
}
