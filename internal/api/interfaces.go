package api

import (
	"context"
	"time"

	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/itinerary"
	"github.com/neexbeast/wayfarer/internal/poi"
	"github.com/neexbeast/wayfarer/internal/translate"
	"github.com/neexbeast/wayfarer/internal/weather"
)

// Catalog defines the POI lookups needed by handlers.
type Catalog interface {
	List(ctx context.Context, city poi.City) ([]poi.PointOfInterest, error)
	Get(ctx context.Context, city poi.City, id string) (*poi.PointOfInterest, error)
}

// WeatherSource defines the forecast lookup needed by handlers.
type WeatherSource interface {
	Forecast(ctx context.Context, at geo.Coordinate, date time.Time) (*weather.Forecast, error)
}

// Planner defines the itinerary planning needed by handlers.
type Planner interface {
	Plan(ctx context.Context, req itinerary.PlanRequest) (*itinerary.Itinerary, error)
}

// Translator defines the translation operations needed by handlers.
type Translator interface {
	Do(ctx context.Context, r translate.Request) translate.Outcome
	TranslateBatch(ctx context.Context, texts []string, source, target string) []string
}

// Pinger is satisfied by the health-checked backends.
type Pinger interface {
	Ping(ctx context.Context) error
}
