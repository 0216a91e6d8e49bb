package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/poi"
	"github.com/neexbeast/wayfarer/internal/weather"
)

// WeatherSource is the forecast dependency of the Planner. weather.Forecaster
// and the Redis-backed wrapper in internal/cache both satisfy it.
type WeatherSource interface {
	Forecast(ctx context.Context, at geo.Coordinate, date time.Time) (*weather.Forecast, error)
}

// Stop is one visit in an itinerary.
type Stop struct {
	POI   poi.PointOfInterest `json:"poi"`
	LegKm float64             `json:"leg_km"`
}

// Itinerary is a ranked, walking-ordered plan for one day in a city.
type Itinerary struct {
	ID         uuid.UUID         `json:"id"`
	City       poi.City          `json:"city"`
	Date       string            `json:"date"`
	Start      geo.Coordinate    `json:"start"`
	BadWeather bool              `json:"bad_weather"`
	Weather    *weather.Forecast `json:"weather,omitempty"`
	Stops      []Stop            `json:"stops"`
	TotalKm    float64           `json:"total_km"`
}

// PlanRequest describes what to plan.
type PlanRequest struct {
	City   poi.City
	Date   time.Time
	Filter poi.Filter
	// Start is the walk's origin; nil selects the city centre.
	Start *geo.Coordinate
	// Selected restricts candidates to these ids when non-empty.
	Selected []string
	// Prefs orders the POIs a trip schedules after the day's picks.
	Prefs Preferences
}

// Trip is an itinerary spread over several days.
type Trip struct {
	*Itinerary
	Schedule []Slot `json:"schedule"`
}

// Planner chains catalog, filter, ranker and router.
type Planner struct {
	catalog poi.Catalog
	weather WeatherSource
	ranker  *Ranker
	log     *slog.Logger
}

// NewPlanner constructs a Planner. A nil WeatherSource plans every day as
// fair weather.
func NewPlanner(catalog poi.Catalog, ws WeatherSource, policy Policy, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{catalog: catalog, weather: ws, ranker: NewRanker(policy), log: log}
}

// Plan builds an itinerary. Weather failures are logged and treated as no
// weather data; catalog failures are returned.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*Itinerary, error) {
	it, _, err := p.plan(ctx, req)
	return it, err
}

// PlanTrip plans req.Date and spreads it over days. The day's picks come
// first in walking order; later slots take the remaining candidates by
// preference.
func (p *Planner) PlanTrip(ctx context.Context, req PlanRequest, days int) (*Trip, error) {
	if days < 1 {
		return nil, fmt.Errorf("planning %d days: need at least one", days)
	}
	it, candidates, err := p.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	ordered := make([]poi.PointOfInterest, 0, len(candidates))
	used := make(map[string]bool, len(it.Stops))
	for _, s := range it.Stops {
		ordered = append(ordered, s.POI)
		used[s.POI.ID] = true
	}
	for _, c := range Prioritize(candidates, req.Prefs, nil) {
		if !used[c.ID] {
			ordered = append(ordered, c)
		}
	}

	return &Trip{Itinerary: it, Schedule: Schedule(days, ordered)}, nil
}

// plan returns the itinerary and the filtered candidates it was ranked from.
func (p *Planner) plan(ctx context.Context, req PlanRequest) (*Itinerary, []poi.PointOfInterest, error) {
	info, ok := req.City.Info()
	if !ok {
		return nil, nil, fmt.Errorf("planning %q: %w", req.City, poi.ErrUnknownCity)
	}

	candidates, err := p.catalog.List(ctx, req.City)
	if err != nil {
		return nil, nil, fmt.Errorf("listing pois for %s: %w", req.City, err)
	}
	if req.Filter == "" {
		req.Filter = poi.FilterAll
	}
	candidates = restrict(poi.ApplyFilter(candidates, req.Filter), req.Selected)

	forecast := p.forecast(ctx, info.Center, req.Date)
	var day *weather.Summary
	if forecast != nil {
		day = forecast.Daily
	}

	suggestion := p.ranker.Rank(candidates, day)

	start := info.Center
	if req.Start != nil {
		start = *req.Start
	}
	route := geo.NearestNeighbor(start, suggestion.Picks)

	it := &Itinerary{
		ID:         uuid.New(),
		City:       req.City,
		Date:       req.Date.Format("2006-01-02"),
		Start:      start,
		BadWeather: suggestion.BadWeather,
		Weather:    forecast,
		Stops:      make([]Stop, len(route.Stops)),
		TotalKm:    route.TotalKm,
	}
	for i, s := range route.Stops {
		it.Stops[i] = Stop{POI: s, LegKm: route.Legs[i].DistanceKm}
	}

	p.log.Info("itinerary planned",
		"city", req.City, "date", it.Date, "stops", len(it.Stops), "bad_weather", it.BadWeather)
	return it, candidates, nil
}

func (p *Planner) forecast(ctx context.Context, at geo.Coordinate, date time.Time) *weather.Forecast {
	if p.weather == nil {
		return nil
	}
	fc, err := p.weather.Forecast(ctx, at, date)
	if err != nil {
		p.log.Warn("weather unavailable, planning without it", "lat", at.Lat, "lon", at.Lon, "err", err)
		return nil
	}
	return fc
}
