package itinerary

import (
	"math"
	"sort"

	"github.com/neexbeast/wayfarer/internal/poi"
	"github.com/neexbeast/wayfarer/internal/weather"
)

// Default ranking parameters. Callers tune them through Policy.
const (
	// BadWeatherPrecipProbability is the daily precipitation probability (%)
	// at or above which indoor POIs are preferred.
	BadWeatherPrecipProbability = 40.0
	// BadWeatherPrecipSum is the daily precipitation (mm) at or above which
	// indoor POIs are preferred.
	BadWeatherPrecipSum = 2.0
	// TargetPrice is the price the secondary sort key pulls towards.
	TargetPrice = 15.0
	// DefaultPrice is assumed for POIs without a price.
	DefaultPrice = 15.0
	// MaxPicks caps the suggestion list.
	MaxPicks = 6
	// DiversityGrace is how many picks may repeat a category before every
	// further pick must introduce a new one.
	DiversityGrace = 3
)

// Policy holds the tunable ranking parameters.
type Policy struct {
	BadWeatherPrecipProbability float64
	BadWeatherPrecipSum         float64
	TargetPrice                 float64
	DefaultPrice                float64
	MaxPicks                    int
	DiversityGrace              int
}

// DefaultPolicy returns the standard ranking parameters.
func DefaultPolicy() Policy {
	return Policy{
		BadWeatherPrecipProbability: BadWeatherPrecipProbability,
		BadWeatherPrecipSum:         BadWeatherPrecipSum,
		TargetPrice:                 TargetPrice,
		DefaultPrice:                DefaultPrice,
		MaxPicks:                    MaxPicks,
		DiversityGrace:              DiversityGrace,
	}
}

// Suggestion is the ranker's output.
type Suggestion struct {
	Picks      []poi.PointOfInterest `json:"picks"`
	BadWeather bool                  `json:"bad_weather"`
}

// Ranker selects a short, varied, weather-appropriate list of POIs.
type Ranker struct {
	policy Policy
}

// NewRanker constructs a Ranker with the given policy.
func NewRanker(p Policy) *Ranker {
	return &Ranker{policy: p}
}

// IsBadWeather reports whether the day calls for indoor plans. A nil summary
// means no weather data and is treated as fair weather.
func (r *Ranker) IsBadWeather(s *weather.Summary) bool {
	if s == nil {
		return false
	}
	if s.PrecipProbability != nil && *s.PrecipProbability >= r.policy.BadWeatherPrecipProbability {
		return true
	}
	if s.PrecipSum != nil && *s.PrecipSum >= r.policy.BadWeatherPrecipSum {
		return true
	}
	return false
}

// Sort returns candidates ordered by weather preference, then by closeness of
// price to the target. The sort is stable, so catalog order breaks ties.
func (r *Ranker) Sort(candidates []poi.PointOfInterest, badWeather bool) []poi.PointOfInterest {
	sorted := make([]poi.PointOfInterest, len(candidates))
	copy(sorted, candidates)

	pref := func(p poi.PointOfInterest) int {
		if p.Indoor == badWeather {
			return 0
		}
		return 1
	}
	priceGap := func(p poi.PointOfInterest) float64 {
		price := r.policy.DefaultPrice
		if p.Price != nil {
			price = *p.Price
		}
		return math.Abs(price - r.policy.TargetPrice)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := pref(sorted[i]), pref(sorted[j])
		if pi != pj {
			return pi < pj
		}
		return priceGap(sorted[i]) < priceGap(sorted[j])
	})

	return sorted
}

// Pick walks the sorted list and keeps up to MaxPicks POIs. After the first
// DiversityGrace picks, a POI is only taken if its category is new.
func (r *Ranker) Pick(sorted []poi.PointOfInterest) []poi.PointOfInterest {
	picked := make([]poi.PointOfInterest, 0, r.policy.MaxPicks)
	seen := make(map[poi.Category]bool)

	for _, p := range sorted {
		if len(picked) >= r.policy.MaxPicks {
			break
		}
		if seen[p.Category] && len(picked) >= r.policy.DiversityGrace {
			continue
		}
		picked = append(picked, p)
		seen[p.Category] = true
	}

	return picked
}

// Rank runs the full policy over candidates for a day with the given weather.
func (r *Ranker) Rank(candidates []poi.PointOfInterest, day *weather.Summary) Suggestion {
	bad := r.IsBadWeather(day)
	return Suggestion{
		Picks:      r.Pick(r.Sort(candidates, bad)),
		BadWeather: bad,
	}
}
