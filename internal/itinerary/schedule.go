package itinerary

import (
	"sort"

	"github.com/neexbeast/wayfarer/internal/poi"
)

// Period is a block of a sightseeing day.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
)

var periods = []Period{Morning, Afternoon, Evening}

// Slot assigns a POI to a day (1-based) and period.
type Slot struct {
	Day    int                 `json:"day"`
	Period Period              `json:"period"`
	POI    poi.PointOfInterest `json:"poi"`
}

// Schedule spreads ranked POIs over days, filling morning, afternoon and
// evening of each day in rank order. Each POI is used at most once, so the
// result holds min(days*3, len(ranked)) slots.
func Schedule(days int, ranked []poi.PointOfInterest) []Slot {
	if days <= 0 || len(ranked) == 0 {
		return nil
	}

	n := days * len(periods)
	if len(ranked) < n {
		n = len(ranked)
	}

	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, Slot{
			Day:    i/len(periods) + 1,
			Period: periods[i%len(periods)],
			POI:    ranked[i],
		})
	}
	return slots
}

// DefaultPreference is the weight of a category Preferences does not list.
const DefaultPreference = 0.5

// foodBonus is added to the weight of markets.
const foodBonus = 0.1

// Preferences weighs categories for multi-day trips; heavier comes first.
type Preferences map[poi.Category]float64

func (p Preferences) weight(c poi.Category) float64 {
	w, ok := p[c]
	if !ok {
		w = DefaultPreference
	}
	if c == poi.Market {
		w += foodBonus
	}
	return w
}

// Prioritize orders candidates by preference weight, keeping catalog order
// among equal weights. A non-empty selected list keeps only those ids.
func Prioritize(candidates []poi.PointOfInterest, prefs Preferences, selected []string) []poi.PointOfInterest {
	out := restrict(candidates, selected)
	sort.SliceStable(out, func(i, j int) bool {
		return prefs.weight(out[i].Category) > prefs.weight(out[j].Category)
	})
	return out
}

func restrict(candidates []poi.PointOfInterest, selected []string) []poi.PointOfInterest {
	out := make([]poi.PointOfInterest, 0, len(candidates))
	if len(selected) == 0 {
		return append(out, candidates...)
	}

	keep := make(map[string]bool, len(selected))
	for _, id := range selected {
		keep[id] = true
	}
	for _, p := range candidates {
		if keep[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
