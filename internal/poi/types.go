package poi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neexbeast/wayfarer/internal/geo"
)

// ErrUnknownCity is returned when a city key or label is not supported.
var ErrUnknownCity = errors.New("unknown city")

// City identifies one of the supported destinations.
type City string

const (
	Rome   City = "rome"
	Paris  City = "paris"
	London City = "london"
)

// CityInfo holds display and map data for a city.
type CityInfo struct {
	Key    City           `json:"key"`
	Label  string         `json:"label"`
	Center geo.Coordinate `json:"center"`
}

var cities = map[City]CityInfo{
	Rome:   {Key: Rome, Label: "Roma", Center: geo.Coordinate{Lat: 41.9028, Lon: 12.4964}},
	Paris:  {Key: Paris, Label: "Parigi", Center: geo.Coordinate{Lat: 48.8566, Lon: 2.3522}},
	London: {Key: London, Label: "Londra", Center: geo.Coordinate{Lat: 51.5072, Lon: -0.1276}},
}

// Cities returns the supported cities in a stable order.
func Cities() []CityInfo {
	return []CityInfo{cities[Rome], cities[Paris], cities[London]}
}

// ParseCity accepts a city key ("rome") or its label ("Roma"), case-insensitively.
func ParseCity(s string) (City, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for key, info := range cities {
		if v == string(key) || v == strings.ToLower(info.Label) {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCity, s)
}

// Info returns the map data for c.
func (c City) Info() (CityInfo, bool) {
	info, ok := cities[c]
	return info, ok
}

// Category is the kind of attraction.
type Category string

const (
	Museum   Category = "museum"
	Monument Category = "monument"
	Park     Category = "park"
	Market   Category = "market"
	District Category = "district"
	Art      Category = "art"
	Church   Category = "church"
)

func (c Category) valid() bool {
	switch c {
	case Museum, Monument, Park, Market, District, Art, Church:
		return true
	}
	return false
}

// ParseCategory accepts a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// PointOfInterest is an immutable catalog record.
type PointOfInterest struct {
	ID       string         `json:"id"`
	City     City           `json:"city"`
	Name     string         `json:"name"`
	Category Category       `json:"category"`
	Indoor   bool           `json:"indoor"`
	Hours    string         `json:"hours,omitempty"`
	Price    *float64       `json:"price,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Location geo.Coordinate `json:"location"`
}

// Coordinate implements geo.Locatable.
func (p PointOfInterest) Coordinate() geo.Coordinate { return p.Location }

// Validate checks the record invariants.
func (p PointOfInterest) Validate() error {
	if p.ID == "" {
		return errors.New("poi: empty id")
	}
	if _, ok := cities[p.City]; !ok {
		return fmt.Errorf("poi %s: %w: %q", p.ID, ErrUnknownCity, p.City)
	}
	if !p.Category.valid() {
		return fmt.Errorf("poi %s: unknown category %q", p.ID, p.Category)
	}
	if p.Price != nil && *p.Price < 0 {
		return fmt.Errorf("poi %s: negative price %v", p.ID, *p.Price)
	}
	return nil
}

// Filter restricts candidates by indoor/outdoor.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterIndoor  Filter = "indoor"
	FilterOutdoor Filter = "outdoor"
)

// ParseFilter maps an empty string to FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterIndoor, FilterOutdoor:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// ApplyFilter returns the POIs matching f, preserving order.
func ApplyFilter(pois []PointOfInterest, f Filter) []PointOfInterest {
	out := make([]PointOfInterest, 0, len(pois))
	for _, p := range pois {
		switch {
		case f == FilterIndoor && !p.Indoor:
			continue
		case f == FilterOutdoor && p.Indoor:
			continue
		}
		out = append(out, p)
	}
	return out
}

// Price is a helper for building records with an explicit price.
func Price(v float64) *float64 { return &v }
