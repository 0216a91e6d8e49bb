package poi

import (
	"context"

	"github.com/neexbeast/wayfarer/internal/geo"
)

// Catalog is a read-only source of POIs keyed by city.
type Catalog interface {
	List(ctx context.Context, city City) ([]PointOfInterest, error)
	// Get returns nil, nil when the id is unknown.
	Get(ctx context.Context, city City, id string) (*PointOfInterest, error)
}

// StaticCatalog serves the bundled POI table.
type StaticCatalog struct {
	byCity map[City][]PointOfInterest
}

// NewStaticCatalog builds a catalog over the bundled records.
func NewStaticCatalog() *StaticCatalog {
	return NewStaticCatalogFrom(bundled)
}

// NewStaticCatalogFrom builds a catalog over the given records.
func NewStaticCatalogFrom(records []PointOfInterest) *StaticCatalog {
	byCity := make(map[City][]PointOfInterest)
	for _, p := range records {
		byCity[p.City] = append(byCity[p.City], p)
	}
	return &StaticCatalog{byCity: byCity}
}

// List returns a copy of the city's POIs in catalog order.
func (c *StaticCatalog) List(_ context.Context, city City) ([]PointOfInterest, error) {
	src := c.byCity[city]
	out := make([]PointOfInterest, len(src))
	copy(out, src)
	return out, nil
}

// Get looks up a POI by id.
func (c *StaticCatalog) Get(_ context.Context, city City, id string) (*PointOfInterest, error) {
	for _, p := range c.byCity[city] {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

// Bundled returns a copy of the bundled records, used to seed storage.
func Bundled() []PointOfInterest {
	out := make([]PointOfInterest, len(bundled))
	copy(out, bundled)
	return out
}

func at(lat, lon float64) geo.Coordinate { return geo.Coordinate{Lat: lat, Lon: lon} }

var bundled = []PointOfInterest{
	// Rome
	{ID: "rm-colosseo", City: Rome, Name: "Colosseo", Category: Monument, Indoor: false, Hours: "08:30–19:00", Price: Price(16), Tags: []string{"historic", "icon"}, Location: at(41.8902, 12.4922)},
	{ID: "rm-foro", City: Rome, Name: "Foro Romano", Category: Monument, Indoor: false, Hours: "09:00–19:00", Price: Price(12), Tags: []string{"historic", "ruins"}, Location: at(41.8925, 12.4853)},
	{ID: "rm-vaticani", City: Rome, Name: "Musei Vaticani", Category: Museum, Indoor: true, Hours: "09:00–18:00", Price: Price(17), Tags: []string{"art", "museum"}, Location: at(41.9065, 12.4536)},
	{ID: "rm-pantheon", City: Rome, Name: "Pantheon", Category: Church, Indoor: true, Hours: "09:00–19:00", Price: Price(0), Tags: []string{"architecture"}, Location: at(41.8986, 12.4769)},
	{ID: "rm-villa-borghese", City: Rome, Name: "Villa Borghese", Category: Park, Indoor: false, Hours: "Always open", Price: Price(0), Tags: []string{"green", "relax"}, Location: at(41.9142, 12.4922)},
	{ID: "rm-galleria-borghese", City: Rome, Name: "Galleria Borghese", Category: Museum, Indoor: true, Hours: "09:00–19:00", Price: Price(15), Tags: []string{"art"}, Location: at(41.9142, 12.4921)},
	{ID: "rm-trastevere", City: Rome, Name: "Trastevere", Category: District, Indoor: false, Tags: []string{"food", "nightlife"}, Location: at(41.8894, 12.4708)},
	{ID: "rm-campo-de-fiori", City: Rome, Name: "Campo de' Fiori", Category: Market, Indoor: false, Hours: "07:00–14:00", Price: Price(0), Tags: []string{"food", "market"}, Location: at(41.8956, 12.4722)},

	// Paris
	{ID: "pa-louvre", City: Paris, Name: "Louvre", Category: Museum, Indoor: true, Hours: "09:00–18:00", Price: Price(17), Tags: []string{"art", "icon"}, Location: at(48.8606, 2.3376)},
	{ID: "pa-orsay", City: Paris, Name: "Musée d'Orsay", Category: Museum, Indoor: true, Hours: "09:30–18:00", Price: Price(16), Tags: []string{"impressionism"}, Location: at(48.8600, 2.3266)},
	{ID: "pa-eiffel", City: Paris, Name: "Tour Eiffel", Category: Monument, Indoor: false, Hours: "09:30–23:45", Price: Price(26), Tags: []string{"icon", "view"}, Location: at(48.8584, 2.2945)},
	{ID: "pa-tuileries", City: Paris, Name: "Jardin des Tuileries", Category: Park, Indoor: false, Hours: "07:00–21:00", Price: Price(0), Tags: []string{"green"}, Location: at(48.8635, 2.3270)},
	{ID: "pa-notre-dame", City: Paris, Name: "Notre-Dame (exterior)", Category: Church, Indoor: false, Price: Price(0), Tags: []string{"gothic"}, Location: at(48.8530, 2.3499)},
	{ID: "pa-pompidou", City: Paris, Name: "Centre Pompidou", Category: Museum, Indoor: true, Hours: "11:00–21:00", Price: Price(15), Tags: []string{"modern"}, Location: at(48.8607, 2.3522)},
	{ID: "pa-le-marais", City: Paris, Name: "Le Marais", Category: District, Indoor: false, Tags: []string{"food", "shopping"}, Location: at(48.8579, 2.3626)},

	// London
	{ID: "ld-british", City: London, Name: "British Museum", Category: Museum, Indoor: true, Hours: "10:00–17:30", Price: Price(0), Tags: []string{"history", "museum"}, Location: at(51.5194, -0.1270)},
	{ID: "ld-tower", City: London, Name: "Tower of London", Category: Monument, Indoor: false, Hours: "09:00–17:30", Price: Price(29), Tags: []string{"crown", "history"}, Location: at(51.5081, -0.0759)},
	{ID: "ld-nhm", City: London, Name: "Natural History Museum", Category: Museum, Indoor: true, Hours: "10:00–17:50", Price: Price(0), Tags: []string{"family"}, Location: at(51.4967, -0.1764)},
	{ID: "ld-hyde", City: London, Name: "Hyde Park", Category: Park, Indoor: false, Hours: "05:00–24:00", Price: Price(0), Tags: []string{"green", "relax"}, Location: at(51.5073, -0.1657)},
	{ID: "ld-tate", City: London, Name: "Tate Modern", Category: Art, Indoor: true, Hours: "10:00–18:00", Price: Price(0), Tags: []string{"modern"}, Location: at(51.5076, -0.0994)},
	{ID: "ld-westminster", City: London, Name: "Westminster Abbey", Category: Church, Indoor: true, Hours: "09:30–15:30", Price: Price(29), Tags: []string{"gothic"}, Location: at(51.4993, -0.1273)},
	{ID: "ld-borough", City: London, Name: "Borough Market", Category: Market, Indoor: false, Hours: "10:00–17:00", Tags: []string{"food"}, Location: at(51.5055, -0.0910)},
}
