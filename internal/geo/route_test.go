package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wayfarer/internal/geo"
)

type place struct {
	name string
	at   geo.Coordinate
}

func (p place) Coordinate() geo.Coordinate { return p.at }

// haversineRef is an independent implementation used to derive expectations.
func haversineRef(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Pow(math.Sin(dLon/2), 2)
	return 2 * 6371 * math.Asin(math.Sqrt(a))
}

var romeCenter = geo.Coordinate{Lat: 41.9028, Lon: 12.4964}

func TestHaversine_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, geo.Haversine(romeCenter, romeCenter))
}

func TestHaversine_KnownDistance(t *testing.T) {
	paris := geo.Coordinate{Lat: 48.8566, Lon: 2.3522}
	london := geo.Coordinate{Lat: 51.5072, Lon: -0.1276}

	d := geo.Haversine(paris, london)
	assert.InDelta(t, 343.5, d, 1.0)
	assert.InDelta(t, d, geo.Haversine(london, paris), 1e-9, "distance should be symmetric")
}

func TestNearestNeighbor_Empty(t *testing.T) {
	r := geo.NearestNeighbor[place](romeCenter, nil)
	assert.Empty(t, r.Stops)
	assert.Empty(t, r.Legs)
	assert.Equal(t, 0.0, r.TotalKm)
}

func TestNearestNeighbor_RomeScenario(t *testing.T) {
	colosseo := place{"Colosseo", geo.Coordinate{Lat: 41.8902, Lon: 12.4922}}
	pantheon := place{"Pantheon", geo.Coordinate{Lat: 41.8986, Lon: 12.4769}}

	dCol := haversineRef(41.9028, 12.4964, 41.8902, 12.4922)
	dPan := haversineRef(41.9028, 12.4964, 41.8986, 12.4769)

	want := []string{"Colosseo", "Pantheon"}
	if dPan < dCol {
		want = []string{"Pantheon", "Colosseo"}
	}

	r := geo.NearestNeighbor(romeCenter, []place{colosseo, pantheon})
	require.Len(t, r.Stops, 2)
	assert.Equal(t, want, []string{r.Stops[0].name, r.Stops[1].name})

	first := math.Min(dCol, dPan)
	assert.InDelta(t, first, r.Legs[0].DistanceKm, 1e-9)
	assert.Equal(t, romeCenter, r.Legs[0].From)
	assert.InDelta(t, haversineRef(41.8902, 12.4922, 41.8986, 12.4769), r.Legs[1].DistanceKm, 1e-9)
}

func TestNearestNeighbor_CompleteAndDeterministic(t *testing.T) {
	pts := []place{
		{"a", geo.Coordinate{Lat: 41.90, Lon: 12.45}},
		{"b", geo.Coordinate{Lat: 41.88, Lon: 12.50}},
		{"c", geo.Coordinate{Lat: 41.91, Lon: 12.49}},
		{"d", geo.Coordinate{Lat: 41.89, Lon: 12.47}},
		{"e", geo.Coordinate{Lat: 41.93, Lon: 12.52}},
	}
	orig := make([]place, len(pts))
	copy(orig, pts)

	first := geo.NearestNeighbor(romeCenter, pts)
	for i := 0; i < 5; i++ {
		again := geo.NearestNeighbor(romeCenter, pts)
		assert.Equal(t, first.Stops, again.Stops)
	}

	require.Len(t, first.Stops, len(pts))
	seen := map[string]int{}
	for _, s := range first.Stops {
		seen[s.name]++
	}
	for _, p := range pts {
		assert.Equal(t, 1, seen[p.name], "%s should appear exactly once", p.name)
	}

	sum := 0.0
	for _, l := range first.Legs {
		assert.GreaterOrEqual(t, l.DistanceKm, 0.0)
		sum += l.DistanceKm
	}
	assert.InDelta(t, sum, first.TotalKm, 1e-9)
	assert.Equal(t, orig, pts, "input should not be mutated")
}

func TestNearestNeighbor_TiesGoToFirst(t *testing.T) {
	// Two points mirrored around the start are equidistant.
	east := place{"east", geo.Coordinate{Lat: 0, Lon: 1}}
	west := place{"west", geo.Coordinate{Lat: 0, Lon: -1}}

	r := geo.NearestNeighbor(geo.Coordinate{}, []place{east, west})
	assert.Equal(t, "east", r.Stops[0].name)

	r = geo.NearestNeighbor(geo.Coordinate{}, []place{west, east})
	assert.Equal(t, "west", r.Stops[0].name)
}

func TestNearestNeighbor_Coordinates(t *testing.T) {
	pts := []geo.Coordinate{{Lat: 10, Lon: 10}, {Lat: 1, Lon: 1}}
	r := geo.NearestNeighbor(geo.Coordinate{}, pts)
	assert.Equal(t, []geo.Coordinate{{Lat: 1, Lon: 1}, {Lat: 10, Lon: 10}}, r.Stops)
}
