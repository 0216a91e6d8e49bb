package geo

import "math"

// Leg is one hop of a route.
type Leg struct {
	From       Coordinate `json:"from"`
	To         Coordinate `json:"to"`
	DistanceKm float64    `json:"distance_km"`
}

// Route is an ordered visit of stops. Legs[i] ends at Stops[i]; Legs[0]
// starts at the route's starting coordinate.
type Route[T Locatable] struct {
	Start   Coordinate `json:"start"`
	Stops   []T        `json:"stops"`
	Legs    []Leg      `json:"legs"`
	TotalKm float64    `json:"total_km"`
}

// NearestNeighbor orders points as a walking tour from start by always moving
// to the closest remaining point. Ties go to the earliest point in the input.
//
// This is a greedy O(n²) heuristic, not a shortest-tour solver: adversarial
// layouts can produce zig-zags. The input slice is not modified.
func NearestNeighbor[T Locatable](start Coordinate, points []T) Route[T] {
	route := Route[T]{
		Start: start,
		Stops: make([]T, 0, len(points)),
		Legs:  make([]Leg, 0, len(points)),
	}

	remaining := make([]T, len(points))
	copy(remaining, points)

	current := start
	for len(remaining) > 0 {
		bestIdx := 0
		bestDist := math.Inf(1)
		for i, p := range remaining {
			if d := Haversine(current, p.Coordinate()); d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}

		chosen := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		next := chosen.Coordinate()
		route.Stops = append(route.Stops, chosen)
		route.Legs = append(route.Legs, Leg{From: current, To: next, DistanceKm: bestDist})
		route.TotalKm += bestDist
		current = next
	}

	return route
}
