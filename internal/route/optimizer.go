// Package route orders waypoints between a fixed origin and destination and
// finds meeting points for groups. The optimizer is a heuristic: nearest
// neighbor seeded at the origin, refined by a budget-bounded pairwise-swap
// pass. It produces a good ordering, not a provably optimal tour.
package route

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
	"github.com/urbansight/geocore/internal/travel"
)

// swapBudget caps the number of pairwise swaps evaluated during refinement so
// large waypoint sets stay cheap.
const swapBudget = 1000

// Leg is one hop of the chosen order.
type Leg struct {
	From            geo.Location `json:"from"`
	To              geo.Location `json:"to"`
	DurationMinutes float64      `json:"duration_minutes"`
	DistanceMeters  float64      `json:"distance_meters"`
}

// Order is an optimized visiting order.
type Order struct {
	Stops                []geo.Location `json:"stops"`
	Legs                 []Leg          `json:"legs"`
	TotalDurationMinutes float64        `json:"total_duration_minutes"`
	TotalDistanceMeters  float64        `json:"total_distance_meters"`
	Mode                 travel.Mode    `json:"mode"`
	Approximate          bool           `json:"approximate"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

// Request describes a route to optimize. Waypoints may be empty.
type Request struct {
	Origin      geo.Location
	Destination geo.Location
	Waypoints   []geo.Location
	Mode        travel.Mode
}

// Optimizer orders waypoints using travel-time estimates.
type Optimizer struct {
	provider travel.Provider
}

// NewOptimizer returns an Optimizer over the provider.
func NewOptimizer(provider travel.Provider) *Optimizer {
	return &Optimizer{provider: provider}
}

// Optimize computes a visiting order for req. A provider failure invalidates
// the whole ordering, so it surfaces as an unreachable error rather than a
// partial result.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (*Order, error) {
	points := make([]geo.Location, 0, len(req.Waypoints)+2)
	points = append(points, req.Origin)
	points = append(points, req.Waypoints...)
	points = append(points, req.Destination)
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "route: point")
		}
	}
	if !req.Mode.Valid() {
		return nil, geoerr.InvalidInputf("route: unknown mode %q", req.Mode)
	}

	durations, distances, approximate, err := o.pairwiseMatrix(ctx, points, req.Mode)
	if err != nil {
		return nil, err
	}

	// Index 0 is origin, len-1 is destination; everything between is free to
	// reorder.
	order := nearestNeighborOrder(durations)
	swaps := refineOrder(order, durations, swapBudget)

	stops := make([]geo.Location, len(order))
	for i, idx := range order {
		stops[i] = points[idx]
	}
	result := &Order{
		Stops:       stops,
		Mode:        req.Mode,
		Approximate: approximate,
		GeneratedAt: time.Now().UTC(),
	}
	for i := 0; i < len(order)-1; i++ {
		a, b := order[i], order[i+1]
		leg := Leg{
			From:            points[a],
			To:              points[b],
			DurationMinutes: durations[a][b],
			DistanceMeters:  distances[a][b],
		}
		result.Legs = append(result.Legs, leg)
		result.TotalDurationMinutes += leg.DurationMinutes
		result.TotalDistanceMeters += leg.DistanceMeters
	}

	zap.L().Debug("route: order computed",
		zap.Int("waypoints", len(req.Waypoints)),
		zap.Int("swaps", swaps),
		zap.Float64("total_minutes", result.TotalDurationMinutes),
		zap.Bool("approximate", result.Approximate))
	return result, nil
}

// pairwiseMatrix fetches estimates for every ordered pair of points. Any
// provider failure means the tour cannot be costed.
func (o *Optimizer) pairwiseMatrix(ctx context.Context, points []geo.Location, mode travel.Mode) ([][]float64, [][]float64, bool, error) {
	n := len(points)
	var queries []travel.Query
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			queries = append(queries, travel.Query{Origin: points[i], Destination: points[j], Mode: mode})
		}
	}
	ests, err := o.provider.EstimateMany(ctx, queries)
	if err != nil {
		if geoerr.IsInvalidInput(err) {
			return nil, nil, false, err
		}
		return nil, nil, false, geoerr.Wrap(geoerr.KindUnreachable, err, "route: pairwise estimates")
	}

	durations := make([][]float64, n)
	distances := make([][]float64, n)
	for i := range durations {
		durations[i] = make([]float64, n)
		distances[i] = make([]float64, n)
	}
	approximate := false
	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			durations[i][j] = ests[k].DurationMinutes
			distances[i][j] = ests[k].DistanceMeters
			approximate = approximate || ests[k].Approximate
			k++
		}
	}
	return durations, distances, approximate, nil
}

// nearestNeighborOrder builds [0, ..., n-1] visiting intermediate points
// greedily by minimum duration from the current point.
func nearestNeighborOrder(durations [][]float64) []int {
	n := len(durations)
	order := make([]int, 0, n)
	order = append(order, 0)

	visited := make([]bool, n)
	visited[0], visited[n-1] = true, true
	current := 0
	for len(order) < n-1 {
		best := -1
		for cand := 1; cand < n-1; cand++ {
			if visited[cand] {
				continue
			}
			if best == -1 || durations[current][cand] < durations[current][best] {
				best = cand
			}
		}
		visited[best] = true
		order = append(order, best)
		current = best
	}
	return append(order, n-1)
}

// refineOrder tries swapping every pair of intermediate stops, keeping swaps
// that shorten the tour, until the evaluation budget runs out or a full pass
// finds no improvement. Returns the number of swaps applied.
func refineOrder(order []int, durations [][]float64, budget int) int {
	cost := func() float64 {
		var total float64
		for i := 0; i < len(order)-1; i++ {
			total += durations[order[i]][order[i+1]]
		}
		return total
	}

	swaps := 0
	evaluated := 0
	improved := true
	best := cost()
	for improved && evaluated < budget {
		improved = false
		for i := 1; i < len(order)-1 && evaluated < budget; i++ {
			for j := i + 1; j < len(order)-1 && evaluated < budget; j++ {
				evaluated++
				order[i], order[j] = order[j], order[i]
				if c := cost(); c < best {
					best = c
					swaps++
					improved = true
				} else {
					order[i], order[j] = order[j], order[i]
				}
			}
		}
	}
	return swaps
}
