package routing

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carpoolsim/carpoolsim/sim"
)

// bruteForceLimit is the pickup-list size above which we fall back from
// exact permutation enumeration to the nearest-neighbor heuristic.
const bruteForceLimit = 3

// Engine computes pickup orderings, detour ratios and cost splits
// against a sim.MapOracle for travel-time lookups.
type Engine struct {
	oracle   sim.MapOracle
	capacity int
	tspCache map[string]tspResult
}

// NewEngine constructs a routing Engine bound to the given oracle and
// fleet-wide seat capacity (used by TryInsert's seat check).
func NewEngine(oracle sim.MapOracle, capacity int) *Engine {
	return &Engine{
		oracle:   oracle,
		capacity: capacity,
		tspCache: make(map[string]tspResult),
	}
}

type tspResult struct {
	route []sim.Location
	cost  float64
}

// SolvePickups finds the pickup order minimizing total travel duration
// from driverLocation through all of pickups to destination. For
// |pickups| <= 3 this enumerates every permutation exactly; otherwise
// it uses a nearest-neighbor heuristic. Returns route = [p_pi(1), ...,
// p_pi(k), destination] and the route's own duration, NOT including the
// driverLocation -> p_pi(1) leg (callers track that separately via
// PickupCost, so it is never double-counted).
func (e *Engine) SolvePickups(driverLocation sim.Location, pickups []sim.Location, destination sim.Location) ([]sim.Location, float64, error) {
	key := tspCacheKey(driverLocation, pickups, destination)
	if r, ok := e.tspCache[key]; ok {
		return r.route, r.cost, nil
	}

	var route []sim.Location
	var cost float64
	var err error
	if len(pickups) <= bruteForceLimit {
		route, cost, err = e.bruteForceTSP(driverLocation, pickups, destination)
	} else {
		route, cost, err = e.nearestNeighborTSP(driverLocation, pickups, destination)
	}
	if err != nil {
		return nil, 0, err
	}

	e.tspCache[key] = tspResult{route: route, cost: cost}
	return route, cost, nil
}

func (e *Engine) bruteForceTSP(start sim.Location, pickups []sim.Location, destination sim.Location) ([]sim.Location, float64, error) {
	bestCost := math.Inf(1)
	var bestRoute []sim.Location
	var err error

	permute(pickups, func(p []sim.Location) bool {
		full := make([]sim.Location, 0, len(p)+2)
		full = append(full, start)
		full = append(full, p...)
		full = append(full, destination)
		cost, cErr := e.routeCost(full)
		if cErr != nil {
			err = cErr
			return false
		}
		if cost < bestCost {
			bestCost = cost
			bestRoute = make([]sim.Location, 0, len(p)+1)
			bestRoute = append(bestRoute, p...)
			bestRoute = append(bestRoute, destination)
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	routeOnlyCost, err := e.routeCost(bestRoute)
	if err != nil {
		return nil, 0, err
	}
	return bestRoute, routeOnlyCost, nil
}

func (e *Engine) nearestNeighborTSP(start sim.Location, pickups []sim.Location, destination sim.Location) ([]sim.Location, float64, error) {
	remaining := append([]sim.Location{}, pickups...)
	route := make([]sim.Location, 0, len(pickups)+1)
	current := start

	for len(remaining) > 0 {
		bestIdx := -1
		bestDur := math.Inf(1)
		for i, p := range remaining {
			d, err := e.oracle.Duration(current, p)
			if err != nil {
				return nil, 0, err
			}
			if d < bestDur {
				bestDur = d
				bestIdx = i
			}
		}
		route = append(route, remaining[bestIdx])
		current = remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	route = append(route, destination)

	cost, err := e.routeCost(route)
	if err != nil {
		return nil, 0, err
	}
	return route, cost, nil
}

// routeCost sums consecutive-segment durations along the given
// waypoints, in order.
func (e *Engine) routeCost(route []sim.Location) (float64, error) {
	var total float64
	for i := 0; i < len(route)-1; i++ {
		d, err := e.oracle.Duration(route[i], route[i+1])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// permute calls visit with every permutation of items (Heap's
// algorithm), stopping early if visit returns false.
func permute(items []sim.Location, visit func([]sim.Location) bool) {
	n := len(items)
	buf := append([]sim.Location{}, items...)
	if n == 0 {
		visit(buf)
		return
	}
	c := make([]int, n)
	if !visit(append([]sim.Location{}, buf...)) {
		return
	}
	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				buf[0], buf[i] = buf[i], buf[0]
			} else {
				buf[c[i]], buf[i] = buf[i], buf[c[i]]
			}
			if !visit(append([]sim.Location{}, buf...)) {
				return
			}
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
}

// tspCacheKey builds a stable cache key from rounded coordinates,
// sorting the pickup list so permutations of the same set collide.
func tspCacheKey(start sim.Location, pickups []sim.Location, destination sim.Location) string {
	sorted := append([]sim.Location{}, pickups...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lat != sorted[j].Lat {
			return sorted[i].Lat < sorted[j].Lat
		}
		return sorted[i].Lon < sorted[j].Lon
	})

	var b strings.Builder
	writeLoc(&b, start)
	b.WriteByte('|')
	for _, p := range sorted {
		writeLoc(&b, p)
		b.WriteByte(';')
	}
	b.WriteByte('|')
	writeLoc(&b, destination)
	return b.String()
}

func writeLoc(b *strings.Builder, l sim.Location) {
	lat, lon := l.RoundedKey()
	b.WriteString(strconv.FormatFloat(lat, 'f', 6, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(lon, 'f', 6, 64))
}
