package routing

import (
	"math"
	"testing"

	"github.com/carpoolsim/carpoolsim/sim"
)

// gridOracle treats lat/lon as plain Cartesian coordinates at 1 unit
// per second of travel time, for deterministic test assertions.
type gridOracle struct{}

func (gridOracle) Duration(a, b sim.Location) (float64, error) {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon), nil
}

func (gridOracle) Distance(a, b sim.Location) (float64, error) {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon), nil
}

func TestSolvePickups_BruteForceOrdersByTotalDistance(t *testing.T) {
	e := NewEngine(gridOracle{}, 4)
	start := sim.Location{Lat: 0, Lon: 0}
	dest := sim.Location{Lat: 10, Lon: 0}
	pickups := []sim.Location{
		{Lat: 2, Lon: 0},
		{Lat: 8, Lon: 0},
	}

	route, cost, err := e.SolvePickups(start, pickups, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route) != 3 {
		t.Fatalf("expected route of length 3 (2 pickups + dest), got %d", len(route))
	}
	// Optimal order is nearest-first: (2,0) then (8,0) then dest.
	if route[0] != (sim.Location{Lat: 2, Lon: 0}) {
		t.Errorf("expected first pickup at (2,0), got %+v", route[0])
	}
	// Route-only cost excludes the start -> first-pickup leg (tracked
	// separately via PickupCost): (2,0)->(8,0)->(10,0) = 6 + 2 = 8.
	if cost != 8 {
		t.Errorf("expected route-only cost 8, got %f", cost)
	}
}

// TestSolvePickups_BruteForceNeverWorseThanNearestNeighbor covers
// spec.md §8's TSP round-trip law: brute-force ordering costs no more
// than a naive nearest-neighbor ordering, for |P| <= 3.
func TestSolvePickups_BruteForceNeverWorseThanNearestNeighbor(t *testing.T) {
	e := NewEngine(gridOracle{}, 4)
	start := sim.Location{Lat: 0, Lon: 0}
	dest := sim.Location{Lat: 10, Lon: 0}
	pickups := []sim.Location{
		{Lat: 9, Lon: 0},
		{Lat: 1, Lon: 0},
		{Lat: 6, Lon: 0},
	}

	_, bruteCost, err := e.SolvePickups(start, pickups, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nnCost := nearestNeighborCost(start, pickups, dest)
	if bruteCost > nnCost+1e-9 {
		t.Errorf("expected brute-force cost %f to be <= nearest-neighbor cost %f", bruteCost, nnCost)
	}
}

// nearestNeighborCost greedily walks from the nearest unvisited pickup
// to the next, ending at dest — a deliberately naive baseline against
// which the engine's brute-force TSP is compared. The driverLocation ->
// first-pickup leg is excluded from the sum, matching SolvePickups'
// own route-only cost convention (tracked separately via PickupCost).
func nearestNeighborCost(start sim.Location, pickups []sim.Location, dest sim.Location) float64 {
	remaining := append([]sim.Location(nil), pickups...)
	cur := start
	cost := 0.0
	first := true
	for len(remaining) > 0 {
		best := 0
		bestDist := math.Hypot(cur.Lat-remaining[0].Lat, cur.Lon-remaining[0].Lon)
		for i := 1; i < len(remaining); i++ {
			d := math.Hypot(cur.Lat-remaining[i].Lat, cur.Lon-remaining[i].Lon)
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		if !first {
			cost += bestDist
		}
		first = false
		cur = remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	cost += math.Hypot(cur.Lat-dest.Lat, cur.Lon-dest.Lon)
	return cost
}

func TestSolvePickups_CachesRepeatedQueries(t *testing.T) {
	e := NewEngine(gridOracle{}, 4)
	start := sim.Location{Lat: 0, Lon: 0}
	dest := sim.Location{Lat: 10, Lon: 0}
	pickups := []sim.Location{{Lat: 2, Lon: 0}}

	_, _, err := e.SolvePickups(start, pickups, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.tspCache) != 1 {
		t.Fatalf("expected 1 cache entry, got %d", len(e.tspCache))
	}
	_, _, err = e.SolvePickups(start, pickups, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.tspCache) != 1 {
		t.Errorf("expected cache to stay at 1 entry on repeat query, got %d", len(e.tspCache))
	}
}

func TestComputeDetourRatios_MatchesPickupByCoordinate(t *testing.T) {
	e := NewEngine(gridOracle{}, 4)
	dest := sim.Location{Lat: 10, Lon: 0}
	p1 := PassengerLeg{ID: "r1", Origin: sim.Location{Lat: 0, Lon: 0}, Destination: dest}
	p2 := PassengerLeg{ID: "r2", Origin: sim.Location{Lat: 5, Lon: 0}, Destination: dest}
	route := []sim.Location{p1.Origin, p2.Origin, dest}

	detours, err := e.ComputeDetourRatios(route, []PassengerLeg{p1, p2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// p1: solo=10, actual=10 (pickup at index 0, full route to dest) -> ratio 1.
	if math.Abs(detours["r1"]-1.0) > 1e-9 {
		t.Errorf("expected r1 detour ratio 1.0, got %f", detours["r1"])
	}
	// p2: solo=5, actual=5 (pickup at index 1, route[1:] = [p2, dest]) -> ratio 1.
	if math.Abs(detours["r2"]-1.0) > 1e-9 {
		t.Errorf("expected r2 detour ratio 1.0, got %f", detours["r2"])
	}
}

func TestSplitCosts_ProportionalToDetourRatio(t *testing.T) {
	costs := SplitCosts(100, map[string]float64{"a": 1.0, "b": 3.0})
	if math.Abs(costs["a"]-25) > 1e-9 {
		t.Errorf("expected a's share 25, got %f", costs["a"])
	}
	if math.Abs(costs["b"]-75) > 1e-9 {
		t.Errorf("expected b's share 75, got %f", costs["b"])
	}
}

func TestSplitCosts_EqualSplitWhenRatiosSumToZero(t *testing.T) {
	costs := SplitCosts(100, map[string]float64{"a": 0, "b": 0})
	if costs["a"] != 50 || costs["b"] != 50 {
		t.Errorf("expected equal 50/50 split, got %+v", costs)
	}
}

func TestFeasible_RejectsAboveMaxDetour(t *testing.T) {
	if Feasible(map[string]float64{"a": 1.6}, 1.5) {
		t.Errorf("expected infeasible at ratio 1.6 with cap 1.5")
	}
	if !Feasible(map[string]float64{"a": 1.4}, 1.5) {
		t.Errorf("expected feasible at ratio 1.4 with cap 1.5")
	}
}

func TestTryInsert_RejectsWhenAtCapacity(t *testing.T) {
	e := NewEngine(gridOracle{}, 1)
	dest := sim.Location{Lat: 10, Lon: 0}
	existing := []PassengerLeg{{ID: "r1", Origin: sim.Location{Lat: 2, Lon: 0}, Destination: dest}}
	_, ok, err := e.TryInsert(sim.Location{Lat: 0, Lon: 0}, existing, map[string]float64{"r1": 10}, PassengerLeg{ID: "r2", Origin: sim.Location{Lat: 5, Lon: 0}, Destination: dest}, dest, 1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected insertion to be rejected at capacity")
	}
}

func TestTryInsert_FindsFeasibleInsertion(t *testing.T) {
	e := NewEngine(gridOracle{}, 4)
	dest := sim.Location{Lat: 10, Lon: 0}
	existing := []PassengerLeg{{ID: "r1", Origin: sim.Location{Lat: 2, Lon: 0}, Destination: dest}}
	result, ok, err := e.TryInsert(sim.Location{Lat: 0, Lon: 0}, existing, map[string]float64{"r1": 8}, PassengerLeg{ID: "r2", Origin: sim.Location{Lat: 5, Lon: 0}, Destination: dest}, dest, 1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a feasible insertion")
	}
	if len(result.Route) != 3 {
		t.Errorf("expected route of length 3, got %d", len(result.Route))
	}
}
