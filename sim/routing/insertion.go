package routing

import (
	"math"

	"github.com/carpoolsim/carpoolsim/sim"
)

// InsertionResult is a feasible insertion of a new request into an
// existing trip: the re-solved route, per-passenger cost shares and
// detour ratios, and the resulting total route cost.
type InsertionResult struct {
	Route          []sim.Location
	Costs          map[string]float64
	DetourRatios   map[string]float64
	TotalRouteCost float64
}

// TryInsert attempts to insert newPassenger into an existing trip route
// at each of the |passengers|+1 candidate positions, re-solving TSP and
// detours at each, and returns the feasible candidate with the smallest
// increase in total allocated cost over existingCosts. Returns false if
// the trip is at capacity or no candidate satisfies maxDetour.
func (e *Engine) TryInsert(
	driverLocation sim.Location,
	passengers []PassengerLeg,
	existingCosts map[string]float64,
	newPassenger PassengerLeg,
	destination sim.Location,
	maxDetour float64,
) (InsertionResult, bool, error) {
	if len(passengers) >= e.capacity {
		return InsertionResult{}, false, nil
	}

	originalTotal := 0.0
	for _, c := range existingCosts {
		originalTotal += c
	}

	var best InsertionResult
	found := false
	minIncrease := math.Inf(1)

	for pos := 0; pos <= len(passengers); pos++ {
		testPassengers := make([]PassengerLeg, 0, len(passengers)+1)
		testPassengers = append(testPassengers, passengers[:pos]...)
		testPassengers = append(testPassengers, newPassenger)
		testPassengers = append(testPassengers, passengers[pos:]...)

		pickups := make([]sim.Location, len(testPassengers))
		for i, p := range testPassengers {
			pickups[i] = p.Origin
		}

		route, cost, err := e.SolvePickups(driverLocation, pickups, destination)
		if err != nil {
			return InsertionResult{}, false, err
		}

		detours, err := e.ComputeDetourRatios(route, testPassengers)
		if err != nil {
			return InsertionResult{}, false, err
		}
		if !Feasible(detours, maxDetour) {
			continue
		}

		costs := SplitCosts(cost, detours)
		newTotal := 0.0
		for _, c := range costs {
			newTotal += c
		}
		increase := newTotal - originalTotal

		if increase < minIncrease {
			minIncrease = increase
			best = InsertionResult{
				Route:          route,
				Costs:          costs,
				DetourRatios:   detours,
				TotalRouteCost: cost,
			}
			found = true
		}
	}

	return best, found, nil
}
