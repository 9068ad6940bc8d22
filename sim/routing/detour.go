package routing

import (
	"gonum.org/v1/gonum/floats"

	"github.com/carpoolsim/carpoolsim/sim"
)

// pickupMatchTolerance is the coordinate tolerance (degrees) used to
// match a passenger's origin to a route waypoint.
const pickupMatchTolerance = 1e-4

// PassengerLeg carries the per-passenger inputs compute needs: their id
// and origin/destination. A leg's index in the passengers slice is its
// position, used as a fallback when coordinate matching fails.
type PassengerLeg struct {
	ID          string
	Origin      sim.Location
	Destination sim.Location
}

// ComputeDetourRatios computes, for each passenger, the ratio of their
// actual shared-ride duration (from their pickup waypoint to the shared
// destination) to their solo duration (origin directly to destination).
// The passenger's pickup is matched to the route entry agreeing within
// pickupMatchTolerance degrees; failing that, the passenger's positional
// index in the passengers slice is used.
func (e *Engine) ComputeDetourRatios(route []sim.Location, passengers []PassengerLeg) (map[string]float64, error) {
	detours := make(map[string]float64, len(passengers))

	soloTimes := make(map[string]float64, len(passengers))
	for _, p := range passengers {
		d, err := e.oracle.Duration(p.Origin, p.Destination)
		if err != nil {
			return nil, err
		}
		soloTimes[p.ID] = d
	}

	for i, p := range passengers {
		pickupIdx := -1
		for j := 0; j < len(route)-1; j++ {
			if route[j].AlmostEqual(p.Origin, pickupMatchTolerance) {
				pickupIdx = j
				break
			}
		}
		if pickupIdx == -1 {
			pickupIdx = i
		}
		if pickupIdx >= len(route) {
			pickupIdx = len(route) - 1
		}

		actual, err := e.routeCost(route[pickupIdx:])
		if err != nil {
			return nil, err
		}

		solo := soloTimes[p.ID]
		if solo == 0 {
			detours[p.ID] = 0
			continue
		}
		detours[p.ID] = actual / solo
	}
	return detours, nil
}

// SplitCosts distributes totalRouteCost among passengers proportional
// to their detour ratio (higher detour pays a larger share); falls back
// to an equal split if the ratios sum to zero.
func SplitCosts(totalRouteCost float64, detourRatios map[string]float64) map[string]float64 {
	costs := make(map[string]float64, len(detourRatios))
	if len(detourRatios) == 0 {
		return costs
	}

	ratios := make([]float64, 0, len(detourRatios))
	for _, r := range detourRatios {
		ratios = append(ratios, r)
	}
	total := floats.Sum(ratios)

	if total == 0 {
		equal := totalRouteCost / float64(len(detourRatios))
		for id := range detourRatios {
			costs[id] = equal
		}
		return costs
	}

	for id, r := range detourRatios {
		costs[id] = totalRouteCost * (r / total)
	}
	return costs
}

// PickupCost returns the driver's travel duration to the first pickup,
// charged to the trip's total cost but not split among passengers.
func (e *Engine) PickupCost(driverLocation, firstPickup sim.Location) (float64, error) {
	return e.oracle.Duration(driverLocation, firstPickup)
}

// Feasible reports whether every detour ratio is within maxDetour.
func Feasible(detourRatios map[string]float64, maxDetour float64) bool {
	for _, r := range detourRatios {
		if r > maxDetour {
			return false
		}
	}
	return true
}
