package matching

import (
	"math/rand"

	"github.com/carpoolsim/carpoolsim/sim"
	"github.com/carpoolsim/carpoolsim/sim/clustering"
	"github.com/carpoolsim/carpoolsim/sim/routing"
)

// Optimal is the batch matcher: destination clustering narrows the
// search space, the Enumerator generates every feasible (driver,
// request-subset) group, and SolveIP picks a driver/request-disjoint
// subset maximizing coverage net of cost. Grounded on
// original_source/algorithms/assignment_p1_carpool.py.
type Optimal struct {
	engine                *routing.Engine
	clusterer             *clustering.Clusterer
	capacity              int
	maxDetour             float64
	capacityPenaltyWeight float64
	rng                   *rand.Rand
}

// NewOptimal constructs the batch matcher. rng seeds its trip ids
// (sim.SubsystemIDs) so that two same-seed runs produce identical ids.
func NewOptimal(engine *routing.Engine, clusterer *clustering.Clusterer, capacity int, maxDetour, capacityPenaltyWeight float64, rng *rand.Rand) *Optimal {
	return &Optimal{
		engine:                engine,
		clusterer:             clusterer,
		capacity:              capacity,
		maxDetour:             maxDetour,
		capacityPenaltyWeight: capacityPenaltyWeight,
		rng:                   rng,
	}
}

// Name implements sim.Matcher.
func (o *Optimal) Name() string { return "optimal" }

// TryInsert attempts a trial insertion into each active trip with free
// capacity, re-solving the TSP and detours at every candidate position
// (sim/routing.Engine.TryInsert), and commits the cheapest feasible
// candidate found across all trips.
func (o *Optimal) TryInsert(w *sim.World, req *sim.Request) (bool, string) {
	var bestTrip *sim.Trip
	var bestResult routing.InsertionResult
	var bestPickupCost float64
	bestIncrease := -1.0

	newLeg := routing.PassengerLeg{ID: req.ID, Origin: req.Origin, Destination: req.Destination}

	for _, trip := range sortedTrips(w.ActiveTrips) {
		if trip.CapacityAvailable() <= 0 {
			continue
		}
		driver := trip.Route[trip.CurrentPositionIndex]

		legs := make([]routing.PassengerLeg, len(trip.Passengers))
		for i, p := range trip.Passengers {
			legs[i] = routing.PassengerLeg{ID: p.ID, Origin: p.Origin, Destination: p.Destination}
		}

		result, ok, err := o.engine.TryInsert(driver, legs, trip.IndividualCost, newLeg, trip.Destination, o.maxDetour)
		if err != nil || !ok {
			continue
		}

		pickupCost, err := o.engine.PickupCost(driver, result.Route[0])
		if err != nil {
			continue
		}

		existingTotal := 0.0
		for _, c := range trip.IndividualCost {
			existingTotal += c
		}
		newTotal := 0.0
		for _, c := range result.Costs {
			newTotal += c
		}
		increase := newTotal - existingTotal

		if bestIncrease < 0 || increase < bestIncrease {
			bestIncrease = increase
			bestTrip = trip
			bestResult = result
			bestPickupCost = pickupCost
		}
	}

	if bestTrip == nil {
		return false, ""
	}

	bestTrip.AddPassenger(req, bestResult.Route, bestResult.Costs, bestResult.DetourRatios, bestPickupCost+bestResult.TotalRouteCost, w.Now)
	return true, bestTrip.ID
}

// Dispatch runs destination clustering, enumerates feasible groups for
// every available driver, solves the binary integer program over them,
// and materializes the winning groups as new trips.
func (o *Optimal) Dispatch(w *sim.World) sim.MatchResult {
	result := sim.MatchResult{InsertedInto: make(map[string]string)}

	waiting := waitingRequestsSorted(w.ActiveRequests)
	if len(waiting) == 0 || len(w.AvailableDrivers) == 0 {
		return result
	}

	clusters := o.clusterer.Cluster(waiting)

	enumerator := NewEnumerator(o.engine, o.clusterer, o.capacity, o.maxDetour)
	candidates := enumerator.Enumerate(w.AvailableDrivers, clusters)
	if len(candidates) == 0 {
		return result
	}

	assignment := SolveIP(candidates, o.capacity, o.capacityPenaltyWeight)

	for _, g := range assignment.Groups {
		trip := sim.NewTrip(newTripID(o.rng), g.Driver.ID, o.capacity)
		trip.Destination = g.Requests[0].Destination

		// The group was already fully solved against all its requests at
		// once, so every AddPassenger call installs the same final route,
		// cost split and detour map; only t.Passengers grows per call.
		for _, req := range g.Requests {
			trip.AddPassenger(req, g.Route, g.IndividualCost, g.DetourRatios, g.PickupCost+g.RouteCost, w.Now)
		}

		result.NewTrips = append(result.NewTrips, trip)
		result.ConsumedDrivers = append(result.ConsumedDrivers, g.Driver.ID)
	}

	return result
}
