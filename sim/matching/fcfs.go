package matching

import (
	"math/rand"
	"sort"

	"github.com/carpoolsim/carpoolsim/sim"
)

// looseDestinationBoundMeters is the "very permissive" destination
// compatibility check FCFS uses in place of the clusterer: accept an
// insertion candidate whenever the two destinations are within this
// distance, with no detour-ratio check at all (FCFS trades quality for
// simplicity by design).
const looseDestinationBoundMeters = 5000.0

// FCFS is the baseline matcher: greedy, first-come-first-served,
// no route re-optimization on insertion. Grounded on
// original_source/algorithms/fcfs_matcher.py.
type FCFS struct {
	oracle   sim.MapOracle
	capacity int
	rng      *rand.Rand
}

// NewFCFS constructs the baseline matcher. rng seeds its trip ids
// (sim.SubsystemIDs) so that two same-seed runs produce identical ids.
func NewFCFS(oracle sim.MapOracle, capacity int, rng *rand.Rand) *FCFS {
	return &FCFS{oracle: oracle, capacity: capacity, rng: rng}
}

// Name implements sim.Matcher.
func (f *FCFS) Name() string { return "fcfs" }

// TryInsert attempts to append req to the first active trip (in stable
// id order) with free capacity and a destination within the loose
// compatibility bound.
func (f *FCFS) TryInsert(w *sim.World, req *sim.Request) (bool, string) {
	for _, trip := range sortedTrips(w.ActiveTrips) {
		if trip.CapacityAvailable() <= 0 {
			continue
		}
		dist, err := f.oracle.Distance(trip.Destination, req.Destination)
		if err != nil || dist >= looseDestinationBoundMeters {
			continue
		}
		f.addToTrip(trip, req, w.Now)
		return true, trip.ID
	}
	return false, ""
}

// Dispatch walks every currently waiting request in arrival order,
// first trying insertion into an existing trip and otherwise assigning
// the earliest-available driver to a brand-new trip.
func (f *FCFS) Dispatch(w *sim.World) sim.MatchResult {
	result := sim.MatchResult{InsertedInto: make(map[string]string)}

	waiting := waitingRequestsSorted(w.ActiveRequests)
	drivers := sortedDriversByAvailability(w.AvailableDrivers)
	consumed := make(map[string]bool, len(drivers))

	for _, req := range waiting {
		inserted := false
		for _, trip := range sortedTrips(w.ActiveTrips) {
			if trip.CapacityAvailable() <= 0 {
				continue
			}
			dist, err := f.oracle.Distance(trip.Destination, req.Destination)
			if err != nil || dist >= looseDestinationBoundMeters {
				continue
			}
			f.addToTrip(trip, req, w.Now)
			result.InsertedInto[req.ID] = trip.ID
			inserted = true
			break
		}
		if inserted {
			continue
		}

		for _, d := range drivers {
			if consumed[d.ID] {
				continue
			}
			trip, err := f.createTrip(d, req, w.Now)
			if err != nil {
				continue
			}
			result.NewTrips = append(result.NewTrips, trip)
			result.ConsumedDrivers = append(result.ConsumedDrivers, d.ID)
			consumed[d.ID] = true
			break
		}
	}

	return result
}

// createTrip builds a new solo trip: route = [origin, destination], no
// TSP. The driver's travel to pickup is system overhead: it is charged
// to the trip's total route cost but not to the passenger, who pays
// only the route cost.
func (f *FCFS) createTrip(driver *sim.Driver, req *sim.Request, now float64) (*sim.Trip, error) {
	trip := sim.NewTrip(newTripID(f.rng), driver.ID, f.capacity)
	trip.Destination = req.Destination

	route := []sim.Location{req.Origin, req.Destination}
	routeCost, err := f.simpleRouteCost(route)
	if err != nil {
		return nil, err
	}
	pickupCost, err := f.oracle.Duration(driver.Location, req.Origin)
	if err != nil {
		return nil, err
	}

	costs := map[string]float64{req.ID: routeCost}
	detours := map[string]float64{req.ID: 1.0}
	trip.AddPassenger(req, route, costs, detours, pickupCost+routeCost, now)
	return trip, nil
}

// addToTrip appends req's pickup before the destination with no
// re-optimization, recomputes a plain consecutive-segment route cost,
// splits it equally among all passengers (not proportional to detour),
// and recomputes every passenger's detour ratio against the new route.
func (f *FCFS) addToTrip(trip *sim.Trip, req *sim.Request, now float64) {
	route := make([]sim.Location, 0, len(trip.Route)+1)
	route = append(route, trip.Route[:len(trip.Route)-1]...)
	route = append(route, req.Origin, trip.Destination)

	routeCost, err := f.simpleRouteCost(route)
	if err != nil {
		routeCost = trip.TotalRouteCost
	}

	passengers := append(append([]*sim.Request{}, trip.Passengers...), req)
	equalShare := routeCost / float64(len(passengers))
	costs := make(map[string]float64, len(passengers))
	for _, p := range passengers {
		costs[p.ID] = equalShare
	}

	detours := f.simpleDetours(route, passengers)

	trip.AddPassenger(req, route, costs, detours, routeCost, now)
}

// simpleRouteCost sums consecutive-segment durations with no TSP
// re-optimization, matching FCFS's intentionally unoptimized routing.
func (f *FCFS) simpleRouteCost(route []sim.Location) (float64, error) {
	if len(route) < 2 {
		return 0, nil
	}
	var total float64
	for i := 0; i < len(route)-1; i++ {
		d, err := f.oracle.Duration(route[i], route[i+1])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// simpleDetours computes each passenger's detour ratio against the
// plain route, falling back to 1.0 (not 0) when solo duration is zero
// or the pickup can't be matched by coordinate — the FCFS convention
// per original_source/algorithms/fcfs_matcher.py's _compute_simple_detours.
func (f *FCFS) simpleDetours(route []sim.Location, passengers []*sim.Request) map[string]float64 {
	detours := make(map[string]float64, len(passengers))
	for _, p := range passengers {
		solo, err := f.oracle.Duration(p.Origin, p.Destination)
		if err != nil || solo <= 0 {
			detours[p.ID] = 1.0
			continue
		}

		pickupIdx := -1
		for j, loc := range route {
			if loc.AlmostEqual(p.Origin, 1e-4) {
				pickupIdx = j
				break
			}
		}
		if pickupIdx == -1 {
			detours[p.ID] = 1.0
			continue
		}

		actual, err := f.simpleRouteCost(route[pickupIdx:])
		if err != nil {
			detours[p.ID] = 1.0
			continue
		}
		detours[p.ID] = actual / solo
	}
	return detours
}

func sortedTrips(trips map[string]*sim.Trip) []*sim.Trip {
	out := make([]*sim.Trip, 0, len(trips))
	for _, t := range trips {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func waitingRequestsSorted(requests map[string]*sim.Request) []*sim.Request {
	out := make([]*sim.Request, 0, len(requests))
	for _, r := range requests {
		if r.Status == sim.RequestWaiting {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ArrivalTime != out[j].ArrivalTime {
			return out[i].ArrivalTime < out[j].ArrivalTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedDriversByAvailability(drivers []*sim.Driver) []*sim.Driver {
	out := append([]*sim.Driver{}, drivers...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvailableSince != out[j].AvailableSince {
			return out[i].AvailableSince < out[j].AvailableSince
		}
		return out[i].ID < out[j].ID
	})
	return out
}
