package matching

import (
	"math"
	"math/rand"
	"testing"

	"github.com/carpoolsim/carpoolsim/sim"
)

// testRNG seeds trip-id generation in tests where the exact id value
// doesn't matter.
var testRNG = rand.New(rand.NewSource(1))

// gridOracle treats lat/lon as plain Cartesian coordinates at 1 unit
// per second of travel time and 1 unit per meter of distance, for
// deterministic test assertions.
type gridOracle struct{}

func (gridOracle) Duration(a, b sim.Location) (float64, error) {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon), nil
}

func (gridOracle) Distance(a, b sim.Location) (float64, error) {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon), nil
}

func driver(id string, loc sim.Location) *sim.Driver {
	return &sim.Driver{ID: id, Location: loc, Status: sim.DriverAvailable}
}

func request(id string, origin, dest sim.Location, arrival float64) *sim.Request {
	return &sim.Request{
		ID:          id,
		Origin:      origin,
		Destination: dest,
		ArrivalTime: arrival,
		Status:      sim.RequestWaiting,
	}
}

func worldWith(now float64, drivers []*sim.Driver, trips map[string]*sim.Trip, requests map[string]*sim.Request) *sim.World {
	return &sim.World{
		Now:                   now,
		AvailableDrivers:      drivers,
		ActiveTrips:           trips,
		ActiveRequests:        requests,
		Capacity:              4,
		DetourMax:             1.5,
		CapacityPenaltyWeight: 3.0,
	}
}
