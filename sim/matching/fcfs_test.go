package matching

import (
	"math"
	"testing"

	"github.com/carpoolsim/carpoolsim/sim"
)

func TestFCFS_DispatchCreatesTripForWaitingRequestWithNoExistingTrip(t *testing.T) {
	f := NewFCFS(gridOracle{}, 4, testRNG)
	d := driver("d1", sim.Location{Lat: 0, Lon: 0})
	r := request("r1", sim.Location{Lat: 1, Lon: 0}, sim.Location{Lat: 10, Lon: 0}, 0)

	w := worldWith(0, []*sim.Driver{d}, map[string]*sim.Trip{}, map[string]*sim.Request{"r1": r})
	result := f.Dispatch(w)

	if len(result.NewTrips) != 1 {
		t.Fatalf("expected 1 new trip, got %d", len(result.NewTrips))
	}
	trip := result.NewTrips[0]
	if trip.DriverID != "d1" {
		t.Errorf("expected driver d1, got %s", trip.DriverID)
	}
	if len(trip.Route) != 2 || trip.Route[0] != r.Origin || trip.Route[1] != r.Destination {
		t.Errorf("expected route [origin, destination], got %+v", trip.Route)
	}
	// Solo passenger pays only the route cost (pickup cost is overhead).
	wantCost, _ := gridOracle{}.Duration(r.Origin, r.Destination)
	if math.Abs(trip.IndividualCost["r1"]-wantCost) > 1e-9 {
		t.Errorf("expected cost %f, got %f", wantCost, trip.IndividualCost["r1"])
	}
	if trip.DetourRatios["r1"] != 1.0 {
		t.Errorf("expected detour ratio 1.0 for solo trip, got %f", trip.DetourRatios["r1"])
	}
	if r.Status != sim.RequestMatched {
		t.Errorf("expected request matched, got %v", r.Status)
	}
}

func TestFCFS_DispatchInsertsIntoCompatibleTrip(t *testing.T) {
	f := NewFCFS(gridOracle{}, 4, testRNG)
	dest := sim.Location{Lat: 10, Lon: 0}

	existing := request("r1", sim.Location{Lat: 1, Lon: 0}, dest, -5)
	trip := sim.NewTrip("t1", "d1", 4)
	trip.Destination = dest
	trip.AddPassenger(existing, []sim.Location{existing.Origin, dest}, map[string]float64{"r1": 9}, map[string]float64{"r1": 1.0}, 9, -5)

	newReq := request("r2", sim.Location{Lat: 2, Lon: 0}, dest, 0)
	w := worldWith(0, nil, map[string]*sim.Trip{"t1": trip}, map[string]*sim.Request{"r2": newReq})

	result := f.Dispatch(w)
	if len(result.NewTrips) != 0 {
		t.Fatalf("expected no new trips, got %d", len(result.NewTrips))
	}
	if result.InsertedInto["r2"] != "t1" {
		t.Fatalf("expected r2 inserted into t1, got %q", result.InsertedInto["r2"])
	}
	if len(trip.Passengers) != 2 {
		t.Fatalf("expected 2 passengers after insertion, got %d", len(trip.Passengers))
	}
	// Equal split, not detour-proportional.
	if trip.IndividualCost["r1"] != trip.IndividualCost["r2"] {
		t.Errorf("expected equal cost split, got r1=%f r2=%f", trip.IndividualCost["r1"], trip.IndividualCost["r2"])
	}
}

func TestFCFS_DispatchRejectsFarDestination(t *testing.T) {
	f := NewFCFS(gridOracle{}, 4, testRNG)

	existing := request("r1", sim.Location{Lat: 1, Lon: 0}, sim.Location{Lat: 10, Lon: 0}, -5)
	trip := sim.NewTrip("t1", "d1", 4)
	trip.Destination = existing.Destination
	trip.AddPassenger(existing, []sim.Location{existing.Origin, existing.Destination}, map[string]float64{"r1": 9}, map[string]float64{"r1": 1.0}, 9, -5)

	farReq := request("r2", sim.Location{Lat: 2, Lon: 0}, sim.Location{Lat: -50000, Lon: 0}, 0)
	w := worldWith(0, nil, map[string]*sim.Trip{"t1": trip}, map[string]*sim.Request{"r2": farReq})

	result := f.Dispatch(w)
	if len(result.InsertedInto) != 0 {
		t.Errorf("expected no insertion for far destination, got %+v", result.InsertedInto)
	}
	if len(result.NewTrips) != 0 {
		t.Errorf("expected no new trip without an available driver, got %d", len(result.NewTrips))
	}
}

func TestFCFS_TryInsertMatchesCapacityAvailableTrip(t *testing.T) {
	f := NewFCFS(gridOracle{}, 4, testRNG)
	dest := sim.Location{Lat: 10, Lon: 0}
	existing := request("r1", sim.Location{Lat: 1, Lon: 0}, dest, -5)
	trip := sim.NewTrip("t1", "d1", 4)
	trip.Destination = dest
	trip.AddPassenger(existing, []sim.Location{existing.Origin, dest}, map[string]float64{"r1": 9}, map[string]float64{"r1": 1.0}, 9, -5)

	req := request("r2", sim.Location{Lat: 3, Lon: 0}, dest, 0)
	w := worldWith(0, nil, map[string]*sim.Trip{"t1": trip}, map[string]*sim.Request{"r2": req})

	ok, tripID := f.TryInsert(w, req)
	if !ok || tripID != "t1" {
		t.Fatalf("expected insertion into t1, got ok=%v tripID=%q", ok, tripID)
	}
}

// TestFCFS_DispatchPicksDriverWithMinimumAvailableSince covers spec.md
// §8's invariant: FCFS selects the driver with minimum available_since
// when creating a new trip, regardless of slice order or location.
func TestFCFS_DispatchPicksDriverWithMinimumAvailableSince(t *testing.T) {
	f := NewFCFS(gridOracle{}, 4, testRNG)
	late := driver("late", sim.Location{Lat: 0, Lon: 0})
	late.AvailableSince = 50
	early := driver("early", sim.Location{Lat: 100, Lon: 0})
	early.AvailableSince = 5
	mid := driver("mid", sim.Location{Lat: 0, Lon: 0})
	mid.AvailableSince = 20

	r := request("r1", sim.Location{Lat: 1, Lon: 0}, sim.Location{Lat: 10, Lon: 0}, 0)
	w := worldWith(0, []*sim.Driver{late, early, mid}, map[string]*sim.Trip{}, map[string]*sim.Request{"r1": r})

	result := f.Dispatch(w)
	if len(result.NewTrips) != 1 {
		t.Fatalf("expected 1 new trip, got %d", len(result.NewTrips))
	}
	if result.NewTrips[0].DriverID != "early" {
		t.Errorf("expected the earliest-available driver to be picked, got %s", result.NewTrips[0].DriverID)
	}
}

func TestFCFS_Name(t *testing.T) {
	if NewFCFS(gridOracle{}, 4, testRNG).Name() != "fcfs" {
		t.Errorf("expected name fcfs")
	}
}
