package sim

import "testing"

func TestLocation_AlmostEqual(t *testing.T) {
	a := Location{Lat: 19.0760, Lon: 72.8777}
	b := Location{Lat: 19.07601, Lon: 72.87771}
	if !a.AlmostEqual(b, 1e-4) {
		t.Errorf("expected %+v and %+v to be almost equal within 1e-4", a, b)
	}
	c := Location{Lat: 19.0770, Lon: 72.8777}
	if a.AlmostEqual(c, 1e-4) {
		t.Errorf("expected %+v and %+v to differ beyond 1e-4", a, c)
	}
}

func TestLocation_RoundedKey(t *testing.T) {
	a := Location{Lat: 19.07600049, Lon: 72.87770051}
	lat, lon := a.RoundedKey()
	if lat != 19.0760 || lon != 72.877701 {
		t.Errorf("expected rounded key (19.076, 72.877701), got (%f, %f)", lat, lon)
	}
}

func TestTrip_AddPassenger_DetourRatioOneForSoloTrip(t *testing.T) {
	trip := NewTrip("trip-1", "driver-1", 3)
	req := &Request{ID: "req-1", Origin: Location{Lat: 0, Lon: 0}, Destination: Location{Lat: 1, Lon: 1}}
	route := []Location{req.Origin, req.Destination}

	trip.AddPassenger(req, route, map[string]float64{"req-1": 10}, map[string]float64{"req-1": 1.0}, 10, 0)

	if len(trip.Passengers) != 1 {
		t.Fatalf("expected 1 passenger, got %d", len(trip.Passengers))
	}
	if trip.DetourRatios["req-1"] != 1.0 {
		t.Errorf("expected detour ratio 1.0 for a solo trip, got %f", trip.DetourRatios["req-1"])
	}
}

func TestTrip_CapacityAvailableAndIsFull(t *testing.T) {
	trip := NewTrip("trip-1", "driver-1", 2)
	if trip.CapacityAvailable() != 2 {
		t.Errorf("expected 2 open seats on a fresh trip, got %d", trip.CapacityAvailable())
	}
	if trip.IsFull() {
		t.Errorf("expected a fresh trip not to be full")
	}

	for i := 0; i < 2; i++ {
		req := &Request{ID: string(rune('a' + i))}
		trip.AddPassenger(req, []Location{{}, {}}, map[string]float64{req.ID: 1}, map[string]float64{req.ID: 1}, 1, 0)
	}

	if trip.CapacityAvailable() != 0 {
		t.Errorf("expected 0 open seats once full, got %d", trip.CapacityAvailable())
	}
	if !trip.IsFull() {
		t.Errorf("expected trip to be full at capacity")
	}
}

func TestTrip_AddPassenger_IncrementsRouteVersion(t *testing.T) {
	trip := NewTrip("trip-1", "driver-1", 3)
	if trip.RouteVersion != 0 {
		t.Fatalf("expected a fresh trip to start at RouteVersion 0, got %d", trip.RouteVersion)
	}
	req := &Request{ID: "req-1"}
	trip.AddPassenger(req, []Location{{}, {}}, map[string]float64{"req-1": 1}, map[string]float64{"req-1": 1}, 1, 0)
	if trip.RouteVersion != 1 {
		t.Errorf("expected RouteVersion to increment to 1 after AddPassenger, got %d", trip.RouteVersion)
	}
}
