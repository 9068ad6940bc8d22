package matching

import "testing"

func TestNew_ConstructsFCFSAndOptimalByName(t *testing.T) {
	cfg := Config{Capacity: 4, MaxDetour: 1.5, ClusterRadiusKm: 1.0, CapacityPenaltyWeight: 3.0}

	if m := New("fcfs", gridOracle{}, testRNG, cfg); m.Name() != "fcfs" {
		t.Errorf("expected fcfs matcher, got %s", m.Name())
	}
	if m := New("optimal", gridOracle{}, testRNG, cfg); m.Name() != "optimal" {
		t.Errorf("expected optimal matcher, got %s", m.Name())
	}
}

func TestNew_PanicsOnUnknownName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for unknown matcher name")
		}
	}()
	New("bogus", gridOracle{}, testRNG, Config{})
}

func TestIsValidMatcher(t *testing.T) {
	if !IsValidMatcher("fcfs") || !IsValidMatcher("optimal") {
		t.Errorf("expected fcfs and optimal to be valid")
	}
	if IsValidMatcher("bogus") {
		t.Errorf("expected bogus to be invalid")
	}
}
