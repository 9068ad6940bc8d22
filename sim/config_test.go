package sim

import "testing"

func validConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{DurationSec: 100, InitialDrivers: 1, MaxDrivers: 10, RandomSeed: 42},
		Region:     RegionConfig{Bounds: RegionBounds{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}},
		Carpooling: CarpoolingConfig{Capacity: 3, DetourMax: 1.5},
		DriverTypes: []DriverTypeConfig{
			{ID: 0, Name: "standard", BaseCost: 1.0, ArrivalRate: 0.02},
		},
		Requests: RequestsConfig{ArrivalRate: 0.1, WeibullShape: 1.5, WeibullScale: 120},
	}
}

func TestConfig_Validate_AcceptsZeroArrivalRates(t *testing.T) {
	cfg := validConfig()
	cfg.Requests.ArrivalRate = 0
	cfg.DriverTypes[0].ArrivalRate = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected zero arrival rates to be valid (the Empty world scenario), got %v", err)
	}
}

func TestConfig_Validate_RejectsNegativeArrivalRates(t *testing.T) {
	t.Run("driver type", func(t *testing.T) {
		cfg := validConfig()
		cfg.DriverTypes[0].ArrivalRate = -1
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected a negative driver_types arrival_rate to be rejected")
		}
	})
	t.Run("requests", func(t *testing.T) {
		cfg := validConfig()
		cfg.Requests.ArrivalRate = -1
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected a negative requests arrival_rate to be rejected")
		}
	})
}

func TestConfig_Validate_RejectsNonPositiveDurationCapacityDetour(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		cfg := validConfig()
		cfg.Simulation.DurationSec = 0
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected duration <= 0 to be rejected")
		}
	})
	t.Run("capacity", func(t *testing.T) {
		cfg := validConfig()
		cfg.Carpooling.Capacity = 0
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected capacity <= 0 to be rejected")
		}
	})
	t.Run("detour_max", func(t *testing.T) {
		cfg := validConfig()
		cfg.Carpooling.DetourMax = 0
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected detour_max <= 0 to be rejected")
		}
	})
}

func TestConfig_Validate_RejectsInvertedBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Region.Bounds.LatMin = 1
	cfg.Region.Bounds.LatMax = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected lat_min >= lat_max to be rejected")
	}
}

func TestConfig_Validate_RejectsEmptyDriverTypes(t *testing.T) {
	cfg := validConfig()
	cfg.DriverTypes = nil
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected empty driver_types to be rejected")
	}
}

func TestConfig_Validate_RejectsUnknownPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Policy.Policy = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected an unrecognized policy.policy to be rejected")
	}
}

func TestConfig_Validate_DefaultsCapacityPenaltyWeight(t *testing.T) {
	cfg := validConfig()
	cfg.Policy.CapacityPenaltyWeight = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Policy.CapacityPenaltyWeight != 3.0 {
		t.Errorf("expected CapacityPenaltyWeight to default to 3.0, got %f", cfg.Policy.CapacityPenaltyWeight)
	}
}

func TestLoadConfig_MissingFileReturnsError(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/to/config.yaml"); err == nil {
		t.Errorf("expected an error loading a nonexistent config file")
	}
}
