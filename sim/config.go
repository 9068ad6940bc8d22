package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RegionBounds is a bounding box over which requests, drivers, and
// destinations are sampled.
type RegionBounds struct {
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LonMin float64 `yaml:"lon_min"`
	LonMax float64 `yaml:"lon_max"`
}

// SimulationConfig groups horizon and fleet-sizing parameters.
type SimulationConfig struct {
	DurationSec     float64 `yaml:"duration"`
	InitialDrivers  int     `yaml:"initial_drivers"`
	MaxDrivers      int     `yaml:"max_drivers"`
	RandomSeed      int64   `yaml:"random_seed"`
}

// RegionConfig groups the bounding box driver/request locations are
// sampled from.
type RegionConfig struct {
	Bounds RegionBounds `yaml:"bounds"`
}

// CarpoolingConfig groups the pooling and insertion parameters shared by
// the routing engine and matchers.
type CarpoolingConfig struct {
	Capacity                  int     `yaml:"capacity"`
	DetourMax                 float64 `yaml:"detour_max"`
	DestinationClusterRadiusKm float64 `yaml:"destination_cluster_radius_km"`
	DynamicInsertionEnabled   bool    `yaml:"dynamic_insertion_enabled"`
}

// CostsConfig groups the cost coefficients used by the assignment
// objective and per-passenger cost splitting.
type CostsConfig struct {
	WaitingCostPerSec   float64 `yaml:"waiting_cost_per_sec"`
	QuitPenalty         float64 `yaml:"quit_penalty"`
	DetourPenaltyPerSec float64 `yaml:"detour_penalty_per_sec"`
}

// DriverTypeConfig is the externally-loaded shape of one DriverType.
type DriverTypeConfig struct {
	ID              int     `yaml:"id"`
	Name            string  `yaml:"name"`
	BaseCost        float64 `yaml:"base_cost"`
	ArrivalRate     float64 `yaml:"arrival_rate"`
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
}

// RequestsConfig groups request-arrival and patience-distribution
// parameters.
type RequestsConfig struct {
	ArrivalRate  float64 `yaml:"arrival_rate"`
	WeibullShape float64 `yaml:"weibull_shape"`
	WeibullScale float64 `yaml:"weibull_scale"`
}

// MetricsConfig groups metrics-export parameters.
type MetricsConfig struct {
	UpdateInterval  float64 `yaml:"update_interval"`
	EnableStreaming bool    `yaml:"enable_streaming"`
	OutputFile      string  `yaml:"output_file"`
}

// MatchingConfig groups the assignment-policy parameters the optimal
// matcher's objective uses. CapacityPenaltyWeight resolves spec.md §9's
// Open Question: it is configurable rather than a hardcoded 3.0.
type MatchingConfig struct {
	Policy                string  `yaml:"policy"` // "fcfs", "optimal", or "dual"
	CapacityPenaltyWeight float64 `yaml:"capacity_penalty_weight"`
}

// Config is the full, strictly-parsed carpool-sim configuration.
type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation"`
	Region      RegionConfig      `yaml:"region"`
	Carpooling  CarpoolingConfig  `yaml:"carpooling"`
	Costs       CostsConfig       `yaml:"costs"`
	DriverTypes []DriverTypeConfig `yaml:"driver_types"`
	Requests    RequestsConfig    `yaml:"requests"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Policy      MatchingConfig    `yaml:"policy"`
}

// LoadConfig reads and strictly parses a YAML configuration file.
// Unknown keys are a hard error (KnownFields(true)), matching the
// teacher's strict-config convention.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks structural invariants that yaml decoding cannot
// enforce on its own.
func (c *Config) Validate() error {
	if c.Simulation.DurationSec <= 0 {
		return fmt.Errorf("simulation.duration must be > 0, got %f", c.Simulation.DurationSec)
	}
	if c.Carpooling.Capacity <= 0 {
		return fmt.Errorf("carpooling.capacity must be > 0, got %d", c.Carpooling.Capacity)
	}
	if c.Carpooling.DetourMax <= 0 {
		return fmt.Errorf("carpooling.detour_max must be > 0, got %f", c.Carpooling.DetourMax)
	}
	b := c.Region.Bounds
	if b.LatMin >= b.LatMax || b.LonMin >= b.LonMax {
		return fmt.Errorf("region.bounds must satisfy lat_min < lat_max and lon_min < lon_max")
	}
	if len(c.DriverTypes) == 0 {
		return fmt.Errorf("driver_types must not be empty")
	}
	for _, dt := range c.DriverTypes {
		if dt.ArrivalRate < 0 {
			return fmt.Errorf("driver_types[%d].arrival_rate must be >= 0, got %f", dt.ID, dt.ArrivalRate)
		}
	}
	if c.Requests.ArrivalRate < 0 {
		return fmt.Errorf("requests.arrival_rate must be >= 0, got %f", c.Requests.ArrivalRate)
	}
	if c.Requests.WeibullShape <= 0 || c.Requests.WeibullScale <= 0 {
		return fmt.Errorf("requests.weibull_shape and weibull_scale must be > 0")
	}
	switch c.Policy.Policy {
	case "", "fcfs", "optimal", "dual":
	default:
		return fmt.Errorf("policy.policy %q is not one of fcfs, optimal, dual", c.Policy.Policy)
	}
	if c.Policy.CapacityPenaltyWeight == 0 {
		c.Policy.CapacityPenaltyWeight = 3.0
	}
	return nil
}
