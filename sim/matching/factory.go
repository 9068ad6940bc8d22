package matching

import (
	"fmt"
	"math/rand"

	"github.com/carpoolsim/carpoolsim/sim"
	"github.com/carpoolsim/carpoolsim/sim/clustering"
	"github.com/carpoolsim/carpoolsim/sim/routing"
)

// validMatchers is the registry of recognized matcher names, used by
// New and by config validation.
var validMatchers = map[string]bool{"fcfs": true, "optimal": true}

// IsValidMatcher returns true if name is a recognized matcher.
func IsValidMatcher(name string) bool { return validMatchers[name] }

// ValidMatcherNames returns the recognized matcher names.
func ValidMatcherNames() []string { return []string{"fcfs", "optimal"} }

// Config bundles the parameters a matcher needs at construction time,
// independent of which concrete policy is chosen.
type Config struct {
	Capacity              int
	MaxDetour             float64
	ClusterRadiusKm       float64
	CapacityPenaltyWeight float64
}

// New constructs a matcher by name against the given map oracle. rng
// seeds the matcher's trip-id generation (sim.SubsystemIDs) so that
// runs sharing a SimulationKey produce identical trip ids. Panics on
// unrecognized names.
func New(name string, oracle sim.MapOracle, rng *rand.Rand, cfg Config) sim.Matcher {
	if !IsValidMatcher(name) {
		panic(fmt.Sprintf("unknown matcher %q", name))
	}
	switch name {
	case "fcfs":
		return NewFCFS(oracle, cfg.Capacity, rng)
	case "optimal":
		engine := routing.NewEngine(oracle, cfg.Capacity)
		clusterer := clustering.New(cfg.ClusterRadiusKm)
		return NewOptimal(engine, clusterer, cfg.Capacity, cfg.MaxDetour, cfg.CapacityPenaltyWeight, rng)
	default:
		panic(fmt.Sprintf("unhandled matcher %q", name))
	}
}
