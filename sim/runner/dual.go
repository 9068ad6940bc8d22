// Package runner wires together configuration, workload generation and
// the matching package into the two side-by-side kernel runs that let
// carpool-sim compare the FCFS baseline against the optimal matcher on
// an identical workload, grounded on
// original_source/simulation/dual_simulator.py's DualSimulator.
package runner

import (
	"github.com/carpoolsim/carpoolsim/sim"
	"github.com/carpoolsim/carpoolsim/sim/matching"
	"github.com/carpoolsim/carpoolsim/sim/workload"
)

// DualResult holds the completed metrics snapshot for each policy run
// under the Dual Driver guarantee (spec.md §8's round-trip law): both
// kernels consume event streams that agree on arrival times, ids,
// origins and destinations.
type DualResult struct {
	FCFS    sim.Snapshot
	Optimal sim.Snapshot
}

// RunDual runs the FCFS and optimal matchers over identical generated
// workloads against the same oracle, re-seeding the RNG identically
// before each run (original_source/simulation/dual_simulator.py's
// DualSimulator.run reseeds np.random before running the second,
// optimal sub-simulation). oracle is shared across both kernels so
// their map lookups share one cache (see mapclient's doc comment).
func RunDual(cfg *sim.Config, oracle sim.MapOracle) DualResult {
	matcherCfg := matcherConfig(cfg)

	fcfsSnap := runOne(cfg, oracle, "fcfs", matcherCfg)
	optimalSnap := runOne(cfg, oracle, "optimal", matcherCfg)

	return DualResult{FCFS: fcfsSnap, Optimal: optimalSnap}
}

// RunSingle runs a single named policy to completion and returns its
// final metrics snapshot, for --policy fcfs / --policy optimal CLI
// invocations that don't need the dual comparison.
func RunSingle(cfg *sim.Config, oracle sim.MapOracle, policyName string) sim.Snapshot {
	return runOne(cfg, oracle, policyName, matcherConfig(cfg))
}

func matcherConfig(cfg *sim.Config) matching.Config {
	return matching.Config{
		Capacity:              cfg.Carpooling.Capacity,
		MaxDetour:             cfg.Carpooling.DetourMax,
		ClusterRadiusKm:       cfg.Carpooling.DestinationClusterRadiusKm,
		CapacityPenaltyWeight: cfg.Policy.CapacityPenaltyWeight,
	}
}

// runOne re-seeds the RNG from cfg's configured seed, builds the named
// matcher against that same rng (so its trip ids are reproducible
// too), regenerates the arrival stream (identical across calls for the
// same cfg/seed, per workload.Generate's determinism), and drives one
// kernel to completion.
func runOne(cfg *sim.Config, oracle sim.MapOracle, policyName string, matcherCfg matching.Config) sim.Snapshot {
	rng := sim.NewPartitionedRNG(sim.SimulationKey(cfg.Simulation.RandomSeed))
	matcher := matching.New(policyName, oracle, rng.ForSubsystem(sim.SubsystemIDs), matcherCfg)
	stream := workload.Generate(cfg, rng)

	kernel := sim.NewKernel(cfg, matcher, oracle, rng)
	kernel.InjectArrivals(stream.Requests, stream.Drivers, stream.RequestTimes, stream.DriverTimes)
	kernel.Run()

	return kernel.Metrics.Snapshot(kernel.Clock, cfg.Carpooling.Capacity)
}
