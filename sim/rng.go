package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemWorkload is the RNG subsystem for pre-generating the
	// shared arrival stream (request arrivals and the initial t=0
	// fleet; each driver type's later arrivals use SubsystemDriverType).
	// Uses master seed directly for backward compatibility.
	SubsystemWorkload = "workload"

	// SubsystemPatience is the RNG subsystem for sampling request
	// patience (Weibull quit time). Kept separate from SubsystemWorkload
	// so that re-seeding before the optimal run reproduces identical
	// patience draws even though the two matchers draw different
	// numbers of trip ids (SubsystemIDs).
	SubsystemPatience = "patience"

	// SubsystemClustering is a reserved RNG subsystem name for
	// destination clustering; the clusterer in sim/clustering is
	// deterministic and draws nothing from it.
	SubsystemClustering = "clustering"

	// SubsystemIDs is the RNG subsystem backing deterministic entity id
	// generation (requests, drivers, trips). Kept separate from
	// SubsystemWorkload so that adding an id draw never perturbs the
	// arrival-time/location sampling sequence.
	SubsystemIDs = "ids"
)

// SubsystemDriverType returns the subsystem name for driver type N's
// independent arrival stream.
func SubsystemDriverType(id int) string {
	return fmt.Sprintf("driver_type_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemWorkload: uses masterSeed directly (backward compatibility)
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemWorkload {
		// Backward compatibility: workload uses master seed directly.
		// This ensures existing --seed behavior produces identical output.
		derivedSeed = int64(p.key)
	} else {
		// All other subsystems: XOR with hash for isolation.
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
