package sim

import (
	"math/rand"

	"github.com/google/uuid"
)

// NewDeterministicID derives a prefixed UUID from rng instead of
// crypto/rand, so that entity ids are reproducible for a given
// SimulationKey. This is required by the dual-driver guarantee (spec
// §8: FCFS and optimal must agree on ids over an identical workload)
// and by PartitionedRNG's bit-for-bit-reproducibility contract — a
// uuid.New() draw reads crypto/rand and would differ on every call
// regardless of seed.
func NewDeterministicID(rng *rand.Rand, prefix string) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// *rand.Rand.Read never returns an error.
		panic("sim: deterministic id generation failed: " + err.Error())
	}
	return prefix + id.String()
}
