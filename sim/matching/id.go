package matching

import (
	"math/rand"

	"github.com/carpoolsim/carpoolsim/sim"
)

// newTripID generates a fresh trip identifier for matchers that create
// trips directly (FCFS) rather than going through the IP solver, which
// assigns ids when it realizes a Group into a Trip. Drawn from the
// matcher's own rng (sim.SubsystemIDs) rather than crypto/rand so that
// two same-seed runs produce identical trip ids.
func newTripID(rng *rand.Rand) string {
	return sim.NewDeterministicID(rng, "trip-")
}
