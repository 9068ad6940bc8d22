package sim

import (
	"math"
	"math/rand"
)

// SampleWeibull draws a sample from a Weibull(shape, scale) distribution
// via inverse-CDF transform: X = scale * (-ln(1-U))^(1/shape). No
// distributions library in the retrieval pack exposes a Weibull
// quantile function (gonum/stat covers common families but not
// Weibull), so inverse-CDF sampling from math.Log/math.Pow is the
// idiomatic minimal choice here, matching sim/rng.go's own approach to
// deriving distributions from a *rand.Rand.
func SampleWeibull(rng *rand.Rand, shape, scale float64) float64 {
	u := rng.Float64()
	return scale * math.Pow(-math.Log(1-u), 1.0/shape)
}
