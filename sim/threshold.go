package sim

import (
	"math"
	"sort"
)

// ThresholdPolicy computes the minimum waiting time before a request
// should be preferentially matched even to a suboptimal driver, derived
// from a Weibull hazard-rate bound (SPEC_FULL.md §4.7, carried
// unchanged from spec.md). Grounded on
// original_source/algorithms/threshold_policy.py.
type ThresholdPolicy struct {
	driverTypes []DriverType // sorted ascending by BaseCost
	quitPenalty float64
	alpha       float64 // pooling benefit factor
	capacity    int
}

// NewThresholdPolicy constructs a ThresholdPolicy over the given driver
// types, sorting them by base cost ascending as the formula requires.
func NewThresholdPolicy(driverTypes []DriverType, quitPenalty float64, alpha float64, capacity int) *ThresholdPolicy {
	sorted := make([]DriverType, len(driverTypes))
	copy(sorted, driverTypes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BaseCost < sorted[j].BaseCost })
	return &ThresholdPolicy{driverTypes: sorted, quitPenalty: quitPenalty, alpha: alpha, capacity: capacity}
}

// ComputeSeconds returns the pooling-adjusted threshold, in seconds, for
// a request currently seeing currentPoolSize waiting requests (the
// kernel's count includes the request itself).
func (t *ThresholdPolicy) ComputeSeconds(req *Request, currentPoolSize int) float64 {
	cheapest := t.driverTypes[0]
	base := t.baseThresholdSeconds(req, cheapest)
	poolingFactor := 1 - t.alpha*math.Min(float64(currentPoolSize), float64(t.capacity))/float64(t.capacity)
	adjusted := base * poolingFactor
	return math.Max(1.0, adjusted)
}

// baseThresholdSeconds solves q(T) = rhs for T, where q is the Weibull
// hazard rate of the request's patience distribution and rhs is the
// required hazard bound from the multi-type threshold condition.
func (t *ThresholdPolicy) baseThresholdSeconds(req *Request, driverType DriverType) float64 {
	k := req.WeibullShape
	lam := req.WeibullScale

	var rhs float64
	if len(t.driverTypes) < 2 {
		rhs = 1.0 / (t.quitPenalty - driverType.BaseCost)
	} else {
		next := t.driverTypes[1]
		var lambdaSum float64
		for _, dt := range t.driverTypes {
			if dt.BaseCost < next.BaseCost {
				lambdaSum += dt.ArrivalRate * (next.BaseCost - dt.BaseCost)
			}
		}
		rhs = math.Max(0, (lambdaSum-1)/(t.quitPenalty-next.BaseCost))
	}

	var threshold float64
	if k == 1 {
		threshold = lam * rhs
	} else if rhs <= 0 {
		threshold = 0
	} else {
		threshold = lam * math.Pow(rhs*lam/k, 1.0/(k-1))
	}
	return clamp(threshold, 1.0, 600.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
