// sim/metrics_utils.go
package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CalculatePercentile returns the p-th percentile (0..100) of data using
// gonum's empirical-distribution quantile estimator, which does not
// interpolate: it returns the smallest sample whose cumulative share of
// the data reaches p/100.
func CalculatePercentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sortedData := make([]float64, len(data))
	copy(sortedData, data)
	sort.Float64s(sortedData)
	return stat.Quantile(p/100.0, stat.Empirical, sortedData, nil)
}

// SortedPoolSizes returns the pool-size histogram's keys in ascending
// order, for stable metrics-export formatting.
func SortedPoolSizes(histogram map[int]int) []int {
	sizes := make([]int, 0, len(histogram))
	for size := range histogram {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}
