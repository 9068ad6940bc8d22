package sim

// DriverStat accumulates per-driver-type trip/passenger counters for
// the metrics export's driver_stats section.
type DriverStat struct {
	Trips      int
	Passengers int
}

// EventLogEntry is a short, human-readable record kept for the
// metrics export's recent_events ring buffer.
type EventLogEntry struct {
	Time float64
	Kind string
	Note string
}

// PoolSizeBucket is one row of the carpooling pool-size distribution:
// how many completed/in-progress trips ended up with a given passenger
// count, in ascending size order.
type PoolSizeBucket struct {
	Size  int `json:"size"`
	Count int `json:"count"`
}

// Metrics accumulates running counters over the course of a simulation
// run and produces point-in-time snapshots via Snapshot.
type Metrics struct {
	TotalRequests int
	TotalMatches  int
	TotalQuits    int

	TotalCost           float64
	TotalWaitingTime    float64 // sum, for computing the mean
	TotalDetourRatio    float64 // sum over matched requests
	MatchedRequestCount int
	WaitingTimeSamples  []float64 // per-match waiting times, for percentile export

	TotalTrips        int
	DynamicInsertions int
	PoolSizeHistogram map[int]int // pool size -> count of trips that ended with that size
	SumPoolSize       int

	WaitingCostTotal   float64
	RoutingCostTotal   float64
	QuitPenaltyTotal   float64
	DetourPenaltyTotal float64

	DriverStats map[int]*DriverStat // driver type id -> stat

	recentEvents []EventLogEntry
	recentCap    int
}

// NewMetrics constructs an empty accumulator. recentCap bounds the
// recent_events ring buffer (0 disables it).
func NewMetrics(recentCap int) *Metrics {
	return &Metrics{
		PoolSizeHistogram: make(map[int]int),
		DriverStats:       make(map[int]*DriverStat),
		recentCap:         recentCap,
	}
}

// RecordEvent appends a short diagnostic entry, evicting the oldest
// entry once recentCap is exceeded (FIFO, matching the map oracle's
// eviction discipline).
func (m *Metrics) RecordEvent(t float64, kind, note string) {
	if m.recentCap <= 0 {
		return
	}
	m.recentEvents = append(m.recentEvents, EventLogEntry{Time: t, Kind: kind, Note: note})
	if len(m.recentEvents) > m.recentCap {
		m.recentEvents = m.recentEvents[len(m.recentEvents)-m.recentCap:]
	}
}

// RecordMatch folds a newly matched request's waiting time, detour
// ratio and assigned driver type into the running totals.
func (m *Metrics) RecordMatch(waitingTime float64, detourRatio float64, driverTypeID int) {
	m.TotalMatches++
	m.MatchedRequestCount++
	m.TotalWaitingTime += waitingTime
	m.WaitingTimeSamples = append(m.WaitingTimeSamples, waitingTime)
	m.TotalDetourRatio += detourRatio
	ds := m.driverStat(driverTypeID)
	ds.Passengers++
}

// RecordTripStart folds in a newly created trip, its seed driver type
// and its initial passenger count.
func (m *Metrics) RecordTripStart(driverTypeID, passengerCount int) {
	m.TotalTrips++
	ds := m.driverStat(driverTypeID)
	ds.Trips++
	m.PoolSizeHistogram[passengerCount]++
	m.SumPoolSize += passengerCount
}

// RecordInsertion folds in a dynamic insertion into an in-progress trip,
// retracting the trip's old pool-size bucket and crediting the new one.
func (m *Metrics) RecordInsertion(oldPoolSize, newPoolSize int) {
	m.DynamicInsertions++
	m.PoolSizeHistogram[oldPoolSize]--
	m.PoolSizeHistogram[newPoolSize]++
	m.SumPoolSize += newPoolSize - oldPoolSize
}

// RecordQuit folds a request that exceeded its patience into the
// running totals.
func (m *Metrics) RecordQuit(penalty float64) {
	m.TotalQuits++
	m.QuitPenaltyTotal += penalty
	m.TotalCost += penalty
}

// RecordCosts folds a completed trip's cost breakdown into the running
// totals.
func (m *Metrics) RecordCosts(waiting, routing, detour float64) {
	m.WaitingCostTotal += waiting
	m.RoutingCostTotal += routing
	m.DetourPenaltyTotal += detour
	m.TotalCost += waiting + routing + detour
}

func (m *Metrics) driverStat(driverTypeID int) *DriverStat {
	ds, ok := m.DriverStats[driverTypeID]
	if !ok {
		ds = &DriverStat{}
		m.DriverStats[driverTypeID] = ds
	}
	return ds
}

// MatchRate returns total_matches / (total_matches + total_quits),
// per SPEC_FULL.md §4.10 and
// original_source/utils/metrics_carpool.py's match_rate (denominator
// is resolved requests, not all arrivals — a request still waiting or
// in transit at snapshot time doesn't yet count either way). 0 if
// neither a match nor a quit has resolved yet.
func (m *Metrics) MatchRate() float64 {
	resolved := m.TotalMatches + m.TotalQuits
	if resolved == 0 {
		return 0
	}
	return float64(m.TotalMatches) / float64(resolved)
}

// AvgWaitingTime returns the mean waiting time across matched requests.
func (m *Metrics) AvgWaitingTime() float64 {
	if m.MatchedRequestCount == 0 {
		return 0
	}
	return m.TotalWaitingTime / float64(m.MatchedRequestCount)
}

// AvgDetourRatio returns the mean detour ratio across matched requests.
func (m *Metrics) AvgDetourRatio() float64 {
	if m.MatchedRequestCount == 0 {
		return 0
	}
	return m.TotalDetourRatio / float64(m.MatchedRequestCount)
}

// AvgPoolSize returns the mean passenger count across started trips,
// counting insertions into trips already under way.
func (m *Metrics) AvgPoolSize() float64 {
	if m.TotalTrips == 0 {
		return 0
	}
	return float64(m.SumPoolSize) / float64(m.TotalTrips)
}

// InsertionRate returns dynamic_insertions / total_requests, per
// SPEC_FULL.md §4.10 ("insertions/arrivals") and
// original_source/utils/metrics_carpool.py's
// total_dynamic_insertions / total_requests.
func (m *Metrics) InsertionRate() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.DynamicInsertions) / float64(m.TotalRequests)
}

// Snapshot is the JSON-serializable shape of a point-in-time metrics
// export, matching SPEC_FULL.md §6's metrics export document.
type Snapshot struct {
	SimulationTime float64 `json:"simulation_time"`

	Cumulative struct {
		TotalRequests  int     `json:"total_requests"`
		TotalMatches   int     `json:"total_matches"`
		TotalQuits     int     `json:"total_quits"`
		MatchRate      float64 `json:"match_rate"`
		TotalCost      float64 `json:"total_cost"`
		AvgWaitingTime float64 `json:"avg_waiting_time"`
		P50WaitingTime float64 `json:"p50_waiting_time"`
		P95WaitingTime float64 `json:"p95_waiting_time"`
		AvgDetourRatio float64 `json:"avg_detour_ratio"`
	} `json:"cumulative"`

	Carpooling struct {
		PoolUtilization      float64          `json:"pool_utilization"`
		AvgPoolSize          float64          `json:"avg_pool_size"`
		TotalTrips           int              `json:"total_trips"`
		DynamicInsertions    int              `json:"dynamic_insertions"`
		InsertionRate        float64          `json:"insertion_rate"`
		PoolSizeDistribution []PoolSizeBucket `json:"pool_size_distribution"`
	} `json:"carpooling"`

	CostBreakdown struct {
		WaitingCost  float64 `json:"waiting_cost"`
		RoutingCost  float64 `json:"routing_cost"`
		QuitPenalty  float64 `json:"quit_penalty"`
		DetourPenalty float64 `json:"detour_penalty"`
	} `json:"cost_breakdown"`

	DriverStats  map[int]*DriverStat `json:"driver_stats"`
	RecentEvents []EventLogEntry     `json:"recent_events"`
}

// Snapshot produces a point-in-time export of the running metrics,
// given a fleet capacity used to compute pool_utilization
// (avg_pool_size / capacity).
func (m *Metrics) Snapshot(now float64, capacity int) Snapshot {
	var s Snapshot
	s.SimulationTime = float64(now)
	s.Cumulative.TotalRequests = m.TotalRequests
	s.Cumulative.TotalMatches = m.TotalMatches
	s.Cumulative.TotalQuits = m.TotalQuits
	s.Cumulative.MatchRate = m.MatchRate()
	s.Cumulative.TotalCost = m.TotalCost
	s.Cumulative.AvgWaitingTime = m.AvgWaitingTime()
	s.Cumulative.P50WaitingTime = CalculatePercentile(m.WaitingTimeSamples, 50)
	s.Cumulative.P95WaitingTime = CalculatePercentile(m.WaitingTimeSamples, 95)
	s.Cumulative.AvgDetourRatio = m.AvgDetourRatio()

	s.Carpooling.AvgPoolSize = m.AvgPoolSize()
	if capacity > 0 {
		s.Carpooling.PoolUtilization = s.Carpooling.AvgPoolSize / float64(capacity)
	}
	s.Carpooling.TotalTrips = m.TotalTrips
	s.Carpooling.DynamicInsertions = m.DynamicInsertions
	s.Carpooling.InsertionRate = m.InsertionRate()
	for _, size := range SortedPoolSizes(m.PoolSizeHistogram) {
		count := m.PoolSizeHistogram[size]
		if count == 0 {
			continue
		}
		s.Carpooling.PoolSizeDistribution = append(s.Carpooling.PoolSizeDistribution, PoolSizeBucket{Size: size, Count: count})
	}

	s.CostBreakdown.WaitingCost = m.WaitingCostTotal
	s.CostBreakdown.RoutingCost = m.RoutingCostTotal
	s.CostBreakdown.QuitPenalty = m.QuitPenaltyTotal
	s.CostBreakdown.DetourPenalty = m.DetourPenaltyTotal

	s.DriverStats = m.DriverStats
	s.RecentEvents = m.recentEvents
	return s
}
