package sim

// World is the borrowable view of kernel state that matchers, the
// routing engine and the clusterer operate against. Implementations
// never hold a *World past a single call; the kernel owns all entities.
type World struct {
	Now              float64
	AvailableDrivers []*Driver
	ActiveTrips      map[string]*Trip
	ActiveRequests   map[string]*Request
	Capacity         int
	DetourMax        float64
	CapacityPenaltyWeight float64
}

// MatchResult describes the outcome of a matcher's dispatch pass: newly
// created trips, requests inserted into existing trips, and which
// drivers were pulled out of the available pool.
type MatchResult struct {
	NewTrips        []*Trip
	InsertedInto    map[string]string // requestID -> tripID
	ConsumedDrivers []string          // driver IDs no longer available
}

// Matcher decides which waiting requests get matched to which
// available drivers. Concrete implementations (FCFS, Optimal) live in
// sim/matching and are injected into the Kernel; sim itself only knows
// the interface, avoiding an import cycle between sim and sim/matching.
type Matcher interface {
	// Name identifies the matcher for logging and metrics.
	Name() string

	// TryInsert attempts a dynamic insertion of req into an existing
	// active trip. Returns ok=false if no feasible insertion exists or
	// the matcher does not support dynamic insertion.
	TryInsert(w *World, req *Request) (ok bool, tripID string)

	// Dispatch runs a full matching round over the currently waiting
	// requests and available drivers.
	Dispatch(w *World) MatchResult
}
