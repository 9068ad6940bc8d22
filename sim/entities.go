package sim

import "math"

// Location is a geodetic (lat, lon) pair. It is a value object: two
// locations are considered the same place when they agree to 6 decimal
// places (~0.1m), matching the coordinate-rounding convention the map
// oracle's cache keys use.
type Location struct {
	Lat float64
	Lon float64
}

// RoundedKey returns the 6-decimal-place rounded coordinate pair used
// for cache keys and identity comparisons.
func (l Location) RoundedKey() (float64, float64) {
	const scale = 1e6
	return math.Round(l.Lat*scale) / scale, math.Round(l.Lon*scale) / scale
}

// AlmostEqual reports whether l and other are within the given
// coordinate tolerance on both axes.
func (l Location) AlmostEqual(other Location, tolerance float64) bool {
	return math.Abs(l.Lat-other.Lat) <= tolerance && math.Abs(l.Lon-other.Lon) <= tolerance
}

// DriverType is an immutable category of driver (e.g. "Fast Response",
// "Normal", "Economy").
type DriverType struct {
	ID               int
	Name             string
	BaseCost         float64
	ArrivalRate      float64 // events/sec, used by workload generation
	SpeedMultiplier  float64
}

// DriverStatus is the lifecycle state of a Driver.
type DriverStatus int

const (
	DriverAvailable DriverStatus = iota
	DriverEnRoutePickup
	DriverInTrip
)

func (s DriverStatus) String() string {
	switch s {
	case DriverAvailable:
		return "available"
	case DriverEnRoutePickup:
		return "en_route_pickup"
	case DriverInTrip:
		return "in_trip"
	default:
		return "unknown"
	}
}

// Driver is a vehicle in the fleet. A Driver is either sitting in the
// available pool or referenced by exactly one active Trip; Status must
// agree with that placement.
type Driver struct {
	ID              string
	Type            DriverType
	Location        Location
	Status          DriverStatus
	AvailableSince  float64 // sim-time the driver last became available
	CurrentTripID   string
}

// RequestStatus is the lifecycle state of a Request.
type RequestStatus int

const (
	RequestWaiting RequestStatus = iota
	RequestMatched
	RequestInTransit
	RequestCompleted
	RequestQuit
)

func (s RequestStatus) String() string {
	switch s {
	case RequestWaiting:
		return "waiting"
	case RequestMatched:
		return "matched"
	case RequestInTransit:
		return "in_transit"
	case RequestCompleted:
		return "completed"
	case RequestQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Request is a ride request from a passenger. Status transitions follow
// Waiting -> {Matched, Quit}; Matched -> InTransit -> Completed. Terminal
// statuses (Completed, Quit) are frozen.
type Request struct {
	ID                string
	Origin            Location
	Destination       Location
	ArrivalTime       float64
	WeibullShape      float64
	WeibullScale      float64
	WaitingCostRate   float64
	Status            RequestStatus

	QuitTime       *float64
	MatchTime      *float64
	PickupTime     *float64
	CompletionTime *float64

	AssignedDriverID string
	TripID           string
	Threshold        *float64 // threshold-policy deadline (sim time), set once at arrival

	// Carpool-derived fields, populated once matched.
	SoloTripDuration   float64
	ActualTripDuration float64
	DetourRatio        float64
	CostShare          float64
}

// WaitingTime returns the request's waiting time as of now (or its
// match time, if already matched).
func (r *Request) WaitingTime(now float64) float64 {
	if r.MatchTime != nil {
		return *r.MatchTime - r.ArrivalTime
	}
	return now - r.ArrivalTime
}

// WaitingCost returns the waiting-time cost accrued as of now.
func (r *Request) WaitingCost(now float64) float64 {
	return r.WaitingTime(now) * r.WaitingCostRate
}

// Trip is an active pooled ride with one driver and 1..capacity
// passengers sharing a single destination cluster.
type Trip struct {
	ID       string
	DriverID string

	// Passengers, in the order they were added. |Passengers| == len(Route)-1.
	Passengers []*Request

	// Route is [pickup_1, ..., pickup_k, Destination]. Route[len-1] == Destination.
	Route       []Location
	Destination Location
	Capacity    int

	StartTime      *float64
	CompletionTime *float64

	// CurrentPositionIndex is the index into Route the driver is
	// currently heading toward.
	CurrentPositionIndex int
	PickupsCompleted     map[string]bool

	TotalRouteCost float64
	IndividualCost map[string]float64 // passenger id -> cost share
	DetourRatios   map[string]float64 // passenger id -> detour ratio

	// RouteVersion increments every time Route is replaced (creation or
	// dynamic insertion). Scheduled Pickup/TripComplete events capture
	// the version they were scheduled against and no-op if it has since
	// advanced, letting the kernel reschedule against the new route
	// without needing to remove stale entries from the event heap.
	RouteVersion int
}

// CapacityAvailable returns the number of open seats.
func (t *Trip) CapacityAvailable() int {
	return t.Capacity - len(t.Passengers)
}

// IsFull reports whether the trip has no open seats.
func (t *Trip) IsFull() bool {
	return len(t.Passengers) >= t.Capacity
}

// AllPickupsComplete reports whether every passenger has been picked up.
func (t *Trip) AllPickupsComplete() bool {
	return len(t.PickupsCompleted) == len(t.Passengers)
}

// NewTrip constructs an empty trip shell for the given driver and
// destination cluster; passengers are added via AddPassenger.
func NewTrip(id, driverID string, capacity int) *Trip {
	return &Trip{
		ID:               id,
		DriverID:         driverID,
		Capacity:         capacity,
		PickupsCompleted: make(map[string]bool),
		IndividualCost:   make(map[string]float64),
		DetourRatios:     make(map[string]float64),
	}
}

// AddPassenger installs a newly computed route, cost and detour map on
// the trip (result of either the initial group assignment or a dynamic
// insertion) and marks the passenger matched.
func (t *Trip) AddPassenger(req *Request, route []Location, costs, detours map[string]float64, totalRouteCost float64, now float64) {
	t.Passengers = append(t.Passengers, req)
	t.Route = route
	t.IndividualCost = costs
	t.DetourRatios = detours
	t.TotalRouteCost = totalRouteCost
	t.RouteVersion++
	req.TripID = t.ID
	req.Status = RequestMatched
	req.AssignedDriverID = t.DriverID
	req.MatchTime = &now
}
