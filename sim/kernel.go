// sim/kernel.go
package sim

import (
	"github.com/sirupsen/logrus"
)

// Kernel is the core object that holds simulation time, world state and
// the event loop. It owns all entities; matchers and the routing engine
// operate on borrowed *World views and never hold them past a single
// call (SPEC_FULL.md §3, Ownership).
type Kernel struct {
	Clock   float64
	Horizon float64

	queue *EventQueue

	drivers   map[string]*Driver
	requests  map[string]*Request
	trips     map[string]*Trip
	completed map[string]*Trip

	oracle  MapOracle
	matcher Matcher
	rng     *PartitionedRNG
	cfg     *Config

	threshold *ThresholdPolicy
	capacity  int
	detourMax float64

	Metrics *Metrics

	stopRequested bool
}

// NewKernel constructs a Kernel over the given configuration, matcher
// and map oracle. rng must already be seeded with the run's simulation
// key; the Dual Driver wiring re-seeds it identically before the second
// (optimal) run so patience draws line up across policies.
func NewKernel(cfg *Config, matcher Matcher, oracle MapOracle, rng *PartitionedRNG) *Kernel {
	driverTypes := make([]DriverType, 0, len(cfg.DriverTypes))
	for _, dt := range cfg.DriverTypes {
		driverTypes = append(driverTypes, DriverType{
			ID: dt.ID, Name: dt.Name, BaseCost: dt.BaseCost,
			ArrivalRate: dt.ArrivalRate, SpeedMultiplier: dt.SpeedMultiplier,
		})
	}
	return &Kernel{
		Horizon:   cfg.Simulation.DurationSec,
		queue:     &EventQueue{},
		drivers:   make(map[string]*Driver),
		requests:  make(map[string]*Request),
		trips:     make(map[string]*Trip),
		completed: make(map[string]*Trip),
		oracle:    oracle,
		matcher:   matcher,
		rng:       rng,
		cfg:       cfg,
		threshold: NewThresholdPolicy(driverTypes, cfg.Costs.QuitPenalty, 0.3, cfg.Carpooling.Capacity),
		capacity:  cfg.Carpooling.Capacity,
		detourMax: cfg.Carpooling.DetourMax,
		Metrics:   NewMetrics(50),
	}
}

// Schedule pushes an event into the kernel's event queue.
func (k *Kernel) Schedule(ev Event) {
	k.queue.Schedule(ev)
}

// RequestStop sets the coarse-grained cancellation flag; the kernel
// checks it between events and halts early (SPEC_FULL.md §5).
func (k *Kernel) RequestStop() {
	k.stopRequested = true
}

// Run drains the event queue until it empties, the horizon is exceeded,
// or a stop has been requested.
func (k *Kernel) Run() {
	for {
		if k.stopRequested {
			break
		}
		ev := k.queue.Next()
		if ev == nil {
			break
		}
		if ev.Timestamp() > k.Horizon {
			break
		}
		k.Clock = ev.Timestamp()
		ev.Execute(k)
	}
	logrus.Infof("[t=%.2f] simulation ended", k.Clock)
}

// world builds a borrowed World view of current kernel state for the
// matcher to operate against.
func (k *Kernel) world() *World {
	available := make([]*Driver, 0)
	for _, d := range k.drivers {
		if d.Status == DriverAvailable {
			available = append(available, d)
		}
	}
	return &World{
		Now:                   k.Clock,
		AvailableDrivers:      available,
		ActiveTrips:           k.trips,
		ActiveRequests:        k.requests,
		Capacity:              k.capacity,
		DetourMax:             k.detourMax,
		CapacityPenaltyWeight: k.cfg.Policy.CapacityPenaltyWeight,
	}
}

// handleRequestArrival implements SPEC_FULL.md §4.1's RequestArrival
// handler.
func (k *Kernel) handleRequestArrival(req *Request, now float64) {
	k.requests[req.ID] = req
	k.Metrics.TotalRequests++
	k.Metrics.RecordEvent(now, "request_arrival", req.ID)

	if k.cfg.Carpooling.DynamicInsertionEnabled {
		if ok, tripID := k.matcher.TryInsert(k.world(), req); ok {
			k.onInserted(req, tripID, now)
			return
		}
	}

	patienceRNG := k.rng.ForSubsystem(SubsystemPatience)
	quitAt := now + SampleWeibull(patienceRNG, req.WeibullShape, req.WeibullScale)
	k.queue.Schedule(&RequestQuitEvent{time: quitAt, RequestID: req.ID})

	poolSize := k.waitingCount()
	thresholdSecs := k.threshold.ComputeSeconds(req, poolSize)
	thresholdAt := now + thresholdSecs
	req.Threshold = &thresholdAt
	k.queue.Schedule(&ThresholdReachedEvent{time: thresholdAt})

	k.runMatchingRound(now)
}

// handleDriverArrival implements SPEC_FULL.md §4.1's DriverArrival
// handler.
func (k *Kernel) handleDriverArrival(driver *Driver, now float64) {
	if k.totalDrivers() >= k.cfg.Simulation.MaxDrivers {
		return
	}
	driver.AvailableSince = now
	driver.Status = DriverAvailable
	k.drivers[driver.ID] = driver
	k.runMatchingRound(now)
}

// handleRequestQuit implements SPEC_FULL.md §4.1's RequestQuit handler.
func (k *Kernel) handleRequestQuit(requestID string, now float64) {
	req, ok := k.requests[requestID]
	if !ok || req.Status != RequestWaiting {
		return
	}
	req.Status = RequestQuit
	req.QuitTime = &now
	delete(k.requests, requestID)
	k.Metrics.RecordQuit(k.cfg.Costs.QuitPenalty)
}

// handleThresholdReached implements SPEC_FULL.md §4.1's
// ThresholdReached handler.
func (k *Kernel) handleThresholdReached(now float64) {
	if len(k.availableDriverIDs()) == 0 {
		return
	}
	k.runMatchingRound(now)
}

// handlePickupComplete implements SPEC_FULL.md §4.1's PickupComplete
// handler, including the explicit convention that the driver's location
// is advanced to the just-reached waypoint at pickup-complete (the
// convention original_source/simulation/simulator.py fails to apply —
// see DESIGN.md).
func (k *Kernel) handlePickupComplete(tripID, requestID string, routeVersion int, now float64) {
	trip, ok := k.trips[tripID]
	if !ok || trip.RouteVersion != routeVersion {
		return
	}
	driver := k.drivers[trip.DriverID]

	waypoint := trip.Route[trip.CurrentPositionIndex]
	driver.Location = waypoint

	trip.PickupsCompleted[requestID] = true
	trip.CurrentPositionIndex++

	if req, ok := k.requests[requestID]; ok {
		req.Status = RequestInTransit
		req.PickupTime = &now
	}

	k.scheduleNextLeg(trip, now)
}

// handleTripComplete implements SPEC_FULL.md §4.1's TripComplete
// handler.
func (k *Kernel) handleTripComplete(tripID string, routeVersion int, now float64) {
	trip, ok := k.trips[tripID]
	if !ok || trip.RouteVersion != routeVersion {
		return
	}
	driver := k.drivers[trip.DriverID]
	driver.Location = trip.Destination
	driver.Status = DriverAvailable
	driver.AvailableSince = now
	driver.CurrentTripID = ""

	var waitingSum, detourSum float64
	for _, p := range trip.Passengers {
		p.Status = RequestCompleted
		p.CompletionTime = &now
		p.CostShare = trip.IndividualCost[p.ID]
		p.DetourRatio = trip.DetourRatios[p.ID]
		waitingSum += p.WaitingCost(now)
		detourSum += (trip.DetourRatios[p.ID] - 1) * k.cfg.Costs.DetourPenaltyPerSec
	}
	trip.CompletionTime = &now
	delete(k.trips, tripID)
	k.completed[tripID] = trip

	k.Metrics.RecordCosts(waitingSum, trip.TotalRouteCost, detourSum)

	k.runMatchingRound(now)
}

// scheduleNextLeg schedules the event for the trip's next waypoint:
// another PickupComplete if pickups remain, else TripComplete.
func (k *Kernel) scheduleNextLeg(trip *Trip, now float64) {
	driver := k.drivers[trip.DriverID]
	if trip.CurrentPositionIndex >= len(trip.Route) {
		return
	}
	target := trip.Route[trip.CurrentPositionIndex]
	dur, err := k.oracle.Duration(driver.Location, target)
	if err != nil {
		logrus.Warnf("map oracle duration lookup failed, using 0: %v", err)
		dur = 0
	}
	arrival := now + dur

	if trip.AllPickupsComplete() {
		k.queue.Schedule(&TripCompleteEvent{time: arrival, TripID: trip.ID, RouteVersion: trip.RouteVersion})
		return
	}

	// Find which passenger's pickup this waypoint belongs to.
	requestID := ""
	for _, p := range trip.Passengers {
		if !trip.PickupsCompleted[p.ID] && p.Origin.AlmostEqual(target, 1e-4) {
			requestID = p.ID
			break
		}
	}
	k.queue.Schedule(&PickupCompleteEvent{time: arrival, TripID: trip.ID, RequestID: requestID, RouteVersion: trip.RouteVersion})
}

// onInserted folds a dynamic insertion's bookkeeping: driver status,
// metrics, and rescheduling the trip's next leg against its new route.
func (k *Kernel) onInserted(req *Request, tripID string, now float64) {
	trip := k.trips[tripID]
	oldPoolSize := len(trip.Passengers) - 1 // AddPassenger already appended by the matcher
	k.Metrics.RecordInsertion(oldPoolSize, len(trip.Passengers))
	k.Metrics.RecordMatch(0, trip.DetourRatios[req.ID], k.drivers[trip.DriverID].Type.ID)
	k.scheduleNextLeg(trip, now)
}

// runMatchingRound invokes the injected Matcher over currently waiting
// requests and available drivers, and wires up resulting trips/
// insertions: driver status transitions and travel-event scheduling.
func (k *Kernel) runMatchingRound(now float64) {
	result := k.matcher.Dispatch(k.world())

	for _, driverID := range result.ConsumedDrivers {
		if d, ok := k.drivers[driverID]; ok {
			d.Status = DriverEnRoutePickup
			d.CurrentTripID = ""
		}
	}

	for _, trip := range result.NewTrips {
		k.trips[trip.ID] = trip
		d := k.drivers[trip.DriverID]
		d.Status = DriverEnRoutePickup
		d.CurrentTripID = trip.ID
		start := now
		trip.StartTime = &start
		k.Metrics.RecordTripStart(d.Type.ID, len(trip.Passengers))
		for _, p := range trip.Passengers {
			k.Metrics.RecordMatch(p.WaitingTime(now), trip.DetourRatios[p.ID], d.Type.ID)
		}
		k.scheduleNextLeg(trip, now)
	}

	for reqID, tripID := range result.InsertedInto {
		if req, ok := k.requests[reqID]; ok {
			k.onInserted(req, tripID, now)
		}
	}
}

func (k *Kernel) waitingCount() int {
	n := 0
	for _, r := range k.requests {
		if r.Status == RequestWaiting {
			n++
		}
	}
	return n
}

func (k *Kernel) totalDrivers() int {
	return len(k.drivers)
}

func (k *Kernel) availableDriverIDs() []string {
	ids := make([]string, 0)
	for id, d := range k.drivers {
		if d.Status == DriverAvailable {
			ids = append(ids, id)
		}
	}
	return ids
}

// TripView is a read-only snapshot of an active trip, for live views
// and --verbose CLI output (SPEC_FULL.md §4.13, copy-on-read per §5).
type TripView struct {
	ID             string
	DriverID       string
	PassengerIDs   []string
	Route          []Location
	Destination    Location
	CapacityUsed   int
	TotalRouteCost float64
}

// ActiveTripsView returns a copy-on-read snapshot of every active trip,
// grounded on original_source/simulation/simulator.py's
// print_active_pools.
func (k *Kernel) ActiveTripsView() []TripView {
	views := make([]TripView, 0, len(k.trips))
	for _, t := range k.trips {
		passengerIDs := make([]string, len(t.Passengers))
		for i, p := range t.Passengers {
			passengerIDs[i] = p.ID
		}
		route := make([]Location, len(t.Route))
		copy(route, t.Route)
		views = append(views, TripView{
			ID: t.ID, DriverID: t.DriverID, PassengerIDs: passengerIDs,
			Route: route, Destination: t.Destination,
			CapacityUsed: len(t.Passengers), TotalRouteCost: t.TotalRouteCost,
		})
	}
	return views
}

// InjectArrivals seeds the event queue from a pre-generated stream
// (used by the Dual Driver wiring and sim/workload), in place of live
// Poisson generation, so FCFS and optimal kernels consume identical
// arrivals.
func (k *Kernel) InjectArrivals(requests []*Request, drivers []*Driver, requestTimes, driverTimes []float64) {
	for i, req := range requests {
		r := req
		k.queue.Schedule(&RequestArrivalEvent{time: requestTimes[i], Request: r})
	}
	for i, drv := range drivers {
		d := drv
		k.queue.Schedule(&DriverArrivalEvent{time: driverTimes[i], Driver: d})
	}
}
