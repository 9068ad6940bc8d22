package sim

import "github.com/sirupsen/logrus"

// Event drives the simulation. Events are consumed in non-decreasing
// Timestamp order; ties are broken FIFO by the EventQueue's sequence
// counter.
type Event interface {
	Timestamp() float64
	Execute(k *Kernel)
}

// RequestArrivalEvent introduces a new ride request into the world.
type RequestArrivalEvent struct {
	time    float64
	Request *Request
}

func (e *RequestArrivalEvent) Timestamp() float64 { return e.time }
func (e *RequestArrivalEvent) Execute(k *Kernel) {
	logrus.Debugf("<< RequestArrival: %s at t=%.2f", e.Request.ID, e.time)
	k.handleRequestArrival(e.Request, e.time)
}

// DriverArrivalEvent introduces a new available driver into the world.
type DriverArrivalEvent struct {
	time   float64
	Driver *Driver
}

func (e *DriverArrivalEvent) Timestamp() float64 { return e.time }
func (e *DriverArrivalEvent) Execute(k *Kernel) {
	logrus.Debugf("<< DriverArrival: %s at t=%.2f", e.Driver.ID, e.time)
	k.handleDriverArrival(e.Driver, e.time)
}

// RequestQuitEvent fires when a waiting request's patience has been
// exceeded without a match. It is scheduled at arrival time and is a
// no-op if the request has since been matched.
type RequestQuitEvent struct {
	time      float64
	RequestID string
}

func (e *RequestQuitEvent) Timestamp() float64 { return e.time }
func (e *RequestQuitEvent) Execute(k *Kernel) {
	k.handleRequestQuit(e.RequestID, e.time)
}

// ThresholdReachedEvent fires when a threshold-policy deadline elapses,
// forcing a dispatch decision for any requests still waiting.
type ThresholdReachedEvent struct {
	time float64
}

func (e *ThresholdReachedEvent) Timestamp() float64 { return e.time }
func (e *ThresholdReachedEvent) Execute(k *Kernel) {
	k.handleThresholdReached(e.time)
}

// PickupCompleteEvent fires when the driver reaches a passenger's
// origin. The driver's location is advanced to that waypoint as part of
// handling this event. RouteVersion pins the Trip.Route this event was
// scheduled against; if the trip has since been re-routed by a dynamic
// insertion, the event is stale and is dropped.
type PickupCompleteEvent struct {
	time         float64
	TripID       string
	RequestID    string
	RouteVersion int
}

func (e *PickupCompleteEvent) Timestamp() float64 { return e.time }
func (e *PickupCompleteEvent) Execute(k *Kernel) {
	k.handlePickupComplete(e.TripID, e.RequestID, e.RouteVersion, e.time)
}

// TripCompleteEvent fires when the driver reaches the shared
// destination and the trip is torn down. See PickupCompleteEvent for
// RouteVersion's staleness-guard purpose.
type TripCompleteEvent struct {
	time         float64
	TripID       string
	RouteVersion int
}

func (e *TripCompleteEvent) Timestamp() float64 { return e.time }
func (e *TripCompleteEvent) Execute(k *Kernel) {
	k.handleTripComplete(e.TripID, e.RouteVersion, e.time)
}
