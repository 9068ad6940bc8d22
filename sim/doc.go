// Package sim provides the core discrete-event simulation engine for
// carpoolsim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - entities.go: Location, Driver, Request, Trip and their lifecycles
//   - event.go: Event types that drive the simulation (request and
//     driver arrival, quit, threshold reached, pickup and trip completion)
//   - kernel.go: the event loop and handler dispatch
//
// # Architecture
//
// The sim package defines the entities, the event loop, and the
// interfaces matchers/routers plug into; implementations live in
// sub-packages:
//   - sim/mapclient/: travel-time/distance oracle, with HTTP client, an
//     in-process cache and an optional Redis-backed tier
//   - sim/routing/: pickup-order TSP, detour ratios, cost splitting
//   - sim/clustering/: destination clustering
//   - sim/matching/: FCFS baseline, feasible-group enumeration, the
//     binary assignment solver and the optimal matcher (the threshold
//     policy lives in this package, threshold.go)
//   - sim/workload/: pre-generated arrival stream construction, shared
//     between the FCFS and optimal kernels for a fair comparison
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Matcher: decide which requests get matched to which drivers on a
//     dispatch tick
//   - MapOracle: travel duration/distance between two points
package sim
