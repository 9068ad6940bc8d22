// Package routing solves pickup-order TSP, detour-ratio computation,
// proportional cost splitting and trial insertion for pooled trips. It
// is stateless across calls except for a private TSP solution cache
// keyed on (driver location, sorted pickups, destination).
package routing
