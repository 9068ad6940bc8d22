// Package workload pre-generates the request and driver arrival stream
// a run consumes, so the FCFS and optimal kernels in a Dual Driver run
// see byte-identical arrival times, ids, origins and destinations.
package workload
