// Package clustering groups active requests by destination proximity.
// Two destinations join the same cluster iff they lie within the
// configured radius; this is DBSCAN with min_samples=1, which
// degenerates to connected components under the epsilon threshold.
//
// Candidate pairs are pre-bucketed by H3 cell so the connected-components
// scan only compares requests whose destinations fall in the same or an
// adjacent cell, instead of every pair.
package clustering
