// Package matching implements the pluggable dispatch policies the
// kernel runs at a matching round: the FCFS baseline and the Optimal
// policy (destination clustering, feasible-group enumeration, and a
// binary integer program over group/request indicator variables).
package matching
