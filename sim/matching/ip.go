package matching

import "sort"

// maxIPNodes bounds the branch-and-bound search tree explored per
// dispatch round. Group counts in a realistic round (bounded by active
// drivers x clustered requests x capacity) stay small enough that this
// limit is never reached in practice; it exists as a fail-safe so a
// pathological round degrades to "no assignment" rather than hanging.
const maxIPNodes = 200000

// Assignment is the IP solver's chosen subset of feasible groups.
type Assignment struct {
	Groups []*Group
}

// SolveIP selects a driver/request-disjoint subset of candidates
// minimizing
//
//	Σ_g x_g (cost_g + C_cap (capacity - |g|))  +  Σ_r (1 - y_r) C_quit
//
// subject to each driver and each request appearing in at most one
// selected group, and y_r forced to the group-selection indicator per
// request. C_quit and C_cap are derived from the candidate pool's own
// costs (10x max cost, floor 1e6; capacityPenaltyWeight x max cost
// respectively) so the
// quit penalty always dominates any single trip and the capacity
// penalty always biases toward fuller pools.
//
// Returns an empty Assignment if there are no candidates, or if the
// branch-and-bound search exceeds its node budget without completing
// (treated as non-optimal termination).
func SolveIP(candidates []*Group, capacity int, capacityPenaltyWeight float64) Assignment {
	if len(candidates) == 0 {
		return Assignment{}
	}

	maxCost := 0.0
	for _, g := range candidates {
		if g.TotalCost > maxCost {
			maxCost = g.TotalCost
		}
	}
	quitPenalty := 10 * maxCost
	if quitPenalty < 1e6 {
		quitPenalty = 1e6
	}
	capPenalty := capacityPenaltyWeight * maxCost

	items := make([]bbItem, len(candidates))
	for i, g := range candidates {
		groupCost := g.TotalCost + capPenalty*float64(capacity-len(g.Requests))
		requestIDs := make(map[string]bool, len(g.Requests))
		for _, r := range g.Requests {
			requestIDs[r.ID] = true
		}
		items[i] = bbItem{
			group:     g,
			driverID:  g.Driver.ID,
			requests:  requestIDs,
			groupCost: groupCost,
			// maxGain assumes every request in the group is currently
			// uncovered; used only as an admissible upper bound for
			// branch-and-bound pruning, never as the realized gain.
			maxGain: float64(len(g.Requests))*quitPenalty - groupCost,
		}
	}

	solver := &bbSolver{items: items, quitPenalty: quitPenalty}
	ok := solver.search()
	if !ok {
		return Assignment{}
	}

	groups := make([]*Group, 0, len(solver.bestSelected))
	for _, i := range solver.bestSelected {
		groups = append(groups, items[i].group)
	}
	return Assignment{Groups: groups}
}

type bbItem struct {
	group     *Group
	driverID  string
	requests  map[string]bool
	groupCost float64
	maxGain   float64
}

// bbSolver maximizes total gain (coverage value minus group cost) via
// branch-and-bound, which is equivalent to minimizing the original
// cost-plus-quit-penalty objective since the baseline of "every request
// unserved" is constant across all candidate selections.
type bbSolver struct {
	items        []bbItem
	quitPenalty  float64
	nodes        int
	bestGain     float64
	bestSelected []int
	exceeded     bool
}

func (s *bbSolver) search() bool {
	order := make([]int, len(s.items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return s.items[order[a]].maxGain > s.items[order[b]].maxGain
	})
	s.branch(order, 0, nil, map[string]bool{}, map[string]bool{}, 0)
	return !s.exceeded
}

func (s *bbSolver) branch(order []int, pos int, selected []int, usedDrivers, usedRequests map[string]bool, gainSoFar float64) {
	if s.exceeded {
		return
	}
	s.nodes++
	if s.nodes > maxIPNodes {
		s.exceeded = true
		return
	}

	if gainSoFar > s.bestGain {
		s.bestGain = gainSoFar
		s.bestSelected = append([]int{}, selected...)
	}

	if pos >= len(order) {
		return
	}

	// Upper bound: sum of remaining items' maxGain, ignoring conflicts.
	// Admissible because any actual selection can only do worse once
	// conflicts are accounted for.
	remainingBound := gainSoFar
	for i := pos; i < len(order); i++ {
		if s.items[order[i]].maxGain > 0 {
			remainingBound += s.items[order[i]].maxGain
		}
	}
	if remainingBound <= s.bestGain {
		return
	}

	item := s.items[order[pos]]

	conflicts := usedDrivers[item.driverID]
	if !conflicts {
		for rid := range item.requests {
			if usedRequests[rid] {
				conflicts = true
				break
			}
		}
	}

	if !conflicts {
		newGain := 0.0
		for rid := range item.requests {
			if !usedRequests[rid] {
				newGain += s.quitPenalty
			}
		}
		newGain -= item.groupCost

		usedDrivers[item.driverID] = true
		for rid := range item.requests {
			usedRequests[rid] = true
		}
		withItem := make([]int, len(selected)+1)
		copy(withItem, selected)
		withItem[len(selected)] = order[pos]
		s.branch(order, pos+1, withItem, usedDrivers, usedRequests, gainSoFar+newGain)
		delete(usedDrivers, item.driverID)
		for rid := range item.requests {
			delete(usedRequests, rid)
		}
	}

	s.branch(order, pos+1, selected, usedDrivers, usedRequests, gainSoFar)
}
