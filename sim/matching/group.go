package matching

import (
	"sort"
	"strings"

	"github.com/carpoolsim/carpoolsim/sim"
	"github.com/carpoolsim/carpoolsim/sim/clustering"
	"github.com/carpoolsim/carpoolsim/sim/routing"
)

// Group is a feasible (driver, request-subset) pairing: a candidate
// trip the IP solver may choose to realize.
type Group struct {
	Driver         *sim.Driver
	Requests       []*sim.Request
	Route          []sim.Location
	RouteCost      float64
	PickupCost     float64
	TotalCost      float64
	IndividualCost map[string]float64
	DetourRatios   map[string]float64
}

// Enumerator generates feasible groups for a set of drivers and
// destination-clustered requests, memoizing by (driver id, sorted
// request id tuple) within a single dispatch round.
type Enumerator struct {
	engine    *routing.Engine
	clusterer *clustering.Clusterer
	capacity  int
	maxDetour float64
	cache     map[string]*Group
}

// NewEnumerator constructs an Enumerator bound to the routing engine and
// clusterer used to evaluate and validate candidate groups.
func NewEnumerator(engine *routing.Engine, clusterer *clustering.Clusterer, capacity int, maxDetour float64) *Enumerator {
	return &Enumerator{
		engine:    engine,
		clusterer: clusterer,
		capacity:  capacity,
		maxDetour: maxDetour,
		cache:     make(map[string]*Group),
	}
}

// Enumerate generates all feasible (driver, request-subset) groups
// across drivers and clusters, sized from min(|cluster|, capacity) down
// to 1 so larger pools are evaluated (and cached) first.
func (e *Enumerator) Enumerate(drivers []*sim.Driver, clusters map[int][]*sim.Request) []*Group {
	var feasible []*Group

	for _, driver := range drivers {
		for _, members := range clusters {
			maxSize := len(members)
			if maxSize > e.capacity {
				maxSize = e.capacity
			}
			for size := maxSize; size >= 1; size-- {
				combinations(members, size, func(combo []*sim.Request) {
					key := groupKey(driver.ID, combo)
					if g, ok := e.cache[key]; ok {
						if g != nil {
							feasible = append(feasible, g)
						}
						return
					}
					g := e.evaluate(driver, combo)
					e.cache[key] = g
					if g != nil {
						feasible = append(feasible, g)
					}
				})
			}
		}
	}
	return feasible
}

func (e *Enumerator) evaluate(driver *sim.Driver, requests []*sim.Request) *Group {
	if !allDestinationsClose(requests, e.clusterer) {
		return nil
	}

	destination := requests[0].Destination
	pickups := make([]sim.Location, len(requests))
	legs := make([]routing.PassengerLeg, len(requests))
	for i, r := range requests {
		pickups[i] = r.Origin
		legs[i] = routing.PassengerLeg{ID: r.ID, Origin: r.Origin, Destination: r.Destination}
	}

	route, routeCost, err := e.engine.SolvePickups(driver.Location, pickups, destination)
	if err != nil {
		return nil
	}

	detours, err := e.engine.ComputeDetourRatios(route, legs)
	if err != nil {
		return nil
	}
	if !routing.Feasible(detours, e.maxDetour) {
		return nil
	}

	individualCosts := routing.SplitCosts(routeCost, detours)

	pickupCost, err := e.engine.PickupCost(driver.Location, route[0])
	if err != nil {
		return nil
	}

	return &Group{
		Driver:         driver,
		Requests:       requests,
		Route:          route,
		RouteCost:      routeCost,
		PickupCost:     pickupCost,
		TotalCost:      pickupCost + routeCost,
		IndividualCost: individualCosts,
		DetourRatios:   detours,
	}
}

// allDestinationsClose is the defensive re-check SPEC_FULL.md §4.5
// calls for: clustering already guarantees this, but a group is only
// ever as correct as the cluster it was drawn from.
func allDestinationsClose(requests []*sim.Request, clusterer *clustering.Clusterer) bool {
	for i := 0; i < len(requests); i++ {
		for j := i + 1; j < len(requests); j++ {
			if !clusterer.Compatible(requests[i], requests[j]) {
				return false
			}
		}
	}
	return true
}

func groupKey(driverID string, requests []*sim.Request) string {
	ids := make([]string, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	sort.Strings(ids)
	return driverID + "|" + strings.Join(ids, ",")
}

// combinations calls visit with every size-k combination of items,
// preserving items' relative order within each combination.
func combinations(items []*sim.Request, k int, visit func([]*sim.Request)) {
	n := len(items)
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		combo := make([]*sim.Request, k)
		for i, ix := range idx {
			combo[i] = items[ix]
		}
		visit(combo)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
