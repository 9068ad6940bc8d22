package clustering

import (
	"math"

	"github.com/uber/h3-go/v4"

	"github.com/carpoolsim/carpoolsim/sim"
)

// degreesPerKm approximates the conversion factor used throughout the
// carpooling algorithms (1 degree latitude/longitude ~= 111 km).
const degreesPerKm = 111.0

// h3Resolution is the H3 resolution whose average hexagon
// edge length is on the order of a kilometer, used to pre-bucket
// destinations so the connected-components scan only compares requests
// in the same or a neighboring cell instead of every pair. H3 bucketing
// is a candidate-pruning step only: membership is still decided by the
// exact planar distance check below.
const h3Resolution = 7

// Clusterer groups requests by destination proximity within radiusKm,
// matching single-linkage clustering with a minimum cluster size of 1
// (every request belongs to some cluster, including singletons).
type Clusterer struct {
	epsDegrees float64
	neighborK  int
}

// New constructs a Clusterer for the given radius in kilometers.
func New(radiusKm float64) *Clusterer {
	eps := radiusKm / degreesPerKm
	return &Clusterer{
		epsDegrees: eps,
		neighborK:  h3NeighborRadius(radiusKm),
	}
}

// h3NeighborRadius picks a GridDisk k large enough that any destination
// within radiusKm of a cell's center falls in a cell included in the
// disk, given h3Resolution's approximate edge length of ~1.2km.
func h3NeighborRadius(radiusKm float64) int {
	const approxEdgeKm = 1.2
	k := int(math.Ceil(radiusKm/approxEdgeKm)) + 1
	if k < 1 {
		k = 1
	}
	return k
}

// Cluster groups requests by destination proximity. Returns a mapping
// of cluster id (an arbitrary stable integer, not meaningful beyond
// grouping) to the requests assigned to it.
func (c *Clusterer) Cluster(requests []*sim.Request) map[int][]*sim.Request {
	n := len(requests)
	clusters := make(map[int][]*sim.Request)
	if n == 0 {
		return clusters
	}

	uf := newUnionFind(n)
	buckets := bucketByH3(requests)

	for i, req := range requests {
		cell := h3.LatLngToCell(h3.LatLng{Lat: req.Destination.Lat, Lng: req.Destination.Lon}, h3Resolution)
		for _, neighborCell := range h3.GridDisk(cell, c.neighborK) {
			for _, j := range buckets[neighborCell] {
				if j <= i {
					continue
				}
				if c.withinRadius(req.Destination, requests[j].Destination) {
					uf.union(i, j)
				}
			}
		}
	}

	labels := make(map[int]int, n)
	nextLabel := 0
	for i, req := range requests {
		root := uf.find(i)
		label, ok := labels[root]
		if !ok {
			label = nextLabel
			labels[root] = label
			nextLabel++
		}
		clusters[label] = append(clusters[label], req)
	}
	return clusters
}

// Compatible reports whether two requests' destinations lie within the
// clustering radius, the predicate dynamic insertion uses to decide
// whether a waiting request can share a trip with an existing one.
func (c *Clusterer) Compatible(a, b *sim.Request) bool {
	return c.withinRadius(a.Destination, b.Destination)
}

// withinRadius approximates distance on the lat/lon plane (not true
// haversine), matching the reference clustering's planar degree metric.
func (c *Clusterer) withinRadius(a, b sim.Location) bool {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	dist := math.Sqrt(dLat*dLat + dLon*dLon)
	return dist <= c.epsDegrees
}

func bucketByH3(requests []*sim.Request) map[h3.Cell][]int {
	buckets := make(map[h3.Cell][]int)
	for i, req := range requests {
		cell := h3.LatLngToCell(h3.LatLng{Lat: req.Destination.Lat, Lng: req.Destination.Lon}, h3Resolution)
		buckets[cell] = append(buckets[cell], i)
	}
	return buckets
}

// unionFind is a standard disjoint-set structure with path compression
// and union by rank, used to compute connected components under the
// clustering radius.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent, rank: make([]int, n)}
}

func (u *unionFind) find(x int) int {
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
