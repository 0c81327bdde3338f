// Package community implements CommunityDetector: connected-component
// analysis over the suspicious subgraph, gated by evidence categories, that
// subsumes overlapping pattern rings (spec.md §4.9).
package community

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

const minEvidenceCategories = 2

// Evidence bundles the per-account fact sets needed to score community
// evidence categories.
type Evidence struct {
	CycleMembers map[string]bool
	FanInNodes   map[string]bool
	FanOutNodes  map[string]bool
	ShellNodes   map[string]bool
}

// Detector runs BFS connected-component analysis over the suspicious
// subgraph and assigns RING_COMM_### community rings.
type Detector struct {
	counter int
}

// NewDetector returns a CommunityDetector with its counter at zero.
func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) nextID() string {
	d.counter++
	return fmt.Sprintf("RING_COMM_%03d", d.counter)
}

// Run finds every connected component of size >= 2 in the suspicious
// subgraph (suspicion_score > 0 nodes; undirected edges where both
// endpoints are suspicious and Graph has a directed edge between them),
// accepts only components with >= 2 distinct evidence categories, and
// appends one Ring per accepted component to the returned list. Accepted
// components subsume their members' pattern ring ids.
func (d *Detector) Run(g *graph.Graph, idx *graph.AccountIndex, ev Evidence) []*domain.Ring {
	suspicious := make(map[string]bool)
	for _, id := range idx.Order() {
		if idx.Get(id).SuspicionScore > 0 {
			suspicious[id] = true
		}
	}

	adjacency := buildUndirectedAdjacency(g, idx, suspicious)

	visited := make(map[string]bool)
	var communities []*domain.Ring

	for _, id := range idx.Order() {
		if !suspicious[id] || visited[id] {
			continue
		}
		component := bfsComponent(id, adjacency, visited)
		if len(component) < 2 {
			continue
		}

		categories := evidenceCategories(component, adjacency, g, ev)
		if categories < minEvidenceCategories {
			continue
		}

		ring := buildCommunityRing(d.nextID(), component, idx, g)
		communities = append(communities, ring)
		subsumePatternRings(component, idx, ring.RingID)
	}

	return communities
}

func buildUndirectedAdjacency(g *graph.Graph, idx *graph.AccountIndex, suspicious map[string]bool) map[string][]string {
	adj := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	addEdge := func(a, b string) {
		if seen[a] == nil {
			seen[a] = make(map[string]bool)
		}
		if seen[a][b] {
			return
		}
		seen[a][b] = true
		adj[a] = append(adj[a], b)
	}

	for _, from := range idx.Order() {
		if !suspicious[from] {
			continue
		}
		for _, to := range g.Neighbors(from) {
			if !suspicious[to] {
				continue
			}
			addEdge(from, to)
			addEdge(to, from)
		}
	}
	return adj
}

func bfsComponent(start string, adj map[string][]string, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		component = append(component, cur)
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return component
}

func evidenceCategories(component []string, adj map[string][]string, g *graph.Graph, ev Evidence) int {
	members := make(map[string]bool, len(component))
	for _, m := range component {
		members[m] = true
	}

	categories := 0
	if anyMatch(component, ev.CycleMembers) {
		categories++
	}
	if anyMatch(component, ev.FanInNodes) {
		categories++
	}
	if anyMatch(component, ev.FanOutNodes) {
		categories++
	}
	if anyMatch(component, ev.ShellNodes) {
		categories++
	}
	if hasBridgeNode(component, adj) {
		categories++
	}
	if directedEdgeCount(members, g) >= len(component) {
		categories++
	}
	return categories
}

func anyMatch(component []string, set map[string]bool) bool {
	for _, m := range component {
		if set[m] {
			return true
		}
	}
	return false
}

func hasBridgeNode(component []string, adj map[string][]string) bool {
	for _, m := range component {
		if len(adj[m]) >= 2 {
			return true
		}
	}
	return false
}

func directedEdgeCount(members map[string]bool, g *graph.Graph) int {
	count := 0
	for from := range members {
		for _, to := range g.Neighbors(from) {
			if members[to] {
				count += len(g.Edges(from, to))
			}
		}
	}
	return count
}

func buildCommunityRing(id string, component []string, idx *graph.AccountIndex, g *graph.Graph) *domain.Ring {
	ring := domain.NewRing(id, domain.PatternTypeCommunity, component)

	sum := 0
	for _, m := range component {
		sum += idx.Get(m).SuspicionScore
	}
	mean := float64(sum) / float64(len(component))
	risk := mean + math.Log2(float64(len(component)+1))*10
	if risk > 100 {
		risk = 100
	}
	ring.RiskScore = int(math.Round(risk))

	total := decimal.Zero
	members := make(map[string]bool, len(component))
	for _, m := range component {
		members[m] = true
	}
	for from := range members {
		for _, to := range g.Neighbors(from) {
			if members[to] {
				for _, tx := range g.Edges(from, to) {
					total = total.Add(tx.Amount)
				}
			}
		}
	}
	ring.TotalValue = total
	ring.Explanation = fmt.Sprintf("Suspicious connected community of %d accounts", len(component))

	for _, m := range component {
		idx.Get(m).AddRingID(id)
		idx.Get(m).AddPattern(domain.PatternCommunity)
		idx.Get(m).AddAlgorithm("Mule Community Detection (BFS Components)")
	}

	return ring
}

func subsumePatternRings(component []string, idx *graph.AccountIndex, communityRingID string) {
	subsumed := make(map[string]bool)
	for _, m := range component {
		rec := idx.Get(m)
		for _, r := range rec.RingIDs {
			if r != communityRingID {
				subsumed[r] = true
			}
		}
	}
	for _, m := range component {
		rec := idx.Get(m)
		for ringID := range subsumed {
			rec.RemoveRingID(ringID)
		}
		rec.AddRingID(communityRingID)
	}
}
