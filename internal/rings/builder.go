// Package rings implements RingBuilder: it materializes Ring objects from
// each pattern detector's output in the fixed emission order required for
// deterministic ring id assignment (spec.md §4.7, §9).
package rings

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/ringdetect/internal/cycles"
	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/fanin"
	"github.com/opensource-finance/ringdetect/internal/fanout"
	"github.com/opensource-finance/ringdetect/internal/graph"
	"github.com/opensource-finance/ringdetect/internal/shellchain"
)

// Builder assigns the monotonic RING_### counter and constructs Ring
// objects plus the account_id -> ring_ids back-references.
type Builder struct {
	counter int
}

// NewBuilder returns a RingBuilder with its counter at zero.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) nextID() string {
	b.counter++
	return fmt.Sprintf("RING_%03d", b.counter)
}

// Build emits, in order: one cycle ring per retained cycle, one fan_in ring
// per receiver, one fan_out ring per sender, then one shell_chain ring per
// connected component of the raw chain set (collapsed here, at
// ring-building time, per spec.md §9). Every emitted ring's members gain
// the ring id via AddRingID, and risk_score/total_value are computed from
// current AccountRecord state.
func (b *Builder) Build(g *graph.Graph, idx *graph.AccountIndex, cyc []cycles.Cycle, fanIns []fanin.Trigger, fanOuts []fanout.Trigger, chains []shellchain.Chain) []*domain.Ring {
	var out []*domain.Ring

	for _, c := range cyc {
		ring := domain.NewRing(b.nextID(), domain.PatternTypeCycle, c.Members)
		ring.TotalValue = cycleTotalValue(g, c.Members)
		ring.Explanation = fmt.Sprintf("Directed transaction cycle among %d accounts", len(c.Members))
		attach(idx, ring)
		out = append(out, ring)
	}

	for _, trig := range fanIns {
		members := append([]string{trig.Receiver}, trig.Senders...)
		ring := domain.NewRing(b.nextID(), domain.PatternTypeFanIn, members)
		ring.Explanation = fmt.Sprintf("%s received funds from %d distinct senders within 72 hours", trig.Receiver, len(trig.Senders))
		attach(idx, ring)
		out = append(out, ring)
	}

	for _, trig := range fanOuts {
		members := append([]string{trig.Sender}, trig.Receivers...)
		ring := domain.NewRing(b.nextID(), domain.PatternTypeFanOut, members)
		ring.Explanation = fmt.Sprintf("%s dispersed funds to %d distinct receivers within 72 hours", trig.Sender, len(trig.Receivers))
		attach(idx, ring)
		out = append(out, ring)
	}

	for _, comp := range collapseShellComponents(chains) {
		ring := domain.NewRing(b.nextID(), domain.PatternTypeShell, comp.Members)
		ring.Explanation = fmt.Sprintf("Shell chain of %d hops through low-activity intermediaries", len(comp.Members)-1)
		attach(idx, ring)
		out = append(out, ring)
	}

	for _, ring := range out {
		ring.RiskScore = meanSuspicionScore(idx, ring.Members)
	}

	return out
}

func attach(idx *graph.AccountIndex, ring *domain.Ring) {
	for _, m := range ring.Members {
		if rec := idx.Get(m); rec != nil {
			rec.AddRingID(ring.RingID)
		}
	}
}

func meanSuspicionScore(idx *graph.AccountIndex, members []string) int {
	if len(members) == 0 {
		return 0
	}
	sum := 0
	for _, m := range members {
		if rec := idx.Get(m); rec != nil {
			sum += rec.SuspicionScore
		}
	}
	return roundDiv(sum, len(members))
}

func roundDiv(sum, count int) int {
	if count == 0 {
		return 0
	}
	// round-half-up on a non-negative ratio
	return (sum*2 + count) / (count * 2)
}

// cycleTotalValue sums the first transaction on each hop edge (spec.md
// §4.7).
func cycleTotalValue(g *graph.Graph, members []string) decimal.Decimal {
	total := decimal.Zero
	n := len(members)
	for i := 0; i < n; i++ {
		from := members[i]
		to := members[(i+1)%n]
		if tx, ok := g.FirstEdgeTransaction(from, to); ok {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// shellComponent is one connected component of the chain-union undirected
// graph, represented by its chosen (longest, first-discovered) chain.
type shellComponent struct {
	Members []string
}

// collapseShellComponents groups raw shell chains into connected components
// (two chains are connected if they share any node) and, per component,
// picks the chain with the most unique nodes, ties broken by first
// discovery (spec.md §4.5).
func collapseShellComponents(chains []shellchain.Chain) []shellComponent {
	if len(chains) == 0 {
		return nil
	}

	// Union-find over chain indices, connecting two chains iff they share a node.
	uf := newUnionFind(len(chains))
	nodeOwner := make(map[string]int)
	for i, c := range chains {
		for _, m := range c.Members {
			if owner, ok := nodeOwner[m]; ok {
				uf.union(owner, i)
			} else {
				nodeOwner[m] = i
			}
		}
	}

	groups := make(map[int][]int)
	var groupOrder []int
	for i := range chains {
		root := uf.find(i)
		if _, ok := groups[root]; !ok {
			groupOrder = append(groupOrder, root)
		}
		groups[root] = append(groups[root], i)
	}

	var components []shellComponent
	for _, root := range groupOrder {
		members := groups[root]
		best := members[0]
		bestUnique := uniqueCount(chains[best].Members)
		for _, m := range members[1:] {
			u := uniqueCount(chains[m].Members)
			if u > bestUnique {
				best = m
				bestUnique = u
			}
		}
		components = append(components, shellComponent{Members: chains[best].Members})
	}

	return components
}

func uniqueCount(members []string) int {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m] = struct{}{}
	}
	return len(seen)
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p, rank: make([]int, n)}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
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

// SortByRiskScoreDesc stable-sorts rings by risk_score descending, used
// after community detection re-sorts the global ring list (spec.md §4.9).
func SortByRiskScoreDesc(list []*domain.Ring) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].RiskScore > list[j].RiskScore })
}
