package enrichment

import (
	"sort"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

const (
	centralityFloor  = 1e-9
	orchestratorBonus = 10
	intermediaryShare = 2.0 / 3.0
)

// Leadership implements spec.md §4.8.3: Brandes' unweighted directed
// betweenness centrality over each ring's local edge set assigns
// ORCHESTRATOR/INTERMEDIARY/PERIPHERAL roles and a capped +10 bonus to the
// orchestrator.
type Leadership struct{}

// NewLeadership returns the ring-leadership pass.
func NewLeadership() *Leadership {
	return &Leadership{}
}

// Run processes every ring with >= 2 members. If an account is orchestrator
// in more than one ring, only its highest centrality is kept (subsequent
// lower assignments do not downgrade CentralityScore, though RingRole is
// still set per-ring membership's own computation since role is ring-local
// context the account carries its best instance of).
func (l *Leadership) Run(g *graph.Graph, idx *graph.AccountIndex, ringList []*domain.Ring) {
	for _, ring := range ringList {
		if len(ring.Members) < 2 {
			continue
		}
		l.assignRoles(g, idx, ring)
	}
}

func (l *Leadership) assignRoles(g *graph.Graph, idx *graph.AccountIndex, ring *domain.Ring) {
	members := ring.Members
	n := len(members)
	index := make(map[string]int, n)
	for i, m := range members {
		index[m] = i
	}

	adj := make([][]int, n)
	for i, from := range members {
		for _, to := range g.Neighbors(from) {
			j, ok := index[to]
			if !ok || j == i {
				continue
			}
			adj[i] = append(adj[i], j)
		}
	}

	centrality := brandesBetweenness(adj, n)

	maxC := centralityFloor
	for _, c := range centrality {
		if c > maxC {
			maxC = c
		}
	}
	normalized := make([]float64, n)
	for i, c := range centrality {
		normalized[i] = c / maxC
	}

	rank := make([]int, n)
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(a, b int) bool { return normalized[rank[a]] > normalized[rank[b]] })

	for pos, memberIdx := range rank {
		accountID := members[memberIdx]
		rec := idx.Get(accountID)
		if rec == nil {
			continue
		}

		var role domain.RingRole
		switch {
		case pos == 0:
			role = domain.RoleOrchestrator
		case n <= 3:
			role = domain.RolePeripheral
		case float64(pos) < float64(n)*intermediaryShare:
			role = domain.RoleIntermediary
		default:
			role = domain.RolePeripheral
		}

		if role == domain.RoleOrchestrator {
			if rec.RingRole != domain.RoleOrchestrator || normalized[memberIdx] > rec.CentralityScore {
				rec.CentralityScore = normalized[memberIdx]
			}
			rec.RingRole = domain.RoleOrchestrator
			rec.ApplyDelta(orchestratorBonus)
			continue
		}

		if rec.RingRole == domain.RoleOrchestrator {
			continue
		}
		if rec.RingRole == "" || (rec.RingRole == domain.RolePeripheral && role == domain.RoleIntermediary) {
			rec.RingRole = role
			rec.CentralityScore = normalized[memberIdx]
		}
	}
}

// brandesBetweenness computes unweighted directed betweenness centrality
// over adjacency list adj (n nodes), via repeated BFS from every source.
func brandesBetweenness(adj [][]int, n int) []float64 {
	centrality := make([]float64, n)

	for s := 0; s < n; s++ {
		stack := make([]int, 0, n)
		preds := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				if sigma[w] != 0 {
					delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
				}
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	return centrality
}
