// Package shellchain implements shell chain detection: directed paths of
// length >= 3 hops whose intermediate nodes are all low-activity "shell"
// accounts (spec.md §4.5).
package shellchain

import (
	"github.com/opensource-finance/ringdetect/internal/graph"
)

const (
	shellMaxTransactions = 3
	maxDepth             = 6
	minHops              = 3
)

// Chain is one emitted shell chain path, endpoints included.
type Chain struct {
	Members []string
}

// Detector runs the BFS shell-chain search.
type Detector struct{}

// NewDetector returns a ShellChainDetector.
func NewDetector() *Detector {
	return &Detector{}
}

// IsShell reports whether id is a shell node (total_transactions <= 3).
func IsShell(idx *graph.AccountIndex, id string) bool {
	rec := idx.Get(id)
	return rec != nil && rec.TotalTransactions <= shellMaxTransactions
}

type frame struct {
	path []string
}

// Detect runs, from every account in idx order, a BFS over outgoing edges up
// to depth 6. Whenever the current path has >= 3 hops and every intermediate
// node is a shell node, the path is emitted; BFS only expands through a hop
// when the next node is itself a shell node, so chains grow through
// low-activity corridors. Returns every qualifying path (uncollapsed); the
// ring-building stage collapses by connected component (spec.md §9).
func (d *Detector) Detect(g *graph.Graph, idx *graph.AccountIndex) []Chain {
	var chains []Chain

	for _, start := range idx.Order() {
		queue := []frame{{path: []string{start}}}
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]

			hops := len(f.path) - 1
			if hops >= minHops && allIntermediatesShell(idx, f.path) {
				chains = append(chains, Chain{Members: append([]string{}, f.path...)})
			}
			if hops >= maxDepth {
				continue
			}

			last := f.path[len(f.path)-1]
			for _, next := range g.Neighbors(last) {
				if containsNode(f.path, next) {
					continue
				}
				// Expansion from `last` is only allowed once `last` is
				// itself a shell node, since any further hop makes `last`
				// an intermediate. The very first hop (last == start) is
				// exempt: start is always a chain endpoint, never an
				// intermediate.
				if hops > 0 && !IsShell(idx, last) {
					continue
				}
				newPath := append(append([]string{}, f.path...), next)
				queue = append(queue, frame{path: newPath})
			}
		}
	}

	return chains
}

func allIntermediatesShell(idx *graph.AccountIndex, path []string) bool {
	for i := 1; i < len(path)-1; i++ {
		if !IsShell(idx, path[i]) {
			return false
		}
	}
	return true
}

func containsNode(path []string, id string) bool {
	for _, n := range path {
		if n == id {
			return true
		}
	}
	return false
}
