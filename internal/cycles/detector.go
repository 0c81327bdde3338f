// Package cycles implements bounded simple directed cycle enumeration
// (spec.md §4.2).
package cycles

import (
	"sort"
	"strings"

	"github.com/opensource-finance/ringdetect/internal/graph"
)

const (
	minLength = 3
	maxLength = 5
)

// Cycle is one retained simple directed cycle, in traversal order.
type Cycle struct {
	Members []string
}

// Detector enumerates simple directed cycles of length 3..5.
type Detector struct{}

// NewDetector returns a CycleDetector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect walks every node in g's node-set iteration order (spec.md §9 fixes
// this to insertion order), running a depth-bounded DFS from each. Cycles
// are deduplicated by sorted node-set signature; the first discovered
// representative is retained.
func (d *Detector) Detect(g *graph.Graph, nodeOrder []string) []Cycle {
	seen := make(map[string]bool)
	var result []Cycle

	for _, start := range nodeOrder {
		d.searchFrom(g, start, seen, &result)
	}

	return result
}

func (d *Detector) searchFrom(g *graph.Graph, start string, seen map[string]bool, result *[]Cycle) {
	path := []string{start}
	onPath := map[string]int{start: 0}
	d.extend(g, start, path, onPath, seen, result)
}

// extend performs the bounded DFS. path[0] is always the fixed start node;
// onPath maps a node to its index in path for O(1) membership checks.
func (d *Detector) extend(g *graph.Graph, start string, path []string, onPath map[string]int, seen map[string]bool, result *[]Cycle) {
	last := path[len(path)-1]
	for _, next := range g.Neighbors(last) {
		if next == start {
			if len(path) >= minLength {
				recordCycle(path, seen, result)
			}
			continue
		}
		// The depth bound only blocks further expansion; the closing check
		// above must still run at maxLength so a length-5 cycle can close.
		if len(path) >= maxLength {
			continue
		}
		if _, onP := onPath[next]; onP {
			continue
		}
		newPath := append(append([]string{}, path...), next)
		onPath[next] = len(path)
		d.extend(g, start, newPath, onPath, seen, result)
		delete(onPath, next)
	}
}

func recordCycle(path []string, seen map[string]bool, result *[]Cycle) {
	sig := signature(path)
	if seen[sig] {
		return
	}
	seen[sig] = true
	members := make([]string, len(path))
	copy(members, path)
	*result = append(*result, Cycle{Members: members})
}

func signature(path []string) string {
	sorted := append([]string{}, path...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
