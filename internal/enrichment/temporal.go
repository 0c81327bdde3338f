package enrichment

import (
	"github.com/shopspring/decimal"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

const amountContinuityFactor = 0.5

// Temporal implements spec.md §4.8.2: each surviving cycle ring's hop
// sequence must be chronologically non-decreasing and amount-continuous;
// rings that fail either check are removed and their now-cycle-free members
// have pattern_scores.cycle zeroed and the score recomputed.
type Temporal struct{}

// NewTemporal returns the temporal-cycle-validation pass.
func NewTemporal() *Temporal {
	return &Temporal{}
}

// Run validates every cycle ring in rings, returning the surviving list in
// original relative order. Removed rings have their members' cycle
// pattern/score cleared, but only for members that no longer belong to any
// surviving cycle ring.
func (t *Temporal) Run(g *graph.Graph, idx *graph.AccountIndex, allRings []*domain.Ring) []*domain.Ring {
	survivingMembership := make(map[string]bool)
	var surviving []*domain.Ring

	for _, ring := range allRings {
		if ring.PatternType != domain.PatternTypeCycle {
			surviving = append(surviving, ring)
			continue
		}
		if valid(g, ring.Members) {
			surviving = append(surviving, ring)
			for _, m := range ring.Members {
				survivingMembership[m] = true
			}
			continue
		}
		// Ring removed: detach it from every member's ring_ids now.
		for _, m := range ring.Members {
			if rec := idx.Get(m); rec != nil {
				rec.RemoveRingID(ring.RingID)
			}
		}
	}

	for _, ring := range allRings {
		if ring.PatternType != domain.PatternTypeCycle {
			continue
		}
		if valid(g, ring.Members) {
			continue
		}
		for _, m := range ring.Members {
			if survivingMembership[m] {
				continue
			}
			rec := idx.Get(m)
			if rec == nil || rec.PatternScores.Cycle == 0 {
				continue
			}
			rec.PatternScores.Cycle = 0
			rec.RemovePattern(domain.PatternCycle)
			rec.RecomputeScore()
			rec.Explain(m + " cycle ring invalidated by temporal validation")
		}
	}

	return surviving
}

// valid checks spec.md §4.8.2's two rules on the ring's hop sequence: each
// hop's earliest transaction must be chronologically non-decreasing, and
// each hop's amount must be >= 0.5x the previous hop's amount.
func valid(g *graph.Graph, members []string) bool {
	n := len(members)
	if n < 3 {
		return false
	}
	hops := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		from := members[i]
		to := members[(i+1)%n]
		tx, ok := g.FirstEdgeTransaction(from, to)
		if !ok {
			return false
		}
		hops = append(hops, tx)
	}

	for i := 1; i < len(hops); i++ {
		if hops[i].Timestamp.Before(hops[i-1].Timestamp) {
			return false
		}
	}
	for i := 1; i < len(hops); i++ {
		threshold := hops[i-1].Amount.Mul(decimal.NewFromFloat(amountContinuityFactor))
		if hops[i].Amount.LessThan(threshold) {
			return false
		}
	}
	return true
}
