// Package enrichment implements the four ordered post-detection passes:
// relationship intelligence, temporal cycle validation, ring leadership,
// and multi-stage flow tagging (spec.md §4.8).
package enrichment

import (
	"fmt"

	"github.com/opensource-finance/ringdetect/internal/graph"
	"github.com/opensource-finance/ringdetect/internal/rules"
)

const (
	minRelationshipTransactions = 5
	relationshipDampening       = -10
)

// Relationship implements spec.md §4.8.1: recurring sender-receiver pairs
// that match a legitimate-activity profile get a bounded negative score
// adjustment. Cycle members are immune.
type Relationship struct {
	thresholds *rules.Engine
}

// NewRelationship returns the relationship-intelligence pass.
func NewRelationship(thresholds *rules.Engine) *Relationship {
	return &Relationship{thresholds: thresholds}
}

// Run scans every directed sender->receiver edge with at least
// minRelationshipTransactions transactions. For edges where neither
// endpoint is a cycle member, it evaluates the edge's transaction
// count/duration/amount-variance/periodicity against the legitimacy
// profile and, on a match, applies a bounded negative adjustment to both
// endpoints.
func (r *Relationship) Run(g *graph.Graph, idx *graph.AccountIndex, cycleMembers map[string]bool) {
	for _, sender := range idx.Order() {
		for _, receiver := range g.Neighbors(sender) {
			if cycleMembers[sender] || cycleMembers[receiver] {
				continue
			}
			txs := g.Edges(sender, receiver)
			if len(txs) < minRelationshipTransactions {
				continue
			}

			durationDays, variance, periodicity := relationshipProfile(txs)
			if !r.thresholds.LegitimacyProfile(len(txs), durationDays, variance, periodicity) {
				continue
			}

			applyDampening(idx, sender, receiver)
		}
	}
}

func applyDampening(idx *graph.AccountIndex, sender, receiver string) {
	if rec := idx.Get(sender); rec != nil {
		rec.ApplyDelta(relationshipDampening)
		rec.Explain(fmt.Sprintf("%s matches a legitimate recurring-pair activity profile", sender))
	}
	if rec := idx.Get(receiver); rec != nil {
		rec.ApplyDelta(relationshipDampening)
		rec.Explain(fmt.Sprintf("%s matches a legitimate recurring-pair activity profile", receiver))
	}
}
