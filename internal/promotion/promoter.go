// Package promotion implements FanInPromoter: the two-phase fan-in
// aggregation-candidate / confirmed-money-laundering upgrade path
// (spec.md §4.10). Promotion never alters suspicion_score.
package promotion

import (
	"time"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/fanin"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

const (
	shellAmountTolerance = 0.2
	rapidOutflowWindow   = 24 * time.Hour
	rapidOutflowFraction = 0.5
)

// Promoter assigns FanInPromotion state to every fan-in receiver.
type Promoter struct{}

// NewPromoter returns a FanInPromoter.
func NewPromoter() *Promoter {
	return &Promoter{}
}

// Run marks every fan-in trigger's receiver as an aggregation_candidate
// (phase 1), then upgrades to confirmed_money_laundering (phase 2) any
// receiver satisfying at least one of: shell-chain amount preservation,
// cycle-ring participation (receiver is in a cycle ring or sends to a
// cycle-ring member), rapid layered outflow, or a role conflict (receiver
// is itself a shell node, a fan-out sender, or a cycle-ring member). Idx
// records are mutated in place; SuspicionScore is untouched.
func (p *Promoter) Run(g *graph.Graph, idx *graph.AccountIndex, triggers []fanin.Trigger, shellNodes map[string]bool, fanOutNodes map[string]bool, cycleMembers map[string]bool) {
	candidates := make(map[string]bool)
	for _, trig := range triggers {
		candidates[trig.Receiver] = true
	}

	for id := range candidates {
		rec := idx.Get(id)
		if rec.FanInPromotion == domain.PromotionNone {
			rec.FanInPromotion = domain.PromotionAggregationCandidate
		}
	}

	for id := range candidates {
		rec := idx.Get(id)
		if p.shouldConfirm(g, id, shellNodes, fanOutNodes, cycleMembers) {
			rec.FanInPromotion = domain.PromotionConfirmedLaundering
		}
	}
}

func (p *Promoter) shouldConfirm(g *graph.Graph, id string, shellNodes map[string]bool, fanOutNodes map[string]bool, cycleMembers map[string]bool) bool {
	if shellAmountPreserved(g, id, shellNodes) {
		return true
	}
	if cycleMembers[id] || sendsToCycleMember(g, id, cycleMembers) {
		return true
	}
	if rapidLayeredOutflow(g, id) {
		return true
	}
	if roleConflict(id, shellNodes, fanOutNodes, cycleMembers) {
		return true
	}
	return false
}

// sendsToCycleMember reports whether id has an outbound edge to a node that
// is itself a member of a cycle ring.
func sendsToCycleMember(g *graph.Graph, id string, cycleMembers map[string]bool) bool {
	for _, to := range g.Neighbors(id) {
		if cycleMembers[to] {
			return true
		}
	}
	return false
}

// shellAmountPreserved reports whether id is itself a shell node whose
// inbound and outbound totals on its edges stay within +/-20% of each
// other, the signature of a layering pass-through account.
func shellAmountPreserved(g *graph.Graph, id string, shellNodes map[string]bool) bool {
	if !shellNodes[id] {
		return false
	}
	var in, out float64
	for _, sender := range g.Senders() {
		for _, to := range g.Neighbors(sender) {
			if to != id {
				continue
			}
			for _, t := range g.Edges(sender, to) {
				f, _ := t.Amount.Float64()
				in += f
			}
		}
	}
	for _, to := range g.Neighbors(id) {
		for _, t := range g.Edges(id, to) {
			f, _ := t.Amount.Float64()
			out += f
		}
	}
	if in == 0 {
		return false
	}
	ratio := out / in
	return ratio >= 1-shellAmountTolerance && ratio <= 1+shellAmountTolerance
}

// rapidLayeredOutflow reports whether outbound transactions worth at least
// half of id's total received value depart within 24 hours of its earliest
// inbound transaction, the signature of a pass-through mule account.
func rapidLayeredOutflow(g *graph.Graph, id string) bool {
	var earliestIn *time.Time
	var totalIn float64
	for _, sender := range g.Senders() {
		for _, to := range g.Neighbors(sender) {
			if to != id {
				continue
			}
			for _, t := range g.Edges(sender, to) {
				f, _ := t.Amount.Float64()
				totalIn += f
				if earliestIn == nil || t.Timestamp.Before(*earliestIn) {
					ts := t.Timestamp
					earliestIn = &ts
				}
			}
		}
	}
	if earliestIn == nil || totalIn == 0 {
		return false
	}

	var totalOut, rapidOut float64
	deadline := earliestIn.Add(rapidOutflowWindow)
	for _, to := range g.Neighbors(id) {
		for _, t := range g.Edges(id, to) {
			f, _ := t.Amount.Float64()
			totalOut += f
			if !t.Timestamp.After(deadline) {
				rapidOut += f
			}
		}
	}
	if totalOut == 0 {
		return false
	}
	return rapidOut/totalIn >= rapidOutflowFraction
}

// roleConflict reports whether id is itself a shell node, a fan-out
// sender, or a cycle-ring member - a receiver wearing another pattern's
// hat alongside fan-in is corroborating evidence, not a role field.
func roleConflict(id string, shellNodes map[string]bool, fanOutNodes map[string]bool, cycleMembers map[string]bool) bool {
	return shellNodes[id] || fanOutNodes[id] || cycleMembers[id]
}
