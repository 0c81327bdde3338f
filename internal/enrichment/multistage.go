package enrichment

import (
	"sort"
	"time"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

const multiStageBonus = 20

// MultiStage implements spec.md §4.8.4: an account belonging to >= 2 rings
// of distinct pattern_type is tagged MULTI_STAGE with an ordered
// flow_pattern and a capped +20 score bonus.
type MultiStage struct{}

// NewMultiStage returns the multi-stage flow-tagging pass.
func NewMultiStage() *MultiStage {
	return &MultiStage{}
}

// Run iterates accounts in idx order (deterministic), computing per-account
// the set of ring pattern types and, for each, the earliest transaction
// connecting the account to any member of any ring of that type.
func (m *MultiStage) Run(g *graph.Graph, idx *graph.AccountIndex, ringsByID map[string]*domain.Ring) {
	for _, id := range idx.Order() {
		rec := idx.Get(id)
		if len(rec.RingIDs) < 2 {
			continue
		}

		type stageTime struct {
			pattern domain.PatternType
			earliest time.Time
			has     bool
		}
		byType := make(map[domain.PatternType]*stageTime)
		var stages []*stageTime

		for _, ringID := range rec.RingIDs {
			ring, ok := ringsByID[ringID]
			if !ok {
				continue
			}
			st, ok := byType[ring.PatternType]
			if !ok {
				st = &stageTime{pattern: ring.PatternType}
				byType[ring.PatternType] = st
				stages = append(stages, st)
			}
			if t, ok := earliestConnectingTransaction(g, id, ring.Members); ok {
				if !st.has || t.Before(st.earliest) {
					st.earliest = t
					st.has = true
				}
			}
		}

		if len(byType) < 2 {
			continue
		}

		sort.SliceStable(stages, func(i, j int) bool {
			if stages[i].has != stages[j].has {
				return stages[i].has
			}
			return stages[i].earliest.Before(stages[j].earliest)
		})

		var flowPattern []string
		for _, st := range stages {
			flowPattern = append(flowPattern, string(st.pattern))
		}

		rec.LaunderingStage = domain.StageMultiStage
		rec.FlowPattern = flowPattern
		rec.AddPattern(domain.PatternMultiStage)
		rec.ApplyDelta(multiStageBonus)
		rec.Explain(id + " spans multiple laundering stages")
	}
}

// earliestConnectingTransaction finds the earliest transaction directly
// linking id to any of members (in either direction).
func earliestConnectingTransaction(g *graph.Graph, id string, members []string) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, m := range members {
		if m == id {
			continue
		}
		for _, tx := range g.Edges(id, m) {
			if !found || tx.Timestamp.Before(earliest) {
				earliest = tx.Timestamp
				found = true
			}
		}
		for _, tx := range g.Edges(m, id) {
			if !found || tx.Timestamp.Before(earliest) {
				earliest = tx.Timestamp
				found = true
			}
		}
	}
	return earliest, found
}
