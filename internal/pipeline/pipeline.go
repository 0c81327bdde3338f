// Package pipeline wires the nine ordered stages of fraud-ring detection
// into a single deterministic batch analysis (spec.md §4, §9):
// GraphBuilder, CycleDetector, FanInDetector, FanOutDetector,
// ShellChainDetector, Scorer, RingBuilder, Enrichment (four ordered
// sub-passes), CommunityDetector, and FanInPromoter.
package pipeline

import (
	"context"
	"sort"

	"github.com/opensource-finance/ringdetect/internal/community"
	"github.com/opensource-finance/ringdetect/internal/cycles"
	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/enrichment"
	"github.com/opensource-finance/ringdetect/internal/fanin"
	"github.com/opensource-finance/ringdetect/internal/fanout"
	"github.com/opensource-finance/ringdetect/internal/graph"
	"github.com/opensource-finance/ringdetect/internal/metrics"
	"github.com/opensource-finance/ringdetect/internal/promotion"
	"github.com/opensource-finance/ringdetect/internal/rings"
	"github.com/opensource-finance/ringdetect/internal/rules"
	"github.com/opensource-finance/ringdetect/internal/scoring"
	"github.com/opensource-finance/ringdetect/internal/shellchain"
)

// Pipeline holds the tunable-threshold engine and optional metrics registry
// shared across runs; every stage, including the ring-id counters, is built
// fresh inside each Analyze call.
type Pipeline struct {
	thresholds *rules.Engine
	metrics    *metrics.Registry
}

// New builds a Pipeline backed by the given tunable-threshold engine.
func New(thresholds *rules.Engine) *Pipeline {
	return &Pipeline{thresholds: thresholds}
}

// SetMetrics attaches a metrics registry; every subsequent Analyze call
// records batch-level instruments against it. Optional - a Pipeline with no
// registry attached skips instrumentation entirely.
func (p *Pipeline) SetMetrics(r *metrics.Registry) {
	p.metrics = r
}

// Analyze runs the full nine-stage pipeline over transactions under the
// given detection mode and returns the final domain.Result. elapsed is the
// wall-clock duration (seconds) to report in the Summary; the caller
// measures it since the pipeline itself must not call time.Now (spec.md
// determinism invariant extends to keeping wall-clock measurement outside
// the deterministic core).
func (p *Pipeline) Analyze(transactions []domain.Transaction, mode domain.DetectionMode, elapsedSeconds float64) domain.Result {
	mode = mode.Normalize()

	// Stage 1: GraphBuilder.
	g, idx := graph.NewBuilder().Build(transactions)

	// Stage 2-5: pattern detectors, gated by mode.
	var cyc []cycles.Cycle
	if mode.RunsCycles() {
		cyc = cycles.NewDetector().Detect(g, idx.Order())
	}
	var fanIns []fanin.Trigger
	if mode.RunsFanIn() {
		fanIns = fanin.NewDetector().Detect(g, idx)
	}
	var fanOuts []fanout.Trigger
	if mode.RunsFanOut() {
		fanOuts = fanout.NewDetector().Detect(g, idx)
	}
	var chains []shellchain.Chain
	if mode.RunsShell() {
		chains = shellchain.NewDetector().Detect(g, idx)
	}

	// Stage 6: Scorer.
	scoring.NewScorer(p.thresholds).Score(g, idx, scoring.Inputs{
		Cycles:      cyc,
		FanIn:       fanIns,
		FanOut:      fanOuts,
		ShellChains: chains,
	})

	// Stage 7: RingBuilder.
	allRings := rings.NewBuilder().Build(g, idx, cyc, fanIns, fanOuts, chains)

	// Stage 8: Enrichment, four ordered sub-passes.
	cycleMembers := make(map[string]bool)
	for _, c := range cyc {
		for _, m := range c.Members {
			cycleMembers[m] = true
		}
	}

	enrichment.NewRelationship(p.thresholds).Run(g, idx, cycleMembers)

	survivingCycles := enrichment.NewTemporal().Run(g, idx, allRings)
	allRings = replaceCycleRings(allRings, survivingCycles)

	enrichment.NewLeadership().Run(g, idx, allRings)

	ringsByID := make(map[string]*domain.Ring, len(allRings))
	for _, r := range allRings {
		ringsByID[r.RingID] = r
	}
	enrichment.NewMultiStage().Run(g, idx, ringsByID)

	// Stage 9a: CommunityDetector.
	shellNodes := collectShellNodes(chains)
	fanInNodes := make(map[string]bool, len(fanIns))
	for _, t := range fanIns {
		fanInNodes[t.Receiver] = true
	}
	fanOutNodes := make(map[string]bool, len(fanOuts))
	for _, t := range fanOuts {
		fanOutNodes[t.Sender] = true
	}
	surviving := make(map[string]bool)
	for _, c := range survivingCycles {
		for _, m := range c.Members {
			surviving[m] = true
		}
	}
	commRings := community.NewDetector().Run(g, idx, community.Evidence{
		CycleMembers: surviving,
		FanInNodes:   fanInNodes,
		FanOutNodes:  fanOutNodes,
		ShellNodes:   shellNodes,
	})
	allRings = append(allRings, commRings...)
	rings.SortByRiskScoreDesc(allRings)

	// Stage 9b: FanInPromoter.
	promotion.NewPromoter().Run(g, idx, fanIns, shellNodes, fanOutNodes, surviving)

	result := buildResult(idx, allRings, len(transactions), elapsedSeconds)

	if p.metrics != nil {
		ringsByType := make(map[string]int)
		for _, r := range allRings {
			ringsByType[string(r.PatternType)]++
		}
		p.metrics.RecordBatch(context.Background(), len(transactions), ringsByType, result.Summary.SuspiciousAccountsFlagged, elapsedSeconds)
	}

	return result
}

// replaceCycleRings substitutes the surviving cycle rings for the original
// set's cycle rings, preserving the relative order of every other pattern
// type (temporal validation never reorders, only removes).
func replaceCycleRings(original, survivingCycles []*domain.Ring) []*domain.Ring {
	survivingSet := make(map[string]bool, len(survivingCycles))
	for _, r := range survivingCycles {
		survivingSet[r.RingID] = true
	}
	out := make([]*domain.Ring, 0, len(original))
	for _, r := range original {
		if r.PatternType == domain.PatternTypeCycle && !survivingSet[r.RingID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func collectShellNodes(chains []shellchain.Chain) map[string]bool {
	nodes := make(map[string]bool)
	for _, c := range chains {
		for i := 1; i < len(c.Members)-1; i++ {
			nodes[c.Members[i]] = true
		}
	}
	return nodes
}

func buildResult(idx *graph.AccountIndex, allRings []*domain.Ring, totalTx int, elapsedSeconds float64) domain.Result {
	accounts := make([]domain.AccountView, 0, idx.Len())
	suspicious := 0
	for _, id := range idx.Order() {
		rec := idx.Get(id)
		if rec.IsSuspicious {
			suspicious++
		}
		accounts = append(accounts, domain.NewAccountView(rec))
	}
	sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].SuspicionScore > accounts[j].SuspicionScore })

	return domain.Result{
		Accounts:   accounts,
		FraudRings: allRings,
		Summary: domain.Summary{
			TotalAccountsAnalyzed:     idx.Len(),
			TotalTransactions:         totalTx,
			SuspiciousAccountsFlagged: suspicious,
			FraudRingsDetected:        len(allRings),
			ProcessingTimeSeconds:     elapsedSeconds,
		},
	}
}
