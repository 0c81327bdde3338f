// Package scoring implements the weighted suspicion-score aggregation and
// false-positive dampening described in spec.md §4.6.
package scoring

import (
	"fmt"
	"sort"

	"github.com/opensource-finance/ringdetect/internal/cycles"
	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/fanin"
	"github.com/opensource-finance/ringdetect/internal/fanout"
	"github.com/opensource-finance/ringdetect/internal/graph"
	"github.com/opensource-finance/ringdetect/internal/rules"
	"github.com/opensource-finance/ringdetect/internal/shellchain"
)

const (
	weightCycle    = 40
	weightFanIn    = 30
	weightFanOut   = 30
	weightShell    = 35
	weightVelocity = 15

	dampeningPenalty  = -30
	dampeningDegreeMin = 100
	toleranceFraction = 0.3
)

// Inputs bundles every pattern detector's output that the Scorer consumes.
type Inputs struct {
	Cycles      []cycles.Cycle
	FanIn       []fanin.Trigger
	FanOut      []fanout.Trigger
	ShellChains []shellchain.Chain
}

// Scorer computes per-account pattern_scores and suspicion_score.
type Scorer struct {
	thresholds *rules.Engine
}

// NewScorer builds a Scorer backed by the given tunable-threshold engine.
func NewScorer(thresholds *rules.Engine) *Scorer {
	return &Scorer{thresholds: thresholds}
}

// Score mutates every AccountRecord in idx in place per spec.md §4.6.
func (s *Scorer) Score(g *graph.Graph, idx *graph.AccountIndex, in Inputs) {
	cycleMembers := make(map[string]bool)
	for _, c := range in.Cycles {
		for _, m := range c.Members {
			cycleMembers[m] = true
		}
	}
	shellNodes := collectShellNodes(in.ShellChains)

	for _, id := range idx.Order() {
		rec := idx.Get(id)

		if cycleMembers[id] {
			rec.PatternScores.Cycle = weightCycle
			rec.AddPattern(domain.PatternCycle)
			rec.AddAlgorithm("Cycle Detection (Bounded DFS)")
			rec.Explain(fmt.Sprintf("%s participates in a directed transaction cycle", id))
		}
	}

	for _, trig := range in.FanIn {
		rec := idx.Get(trig.Receiver)
		rec.PatternScores.FanIn = weightFanIn
		rec.AddPattern(domain.PatternFanIn)
		rec.AddAlgorithm("Fan-In Detection (Sliding Window)")
		rec.Explain(fmt.Sprintf("%s received funds from %d distinct senders within 72 hours", trig.Receiver, len(trig.Senders)))
	}

	for _, trig := range in.FanOut {
		rec := idx.Get(trig.Sender)
		rec.PatternScores.FanOut = weightFanOut
		rec.AddPattern(domain.PatternFanOut)
		rec.AddAlgorithm("Fan-Out Detection (Sliding Window)")
		rec.Explain(fmt.Sprintf("%s dispersed funds to %d distinct receivers within 72 hours", trig.Sender, len(trig.Receivers)))
	}

	for id := range shellNodes {
		rec := idx.Get(id)
		rec.PatternScores.Shell = weightShell
		rec.AddPattern(domain.PatternShell)
		rec.AddAlgorithm("Shell Chain Detection (BFS)")
		rec.Explain(fmt.Sprintf("%s acts as a low-activity intermediary in a shell chain", id))
	}

	for _, id := range idx.Order() {
		rec := idx.Get(id)
		txs := accountTransactions(g, idx, id)
		if perDay, ok := velocityPerDay(txs); ok && s.thresholds.VelocityTriggered(perDay) {
			rec.PatternScores.Velocity = weightVelocity
			rec.AddPattern(domain.PatternVelocity)
			rec.AddAlgorithm("Velocity Check")
			rec.Explain(fmt.Sprintf("%s exceeds 15 transactions per day", id))
		}
	}

	for _, id := range idx.Order() {
		rec := idx.Get(id)
		rec.RecomputeScore()

		degree := rec.InDegree + rec.OutDegree
		if degree > dampeningDegreeMin && !cycleMembers[id] {
			txs := accountTransactions(g, idx, id)
			if pct, ok := intervalTolerancePct(txs); ok && s.thresholds.DampeningTriggered(degree, pct) {
				rec.ApplyDelta(dampeningPenalty)
				rec.AddAlgorithm("False Positive Dampening")
				rec.Explain(fmt.Sprintf("%s dampened as a likely high-throughput merchant or payroll account", id))
			}
		}
	}
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

// accountTransactions returns every transaction touching id (as sender or
// receiver), in sender-iteration order, sorted by timestamp.
func accountTransactions(g *graph.Graph, idx *graph.AccountIndex, id string) []domain.Transaction {
	var out []domain.Transaction
	for _, receiver := range g.Neighbors(id) {
		out = append(out, g.Edges(id, receiver)...)
	}
	for _, sender := range idx.Order() {
		if sender == id {
			continue
		}
		out = append(out, g.Edges(sender, id)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// velocityPerDay computes count / max(1, span/1day) per spec.md §4.6.
func velocityPerDay(txs []domain.Transaction) (float64, bool) {
	if len(txs) == 0 {
		return 0, false
	}
	span := txs[len(txs)-1].Timestamp.Sub(txs[0].Timestamp)
	days := span.Hours() / 24
	if days < 1 {
		days = 1
	}
	return float64(len(txs)) / days, true
}

// intervalTolerancePct computes the fraction of consecutive inter-arrival
// intervals within +/-30% of the mean interval (spec.md §4.6).
func intervalTolerancePct(txs []domain.Transaction) (float64, bool) {
	if len(txs) < 3 {
		return 0, false
	}
	intervals := make([]float64, 0, len(txs)-1)
	var sum float64
	for i := 1; i < len(txs); i++ {
		d := txs[i].Timestamp.Sub(txs[i-1].Timestamp).Seconds()
		intervals = append(intervals, d)
		sum += d
	}
	mean := sum / float64(len(intervals))
	if mean <= 0 {
		return 0, false
	}
	within := 0
	for _, d := range intervals {
		lower := mean * (1 - toleranceFraction)
		upper := mean * (1 + toleranceFraction)
		if d >= lower && d <= upper {
			within++
		}
	}
	return float64(within) / float64(len(intervals)), true
}
