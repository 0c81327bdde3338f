package domain

import "github.com/shopspring/decimal"

// RingRole is assigned by the ring-leadership enrichment pass (spec.md §4.8.3).
type RingRole string

const (
	RoleOrchestrator RingRole = "ORCHESTRATOR"
	RoleIntermediary RingRole = "INTERMEDIARY"
	RolePeripheral   RingRole = "PERIPHERAL"
)

// LaunderingStage is assigned by the multi-stage flow-tagging pass (spec.md §4.8.4).
type LaunderingStage string

const (
	StageNone       LaunderingStage = ""
	StageMultiStage LaunderingStage = "MULTI_STAGE"
)

// FanInPromotion is the two-phase fan-in promotion state (spec.md §4.10).
type FanInPromotion string

const (
	PromotionNone                 FanInPromotion = "none"
	PromotionAggregationCandidate FanInPromotion = "aggregation_candidate"
	PromotionConfirmedLaundering  FanInPromotion = "confirmed_money_laundering"
)

// Pattern tags an account can accumulate in DetectedPatterns.
const (
	PatternCycle      = "cycle"
	PatternFanIn      = "fan_in"
	PatternFanOut     = "fan_out"
	PatternShell      = "shell_chain"
	PatternVelocity   = "velocity"
	PatternMultiStage = "multi_stage"
	PatternCommunity  = "community"
)

// PatternScores holds each detector's additive contribution to an account's
// suspicion score (spec.md §3, §4.6).
type PatternScores struct {
	FanIn    int `json:"fanIn"`
	FanOut   int `json:"fanOut"`
	Cycle    int `json:"cycle"`
	Shell    int `json:"shell"`
	Velocity int `json:"velocity"`
}

// Sum returns the raw sum of the five pattern contributions, pre-adjustment.
func (p PatternScores) Sum() int {
	return p.FanIn + p.FanOut + p.Cycle + p.Shell + p.Velocity
}

// AccountRecord is the mutable per-account state threaded through every
// pipeline stage (spec.md §3). It is created on first observation of an
// account id in the input and mutated only by the pipeline stages, in
// stage order.
type AccountRecord struct {
	AccountID string `json:"accountId"`

	TotalTransactions int `json:"totalTransactions"`
	InDegree          int `json:"inDegree"`
	OutDegree         int `json:"outDegree"`

	TotalAmountSent     decimal.Decimal `json:"totalAmountSent"`
	TotalAmountReceived decimal.Decimal `json:"totalAmountReceived"`

	PatternScores PatternScores `json:"patternScores"`

	SuspicionScore    int      `json:"suspicionScore"`
	DetectedPatterns  []string `json:"detectedPatterns"`
	RingIDs           []string `json:"ringIds"`
	TriggeredAlgos    []string `json:"triggeredAlgorithms"`
	Explanation       []string `json:"-"`
	ExplanationText   string   `json:"explanation"`
	IsSuspicious      bool     `json:"isSuspicious"`

	// ScoreAdjustment is the running total of enrichment-pass deltas applied
	// on top of the pattern-score sum (spec.md §3's "adjustments only
	// accumulate monotonically in tracked deltas" invariant).
	ScoreAdjustment int `json:"-"`

	CentralityScore float64  `json:"centralityScore,omitempty"`
	RingRole        RingRole `json:"ringRole,omitempty"`

	LaunderingStage LaunderingStage `json:"launderingStage,omitempty"`
	FlowPattern     []string        `json:"flowPattern,omitempty"`

	FanInPromotion FanInPromotion `json:"fanInPromotion"`
}

// NewAccountRecord creates a zero-value record for a freshly observed id.
func NewAccountRecord(id string) *AccountRecord {
	return &AccountRecord{
		AccountID:           id,
		TotalAmountSent:     decimal.Zero,
		TotalAmountReceived: decimal.Zero,
		FanInPromotion:      PromotionNone,
	}
}

// AddPattern appends a pattern tag if not already present, preserving
// first-seen order (spec.md §3 "ordered unique list").
func (a *AccountRecord) AddPattern(pattern string) {
	for _, p := range a.DetectedPatterns {
		if p == pattern {
			return
		}
	}
	a.DetectedPatterns = append(a.DetectedPatterns, pattern)
}

// RemovePattern drops a pattern tag if present.
func (a *AccountRecord) RemovePattern(pattern string) {
	out := a.DetectedPatterns[:0]
	for _, p := range a.DetectedPatterns {
		if p != pattern {
			out = append(out, p)
		}
	}
	a.DetectedPatterns = out
}

// AddRingID appends a ring id if not already present, preserving order.
func (a *AccountRecord) AddRingID(ringID string) {
	for _, id := range a.RingIDs {
		if id == ringID {
			return
		}
	}
	a.RingIDs = append(a.RingIDs, ringID)
}

// RemoveRingID drops a ring id if present.
func (a *AccountRecord) RemoveRingID(ringID string) {
	out := a.RingIDs[:0]
	for _, id := range a.RingIDs {
		if id != ringID {
			out = append(out, id)
		}
	}
	a.RingIDs = out
}

// AddAlgorithm appends a triggered-algorithm label if not already present.
func (a *AccountRecord) AddAlgorithm(label string) {
	for _, l := range a.TriggeredAlgos {
		if l == label {
			return
		}
	}
	a.TriggeredAlgos = append(a.TriggeredAlgos, label)
}

// Explain appends a human-readable clause to the explanation log and keeps
// the period-joined ExplanationText in sync (spec.md §3).
func (a *AccountRecord) Explain(clause string) {
	a.Explanation = append(a.Explanation, clause)
	a.ExplanationText = joinSentences(a.Explanation)
}

func joinSentences(clauses []string) string {
	out := ""
	for i, c := range clauses {
		if i > 0 {
			out += " "
		}
		out += c
		if len(c) > 0 && c[len(c)-1] != '.' {
			out += "."
		}
	}
	return out
}

// RecomputeScore re-derives SuspicionScore from the current PatternScores
// sum plus the tracked ScoreAdjustment, clamped to [0, 100], and refreshes
// IsSuspicious. Called by the Scorer after setting pattern scores, by
// ApplyDelta after each tracked delta, and by the temporal-cycle-validation
// pass (spec.md §4.8.2) after zeroing a pattern score.
func (a *AccountRecord) RecomputeScore() {
	a.SuspicionScore = clamp(a.PatternScores.Sum()+a.ScoreAdjustment, 0, 100)
	a.IsSuspicious = a.SuspicionScore > 0
}

// ApplyDelta adds delta to the tracked ScoreAdjustment and recomputes
// SuspicionScore from pattern_scores + ScoreAdjustment, clamped to
// [0, 100], refreshing IsSuspicious. Used by every enrichment pass that
// contributes a bounded additive delta (spec.md §3, §4.8).
func (a *AccountRecord) ApplyDelta(delta int) {
	a.ScoreAdjustment += delta
	a.RecomputeScore()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
