package domain

// Summary is the run-level rollup returned alongside accounts and rings
// (spec.md §3, §6).
type Summary struct {
	TotalAccountsAnalyzed    int     `json:"totalAccountsAnalyzed"`
	TotalTransactions        int     `json:"totalTransactions"`
	SuspiciousAccountsFlagged int    `json:"suspiciousAccountsFlagged"`
	FraudRingsDetected       int     `json:"fraudRingsDetected"`
	ProcessingTimeSeconds    float64 `json:"processingTimeSeconds"`
}

// AccountView is the sorted, API-facing projection of an AccountRecord. It
// adds the RingID convenience field (first entry of RingIDs, spec.md §6)
// without mutating the underlying record.
type AccountView struct {
	AccountID string `json:"accountId"`

	TotalTransactions int `json:"totalTransactions"`
	InDegree          int `json:"inDegree"`
	OutDegree         int `json:"outDegree"`

	TotalAmountSent     string `json:"totalAmountSent"`
	TotalAmountReceived string `json:"totalAmountReceived"`

	PatternScores PatternScores `json:"patternScores"`

	SuspicionScore   int      `json:"suspicionScore"`
	DetectedPatterns []string `json:"detectedPatterns"`
	RingIDs          []string `json:"ringIds"`
	RingID           string   `json:"ringId,omitempty"`
	TriggeredAlgos   []string `json:"triggeredAlgorithms"`
	Explanation      string   `json:"explanation"`
	IsSuspicious     bool     `json:"isSuspicious"`

	CentralityScore float64  `json:"centralityScore,omitempty"`
	RingRole        RingRole `json:"ringRole,omitempty"`

	LaunderingStage LaunderingStage `json:"launderingStage,omitempty"`
	FlowPattern     []string        `json:"flowPattern,omitempty"`

	FanInPromotion FanInPromotion `json:"fanInPromotion"`
}

// NewAccountView projects an AccountRecord into its API-facing shape.
func NewAccountView(a *AccountRecord) AccountView {
	v := AccountView{
		AccountID:           a.AccountID,
		TotalTransactions:   a.TotalTransactions,
		InDegree:            a.InDegree,
		OutDegree:           a.OutDegree,
		TotalAmountSent:     a.TotalAmountSent.String(),
		TotalAmountReceived: a.TotalAmountReceived.String(),
		PatternScores:       a.PatternScores,
		SuspicionScore:      a.SuspicionScore,
		DetectedPatterns:    a.DetectedPatterns,
		RingIDs:             a.RingIDs,
		TriggeredAlgos:      a.TriggeredAlgos,
		Explanation:         a.ExplanationText,
		IsSuspicious:        a.IsSuspicious,
		CentralityScore:     a.CentralityScore,
		RingRole:            a.RingRole,
		LaunderingStage:     a.LaunderingStage,
		FlowPattern:         a.FlowPattern,
		FanInPromotion:      a.FanInPromotion,
	}
	if len(a.RingIDs) > 0 {
		v.RingID = a.RingIDs[0]
	}
	return v
}

// Result is the full output of a pipeline run (spec.md §6).
type Result struct {
	RunID      string         `json:"runId,omitempty"`
	Accounts   []AccountView  `json:"accounts"`
	FraudRings []*Ring        `json:"fraudRings"`
	Summary    Summary        `json:"summary"`
}
