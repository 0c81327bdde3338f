package domain

import "github.com/shopspring/decimal"

// PatternType identifies which detector produced a Ring (spec.md §4.7, §4.9).
type PatternType string

const (
	PatternTypeCycle     PatternType = "cycle"
	PatternTypeFanIn     PatternType = "fan_in"
	PatternTypeFanOut    PatternType = "fan_out"
	PatternTypeShell     PatternType = "shell_chain"
	PatternTypeCommunity PatternType = "community"
)

// Ring is a detected group of accounts participating in the same fraud
// pattern (spec.md §3, §4.7). RingBuilder emits pattern rings; CommunityDetector
// additionally emits community rings that reference the same accounts.
type Ring struct {
	RingID      string      `json:"ringId"`
	PatternType PatternType `json:"patternType"`
	Members     []string    `json:"members"`
	MemberCount int         `json:"memberCount"`

	RiskScore   int             `json:"riskScore"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Explanation string          `json:"explanation"`
}

// NewRing builds a Ring from an ordered member list, setting MemberCount.
func NewRing(id string, patternType PatternType, members []string) *Ring {
	m := make([]string, len(members))
	copy(m, members)
	return &Ring{
		RingID:      id,
		PatternType: patternType,
		Members:     m,
		MemberCount: len(m),
		TotalValue:  decimal.Zero,
	}
}

// HasMember reports whether accountID is among the ring's members.
func (r *Ring) HasMember(accountID string) bool {
	for _, m := range r.Members {
		if m == accountID {
			return true
		}
	}
	return false
}
