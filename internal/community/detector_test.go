package community_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/ringdetect/internal/community"
	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

func tx(id, from, to string, amount int64, ts time.Time) domain.Transaction {
	return domain.Transaction{ID: id, SenderID: from, ReceiverID: to, Amount: decimal.NewFromInt(amount), Timestamp: ts}
}

func TestRunAcceptsComponentWithTwoCategories(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 100, base),
		tx("t2", "B", "C", 100, base.Add(time.Hour)),
		tx("t3", "C", "A", 100, base.Add(2*time.Hour)),
	}
	g, idx := graph.NewBuilder().Build(txs)
	for _, id := range idx.Order() {
		idx.Get(id).PatternScores.Cycle = 40
		idx.Get(id).RecomputeScore()
	}

	ev := community.Evidence{
		CycleMembers: map[string]bool{"A": true, "B": true, "C": true},
		FanInNodes:   map[string]bool{},
		FanOutNodes:  map[string]bool{},
		ShellNodes:   map[string]bool{},
	}

	rings := community.NewDetector().Run(g, idx, ev)
	if len(rings) != 1 {
		t.Fatalf("expected 1 community ring, got %d", len(rings))
	}
	if rings[0].RingID != "RING_COMM_001" {
		t.Errorf("expected RING_COMM_001, got %s", rings[0].RingID)
	}
	for _, id := range []string{"A", "B", "C"} {
		found := false
		for _, p := range idx.Get(id).RingIDs {
			if p == rings[0].RingID {
				found = true
			}
		}
		if !found {
			t.Errorf("%s should be tagged into the community ring", id)
		}
	}
}

func TestRunRejectsComponentWithSingleCategory(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 100, base),
	}
	g, idx := graph.NewBuilder().Build(txs)
	for _, id := range idx.Order() {
		idx.Get(id).PatternScores.Velocity = 15
		idx.Get(id).RecomputeScore()
	}

	ev := community.Evidence{
		CycleMembers: map[string]bool{},
		FanInNodes:   map[string]bool{},
		FanOutNodes:  map[string]bool{},
		ShellNodes:   map[string]bool{},
	}

	rings := community.NewDetector().Run(g, idx, ev)
	if len(rings) != 0 {
		t.Fatalf("expected no community rings (only bridge+density possible, density fails for 1 edge/2 nodes), got %d", len(rings))
	}
}

func TestRunSubsumesPatternRingIDs(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 100, base),
		tx("t2", "B", "C", 100, base.Add(time.Hour)),
		tx("t3", "C", "A", 100, base.Add(2*time.Hour)),
	}
	g, idx := graph.NewBuilder().Build(txs)
	for _, id := range idx.Order() {
		idx.Get(id).PatternScores.Cycle = 40
		idx.Get(id).RecomputeScore()
		idx.Get(id).AddRingID("RING_001")
	}

	ev := community.Evidence{
		CycleMembers: map[string]bool{"A": true, "B": true, "C": true},
		FanInNodes:   map[string]bool{},
		FanOutNodes:  map[string]bool{},
		ShellNodes:   map[string]bool{},
	}

	rings := community.NewDetector().Run(g, idx, ev)
	if len(rings) != 1 {
		t.Fatalf("expected 1 community ring, got %d", len(rings))
	}
	for _, id := range []string{"A", "B", "C"} {
		rec := idx.Get(id)
		for _, r := range rec.RingIDs {
			if r == "RING_001" {
				t.Errorf("%s should have RING_001 subsumed", id)
			}
		}
	}
}
