package enrichment_test

import (
	"testing"
	"time"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/enrichment"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

func TestMultiStageTagsAccountInTwoRingTypes(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 100, base),
		tx("t2", "B", "C", 100, base.Add(time.Hour)),
		tx("t3", "C", "A", 100, base.Add(2*time.Hour)),
		tx("t4", "s1", "A", 100, base.Add(3*time.Hour)),
	}
	g, idx := graph.NewBuilder().Build(txs)
	idx.GetOrCreate("s1")

	cycleRing := domain.NewRing("RING_001", domain.PatternTypeCycle, []string{"A", "B", "C"})
	fanInRing := domain.NewRing("RING_002", domain.PatternTypeFanIn, []string{"A", "s1"})

	for _, ring := range []*domain.Ring{cycleRing, fanInRing} {
		for _, m := range ring.Members {
			idx.Get(m).AddRingID(ring.RingID)
		}
	}

	ringsByID := map[string]*domain.Ring{"RING_001": cycleRing, "RING_002": fanInRing}
	enrichment.NewMultiStage().Run(g, idx, ringsByID)

	a := idx.Get("A")
	if a.LaunderingStage != domain.StageMultiStage {
		t.Fatalf("A should be MULTI_STAGE, got %q", a.LaunderingStage)
	}
	if len(a.FlowPattern) != 2 {
		t.Fatalf("A flow_pattern should have 2 entries, got %v", a.FlowPattern)
	}
	found := false
	for _, p := range a.DetectedPatterns {
		if p == domain.PatternMultiStage {
			found = true
		}
	}
	if !found {
		t.Errorf("A should have multi_stage in detected_patterns")
	}
}

func TestMultiStageSkipsSingleRingType(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 100, base),
		tx("t2", "B", "C", 100, base.Add(time.Hour)),
		tx("t3", "C", "A", 100, base.Add(2*time.Hour)),
	}
	g, idx := graph.NewBuilder().Build(txs)
	ring := domain.NewRing("RING_001", domain.PatternTypeCycle, []string{"A", "B", "C"})
	for _, m := range ring.Members {
		idx.Get(m).AddRingID(ring.RingID)
	}
	ringsByID := map[string]*domain.Ring{"RING_001": ring}
	enrichment.NewMultiStage().Run(g, idx, ringsByID)

	if idx.Get("A").LaunderingStage == domain.StageMultiStage {
		t.Errorf("A should not be tagged multi-stage with only one ring")
	}
}
