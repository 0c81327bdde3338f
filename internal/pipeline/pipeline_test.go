package pipeline_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/pipeline"
	"github.com/opensource-finance/ringdetect/internal/rules"
)

func tx(id, from, to string, amount int64, ts time.Time) domain.Transaction {
	return domain.Transaction{ID: id, SenderID: from, ReceiverID: to, Amount: decimal.NewFromInt(amount), Timestamp: ts}
}

func newPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	engine, err := rules.NewEngine(rules.DefaultThresholds())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return pipeline.New(engine)
}

func TestAnalyzeDetectsSimpleCycle(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 5000, base),
		tx("t2", "B", "C", 4800, base.Add(2*time.Hour)),
		tx("t3", "C", "A", 4600, base.Add(4*time.Hour)),
	}

	result := newPipeline(t).Analyze(txs, domain.ModeAll, 0.01)

	if result.Summary.TotalAccountsAnalyzed != 3 {
		t.Fatalf("expected 3 accounts, got %d", result.Summary.TotalAccountsAnalyzed)
	}
	if result.Summary.FraudRingsDetected < 1 {
		t.Fatalf("expected at least 1 ring, got %d", result.Summary.FraudRingsDetected)
	}

	foundCycleRing := false
	for _, r := range result.FraudRings {
		if r.PatternType == domain.PatternTypeCycle {
			foundCycleRing = true
		}
	}
	if !foundCycleRing {
		t.Errorf("expected a cycle ring in the result")
	}

	for _, acc := range result.Accounts {
		if !acc.IsSuspicious {
			t.Errorf("account %s should be suspicious", acc.AccountID)
		}
	}
}

func TestAnalyzeIsDeterministicAcrossRuns(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 5000, base),
		tx("t2", "B", "C", 4800, base.Add(2*time.Hour)),
		tx("t3", "C", "A", 4600, base.Add(4*time.Hour)),
		tx("t4", "D", "E", 100, base.Add(5*time.Hour)),
	}

	p := newPipeline(t)
	first := p.Analyze(txs, domain.ModeAll, 0.01)
	second := p.Analyze(txs, domain.ModeAll, 0.01)

	if len(first.Accounts) != len(second.Accounts) {
		t.Fatalf("account count mismatch across runs")
	}
	for i := range first.Accounts {
		if first.Accounts[i].AccountID != second.Accounts[i].AccountID {
			t.Errorf("account order mismatch at %d: %s vs %s", i, first.Accounts[i].AccountID, second.Accounts[i].AccountID)
		}
		if first.Accounts[i].SuspicionScore != second.Accounts[i].SuspicionScore {
			t.Errorf("score mismatch for %s across runs", first.Accounts[i].AccountID)
		}
	}
	if len(first.FraudRings) != len(second.FraudRings) {
		t.Fatalf("ring count mismatch across runs: %d vs %d", len(first.FraudRings), len(second.FraudRings))
	}
}

func TestAnalyzeRespectsDetectionMode(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("t1", "A", "B", 5000, base),
		tx("t2", "B", "C", 4800, base.Add(2*time.Hour)),
		tx("t3", "C", "A", 4600, base.Add(4*time.Hour)),
	}

	result := newPipeline(t).Analyze(txs, domain.ModeFanIn, 0.01)
	for _, r := range result.FraudRings {
		if r.PatternType == domain.PatternTypeCycle {
			t.Errorf("cycle ring should not appear when mode is fan-in only")
		}
	}
}
