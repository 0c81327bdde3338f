package graph_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

func mustTx(id, sender, receiver string, amount int64, ts time.Time) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     decimal.NewFromInt(amount),
		Timestamp:  ts,
	}
}

func TestBuilderBasicTotals(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		mustTx("t1", "A", "B", 100, base),
		mustTx("t2", "A", "B", 50, base.Add(time.Hour)),
		mustTx("t3", "B", "C", 80, base.Add(2*time.Hour)),
	}

	g, idx := graph.NewBuilder().Build(txs)

	if idx.Len() != 3 {
		t.Fatalf("expected 3 accounts, got %d", idx.Len())
	}

	a := idx.Get("A")
	if a.TotalTransactions != 2 {
		t.Errorf("A.TotalTransactions = %d, want 2", a.TotalTransactions)
	}
	if !a.TotalAmountSent.Equal(decimal.NewFromInt(150)) {
		t.Errorf("A.TotalAmountSent = %s, want 150", a.TotalAmountSent)
	}
	if a.OutDegree != 1 {
		t.Errorf("A.OutDegree = %d, want 1", a.OutDegree)
	}

	b := idx.Get("B")
	if b.TotalTransactions != 3 {
		t.Errorf("B.TotalTransactions = %d, want 3", b.TotalTransactions)
	}
	if b.InDegree != 1 || b.OutDegree != 1 {
		t.Errorf("B in/out degree = %d/%d, want 1/1", b.InDegree, b.OutDegree)
	}

	edges := g.Edges("A", "B")
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges A->B, got %d", len(edges))
	}
	if edges[0].ID != "t1" || edges[1].ID != "t2" {
		t.Errorf("edges not in insertion order: %+v", edges)
	}
}

func TestBuilderSelfTransfer(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		mustTx("t1", "A", "A", 10, base),
	}

	_, idx := graph.NewBuilder().Build(txs)
	a := idx.Get("A")
	if a.TotalTransactions != 1 {
		t.Errorf("self-transfer TotalTransactions = %d, want 1", a.TotalTransactions)
	}
	if a.InDegree != 1 || a.OutDegree != 1 {
		t.Errorf("self-transfer degrees = %d/%d, want 1/1", a.InDegree, a.OutDegree)
	}
}

func TestAccountIndexInsertionOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		mustTx("t1", "C", "B", 10, base),
		mustTx("t2", "A", "C", 10, base),
	}
	_, idx := graph.NewBuilder().Build(txs)
	want := []string{"C", "B", "A"}
	got := idx.Order()
	if len(got) != len(want) {
		t.Fatalf("order length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
