package fanout_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/fanout"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

func TestDetectTriggersOnTenReceivers(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var txs []domain.Transaction
	for i := 0; i < 12; i++ {
		receiver := fmt.Sprintf("R%d", i)
		txs = append(txs, domain.Transaction{
			ID: fmt.Sprintf("t%d", i), SenderID: "S", ReceiverID: receiver,
			Amount: decimal.NewFromInt(100), Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	g, idx := graph.NewBuilder().Build(txs)
	triggers := fanout.NewDetector().Detect(g, idx)

	if len(triggers) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(triggers))
	}
	if triggers[0].Sender != "S" {
		t.Errorf("sender = %s, want S", triggers[0].Sender)
	}
}

func TestDetectNoTriggerBelowThreshold(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var txs []domain.Transaction
	for i := 0; i < 5; i++ {
		receiver := fmt.Sprintf("R%d", i)
		txs = append(txs, domain.Transaction{
			ID: fmt.Sprintf("t%d", i), SenderID: "S", ReceiverID: receiver,
			Amount: decimal.NewFromInt(100), Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	g, idx := graph.NewBuilder().Build(txs)
	triggers := fanout.NewDetector().Detect(g, idx)
	if len(triggers) != 0 {
		t.Fatalf("expected no triggers, got %d", len(triggers))
	}
}
