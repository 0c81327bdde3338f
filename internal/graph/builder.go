package graph

import "github.com/opensource-finance/ringdetect/internal/domain"

// Builder implements spec.md §4.1: it consumes the ordered transaction
// sequence and produces the shared Graph and AccountIndex that every later
// pipeline stage reads and mutates.
type Builder struct{}

// NewBuilder returns a GraphBuilder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build walks transactions in order, creating missing AccountRecords for
// sender and receiver, appending each transaction to graph[sender][receiver],
// and accumulating totals. After traversal it computes out_degree and
// in_degree (distinct predecessor count) in one further pass over the edges.
func (b *Builder) Build(transactions []domain.Transaction) (*Graph, *AccountIndex) {
	g := NewGraph()
	idx := NewAccountIndex()

	predecessors := make(map[string]map[string]struct{})

	for _, tx := range transactions {
		sender := idx.GetOrCreate(tx.SenderID)
		receiver := idx.GetOrCreate(tx.ReceiverID)

		g.AddTransaction(tx)

		sender.TotalAmountSent = sender.TotalAmountSent.Add(tx.Amount)
		receiver.TotalAmountReceived = receiver.TotalAmountReceived.Add(tx.Amount)

		// A self-transfer touches its single account once, not twice, per
		// spec.md §3's "count of transactions touching this account".
		sender.TotalTransactions++
		if tx.SenderID != tx.ReceiverID {
			receiver.TotalTransactions++
		}

		preds, ok := predecessors[tx.ReceiverID]
		if !ok {
			preds = make(map[string]struct{})
			predecessors[tx.ReceiverID] = preds
		}
		preds[tx.SenderID] = struct{}{}
	}

	for _, id := range idx.Order() {
		rec := idx.Get(id)
		rec.OutDegree = g.OutDegree(id)
		rec.InDegree = len(predecessors[id])
	}

	return g, idx
}
