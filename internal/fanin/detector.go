// Package fanin implements fan-in (smurfing) detection: a receiver
// collecting from many distinct senders within a short window (spec.md
// §4.3).
package fanin

import (
	"sort"
	"time"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/graph"
)

const (
	window    = 72 * time.Hour
	threshold = 10
)

// Trigger is one detected fan-in: a receiver, the distinct senders observed
// in the triggering window (in first-seen order within the window), and the
// window bounds.
type Trigger struct {
	Receiver string
	Senders  []string
	Start    time.Time
	End      time.Time
}

// Detector groups transactions by receiver and slides a 72-hour window.
type Detector struct{}

// NewDetector returns a FanInDetector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect groups all transactions in g by receiver (iterated in account-index
// order so output order is deterministic), sorts each group by timestamp,
// then runs a two-pointer sliding window. A receiver triggers on the first
// window containing >= 10 distinct senders; scanning that receiver then
// stops (spec.md §9 preserves "first window" semantics).
func (d *Detector) Detect(g *graph.Graph, idx *graph.AccountIndex) []Trigger {
	incoming := collectIncoming(g, idx)

	var triggers []Trigger
	for _, receiver := range idx.Order() {
		txs := incoming[receiver]
		if len(txs) < threshold {
			continue
		}
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.Before(txs[j].Timestamp) })

		if trig, ok := slideWindow(receiver, txs); ok {
			triggers = append(triggers, trig)
		}
	}
	return triggers
}

// collectIncoming gathers, per receiver, every transaction where that
// account is the receiver, by scanning every sender's outgoing edges in
// graph order.
func collectIncoming(g *graph.Graph, idx *graph.AccountIndex) map[string][]domain.Transaction {
	incoming := make(map[string][]domain.Transaction)
	for _, sender := range idx.Order() {
		for _, receiver := range g.Neighbors(sender) {
			incoming[receiver] = append(incoming[receiver], g.Edges(sender, receiver)...)
		}
	}
	return incoming
}

// slideWindow runs the two-pointer 72h window over a timestamp-sorted
// transaction list and returns the first window whose distinct-sender count
// reaches the threshold.
func slideWindow(receiver string, txs []domain.Transaction) (Trigger, bool) {
	lo := 0
	senderCount := make(map[string]int)
	var senderOrder []string

	for hi := 0; hi < len(txs); hi++ {
		addSender(txs[hi].SenderID, senderCount, &senderOrder)

		for txs[hi].Timestamp.Sub(txs[lo].Timestamp) > window {
			removeSender(txs[lo].SenderID, senderCount, &senderOrder)
			lo++
		}

		if len(senderOrder) >= threshold {
			return Trigger{
				Receiver: receiver,
				Senders:  append([]string{}, senderOrder...),
				Start:    txs[lo].Timestamp,
				End:      txs[hi].Timestamp,
			}, true
		}
	}
	return Trigger{}, false
}

func addSender(id string, count map[string]int, order *[]string) {
	if count[id] == 0 {
		*order = append(*order, id)
	}
	count[id]++
}

func removeSender(id string, count map[string]int, order *[]string) {
	count[id]--
	if count[id] == 0 {
		delete(count, id)
		for i, o := range *order {
			if o == id {
				*order = append((*order)[:i], (*order)[i+1:]...)
				break
			}
		}
	}
}
