// Package fanout implements fan-out (dispersal) detection: a sender
// scattering funds to many distinct receivers within a short window
// (spec.md §4.4). Symmetric to internal/fanin.
package fanout

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

// Trigger is one detected fan-out: a sender, the distinct receivers observed
// in the triggering window, and the window bounds.
type Trigger struct {
	Sender    string
	Receivers []string
	Start     time.Time
	End       time.Time
}

// Detector groups transactions by sender and slides a 72-hour window.
type Detector struct{}

// NewDetector returns a FanOutDetector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect mirrors fanin.Detector.Detect: group by sender, threshold on
// distinct receivers, stop scanning a sender at the first triggering window.
func (d *Detector) Detect(g *graph.Graph, idx *graph.AccountIndex) []Trigger {
	var triggers []Trigger
	for _, sender := range idx.Order() {
		var txs []domain.Transaction
		for _, receiver := range g.Neighbors(sender) {
			txs = append(txs, g.Edges(sender, receiver)...)
		}
		if len(txs) < threshold {
			continue
		}
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.Before(txs[j].Timestamp) })

		if trig, ok := slideWindow(sender, txs); ok {
			triggers = append(triggers, trig)
		}
	}
	return triggers
}

func slideWindow(sender string, txs []domain.Transaction) (Trigger, bool) {
	lo := 0
	receiverCount := make(map[string]int)
	var receiverOrder []string

	for hi := 0; hi < len(txs); hi++ {
		addReceiver(txs[hi].ReceiverID, receiverCount, &receiverOrder)

		for txs[hi].Timestamp.Sub(txs[lo].Timestamp) > window {
			removeReceiver(txs[lo].ReceiverID, receiverCount, &receiverOrder)
			lo++
		}

		if len(receiverOrder) >= threshold {
			return Trigger{
				Sender:    sender,
				Receivers: append([]string{}, receiverOrder...),
				Start:     txs[lo].Timestamp,
				End:       txs[hi].Timestamp,
			}, true
		}
	}
	return Trigger{}, false
}

func addReceiver(id string, count map[string]int, order *[]string) {
	if count[id] == 0 {
		*order = append(*order, id)
	}
	count[id]++
}

func removeReceiver(id string, count map[string]int, order *[]string) {
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
