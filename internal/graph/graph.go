// Package graph holds the directed multigraph and per-account index shared
// by every pipeline stage (spec.md §3, §4.1).
package graph

import "github.com/opensource-finance/ringdetect/internal/domain"

// adjacency is the ordered mapping from a neighbor id to the ordered list of
// transactions on that directed edge (spec.md §3 "Graph").
type adjacency struct {
	order []string
	edges map[string][]domain.Transaction
}

func newAdjacency() *adjacency {
	return &adjacency{edges: make(map[string][]domain.Transaction)}
}

func (a *adjacency) append(neighbor string, tx domain.Transaction) {
	if _, ok := a.edges[neighbor]; !ok {
		a.order = append(a.order, neighbor)
	}
	a.edges[neighbor] = append(a.edges[neighbor], tx)
}

// Graph is a directed multigraph keyed by sender id. Iteration order over
// both the outer node set and every inner neighbor list is insertion order,
// which is part of the determinism contract (spec.md §5, §9).
type Graph struct {
	order []string
	nodes map[string]*adjacency
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*adjacency)}
}

// AddTransaction appends tx to the edge sender->receiver, preserving input
// order on that edge. Self-edges (sender == receiver) are permitted.
func (g *Graph) AddTransaction(tx domain.Transaction) {
	adj, ok := g.nodes[tx.SenderID]
	if !ok {
		adj = newAdjacency()
		g.nodes[tx.SenderID] = adj
		g.order = append(g.order, tx.SenderID)
	}
	adj.append(tx.ReceiverID, tx)
}

// Senders returns the ids that have at least one outgoing edge, in the order
// they first appeared as a sender.
func (g *Graph) Senders() []string {
	return g.order
}

// Neighbors returns the out-neighbors of id, in first-edge-insertion order.
// Returns nil if id has no outgoing edges.
func (g *Graph) Neighbors(id string) []string {
	adj, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return adj.order
}

// OutDegree returns the number of distinct out-neighbors of id.
func (g *Graph) OutDegree(id string) int {
	adj, ok := g.nodes[id]
	if !ok {
		return 0
	}
	return len(adj.order)
}

// Edges returns the ordered transaction list for the directed edge
// from->to. Returns nil if the edge does not exist.
func (g *Graph) Edges(from, to string) []domain.Transaction {
	adj, ok := g.nodes[from]
	if !ok {
		return nil
	}
	return adj.edges[to]
}

// HasEdge reports whether any transaction exists from->to.
func (g *Graph) HasEdge(from, to string) bool {
	adj, ok := g.nodes[from]
	if !ok {
		return false
	}
	_, ok = adj.edges[to]
	return ok
}

// FirstEdgeTransaction returns the earliest-inserted transaction on the
// from->to edge and true, or the zero value and false if it does not exist.
func (g *Graph) FirstEdgeTransaction(from, to string) (domain.Transaction, bool) {
	txs := g.Edges(from, to)
	if len(txs) == 0 {
		return domain.Transaction{}, false
	}
	return txs[0], true
}
