package graph

import "github.com/opensource-finance/ringdetect/internal/domain"

// AccountIndex is the single-owner collection of AccountRecords, indexed by
// account id, iterated in insertion (first-observation) order (spec.md §9).
type AccountIndex struct {
	order []string
	byID  map[string]*domain.AccountRecord
}

// NewAccountIndex returns an empty index.
func NewAccountIndex() *AccountIndex {
	return &AccountIndex{byID: make(map[string]*domain.AccountRecord)}
}

// GetOrCreate returns the record for id, creating it on first observation.
func (idx *AccountIndex) GetOrCreate(id string) *domain.AccountRecord {
	rec, ok := idx.byID[id]
	if !ok {
		rec = domain.NewAccountRecord(id)
		idx.byID[id] = rec
		idx.order = append(idx.order, id)
	}
	return rec
}

// Get returns the record for id, or nil if it was never observed.
func (idx *AccountIndex) Get(id string) *domain.AccountRecord {
	return idx.byID[id]
}

// Has reports whether id has been observed.
func (idx *AccountIndex) Has(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// Order returns account ids in first-observation order.
func (idx *AccountIndex) Order() []string {
	return idx.order
}

// Len returns the number of distinct accounts observed.
func (idx *AccountIndex) Len() int {
	return len(idx.order)
}

// Range calls fn for every account record in first-observation order.
// Stops early if fn returns false.
func (idx *AccountIndex) Range(fn func(*domain.AccountRecord) bool) {
	for _, id := range idx.order {
		if !fn(idx.byID[id]) {
			return
		}
	}
}
