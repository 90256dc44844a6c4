package lookup

import (
	"context"
	"slices"
	"sync"

	"github.com/matst80/slask-filter/pkg/types"
)

// Memory is an in-process lookup index for development and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]map[uint]map[uint]struct{}
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]map[uint]map[uint]struct{}{}}
}

func (m *Memory) Add(taxonomy string, termID, productID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	terms, ok := m.entries[taxonomy]
	if !ok {
		terms = map[uint]map[uint]struct{}{}
		m.entries[taxonomy] = terms
	}
	products, ok := terms[termID]
	if !ok {
		products = map[uint]struct{}{}
		terms[termID] = products
	}
	products[productID] = struct{}{}
}

func (m *Memory) Remove(taxonomy string, termID, productID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if terms, ok := m.entries[taxonomy]; ok {
		if products, ok := terms[termID]; ok {
			delete(products, productID)
		}
	}
}

func (m *Memory) Available(ctx context.Context) bool {
	return true
}

func (m *Memory) CountByTerm(ctx context.Context, taxonomy string, candidates []uint) (map[uint]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[uint]int{}
	terms, ok := m.entries[taxonomy]
	if !ok {
		return out, nil
	}
	var allowed map[uint]struct{}
	if candidates != nil {
		allowed = make(map[uint]struct{}, len(candidates))
		for _, id := range candidates {
			allowed[id] = struct{}{}
		}
	}
	for termID, products := range terms {
		count := 0
		for productID := range products {
			if allowed != nil {
				if _, ok := allowed[productID]; !ok {
					continue
				}
			}
			count++
		}
		if count > 0 {
			out[termID] = count
		}
	}
	return out, nil
}

func (m *Memory) ProductIDs(ctx context.Context, taxonomy string, termIDs []uint, op types.Operator) ([]uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	terms, ok := m.entries[taxonomy]
	if !ok || len(termIDs) == 0 {
		return nil, nil
	}
	hits := map[uint]int{}
	for _, termID := range termIDs {
		for productID := range terms[termID] {
			hits[productID]++
		}
	}
	required := 1
	if op == types.OperatorAnd {
		required = len(termIDs)
	}
	out := make([]uint, 0, len(hits))
	for productID, count := range hits {
		if count >= required {
			out = append(out, productID)
		}
	}
	slices.Sort(out)
	return out, nil
}
