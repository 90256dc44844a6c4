package taxonomy

import (
	"sync"

	"github.com/matst80/slask-filter/pkg/types"
)

// MemoryProvider keeps all terms in process. Used in development mode
// and as the test double for the real storefront provider.
type MemoryProvider struct {
	mu           sync.RWMutex
	terms        map[string][]types.Term
	hierarchical map[string]bool
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		terms:        map[string][]types.Term{},
		hierarchical: map[string]bool{},
	}
}

func (p *MemoryProvider) AddTaxonomy(taxonomy string, hierarchical bool, terms ...types.Term) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terms[taxonomy] = append(p.terms[taxonomy], terms...)
	p.hierarchical[taxonomy] = hierarchical
}

func (p *MemoryProvider) SetTermCount(taxonomy string, id uint, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	terms := p.terms[taxonomy]
	for i := range terms {
		if terms[i].Id == id {
			terms[i].Count = count
			return
		}
	}
}

func (p *MemoryProvider) GetTerms(taxonomy string) ([]types.Term, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	terms := p.terms[taxonomy]
	out := make([]types.Term, len(terms))
	copy(out, terms)
	return out, nil
}

func (p *MemoryProvider) ResolveSlugs(taxonomy string, slugs []string) ([]uint, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	terms, ok := p.terms[taxonomy]
	if !ok {
		return nil, nil
	}
	bySlug := make(map[string]uint, len(terms))
	for _, term := range terms {
		bySlug[term.Slug] = term.Id
	}
	out := make([]uint, 0, len(slugs))
	for _, slug := range slugs {
		if id, found := bySlug[slug]; found {
			out = append(out, id)
		}
	}
	return out, nil
}

func (p *MemoryProvider) Exists(taxonomy string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.terms[taxonomy]
	return ok
}

func (p *MemoryProvider) IsHierarchical(taxonomy string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hierarchical[taxonomy]
}

func (p *MemoryProvider) Descendants(taxonomy string, id uint) ([]uint, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	terms, ok := p.terms[taxonomy]
	if !ok {
		return nil, nil
	}
	children := map[uint][]uint{}
	for _, term := range terms {
		if term.Parent != 0 {
			children[term.Parent] = append(children[term.Parent], term.Id)
		}
	}
	var out []uint
	queue := []uint{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out, nil
}
