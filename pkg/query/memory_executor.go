package query

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/matst80/slask-filter/pkg/taxonomy"
	"github.com/matst80/slask-filter/pkg/types"
)

// MemoryExecutor runs query specs against an in-process product set.
// It is the development mode executor and the reference matching
// semantics, a storefront would plug in its own store here.
type MemoryExecutor struct {
	mu       sync.RWMutex
	products map[uint]Product
	provider taxonomy.Provider
}

// NewMemoryExecutor creates an empty executor. provider is used to
// expand include-descendants clauses and may be nil.
func NewMemoryExecutor(provider taxonomy.Provider) *MemoryExecutor {
	return &MemoryExecutor{
		products: map[uint]Product{},
		provider: provider,
	}
}

func (e *MemoryExecutor) Upsert(products ...Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, product := range products {
		e.products[product.Id] = product
	}
}

func (e *MemoryExecutor) Delete(id uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.products, id)
}

func (e *MemoryExecutor) Count(ctx context.Context, spec *types.QuerySpec) (int, error) {
	return len(e.matchIDs(spec)), nil
}

func (e *MemoryExecutor) MatchIDs(ctx context.Context, spec *types.QuerySpec) ([]uint, error) {
	return e.matchIDs(spec), nil
}

func (e *MemoryExecutor) Search(ctx context.Context, spec *types.QuerySpec) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var matched []Product
	for _, product := range e.products {
		if e.matches(&product, spec) {
			matched = append(matched, product)
		}
	}
	sortProducts(matched, spec.Sort)
	total := len(matched)
	offset := (spec.Page - 1) * spec.PerPage
	if offset > total {
		offset = total
	}
	end := offset + spec.PerPage
	if end > total {
		end = total
	}
	return &Result{
		Total:    total,
		Page:     spec.Page,
		PerPage:  spec.PerPage,
		Products: matched[offset:end],
	}, nil
}

func (e *MemoryExecutor) matchIDs(spec *types.QuerySpec) []uint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []uint
	if spec.HasAllowList() {
		for _, id := range spec.AllowList {
			if product, ok := e.products[id]; ok && e.matches(&product, spec) {
				out = append(out, id)
			}
		}
	} else {
		for id, product := range e.products {
			if e.matches(&product, spec) {
				out = append(out, id)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (e *MemoryExecutor) matches(product *Product, spec *types.QuerySpec) bool {
	if spec.ExcludeHidden && product.Hidden {
		return false
	}
	if spec.ExcludeOutOfStock && !product.InStock {
		return false
	}
	for _, rng := range spec.Ranges {
		value, ok := product.Meta[rng.Field]
		if !ok {
			return false
		}
		if rng.Min != nil && value < *rng.Min {
			return false
		}
		if rng.Max != nil && value > *rng.Max {
			return false
		}
	}
	for _, clause := range spec.Taxonomies {
		if !e.matchesClause(product, &clause) {
			return false
		}
	}
	if spec.Search != "" &&
		!strings.Contains(strings.ToLower(product.Title), strings.ToLower(spec.Search)) {
		return false
	}
	return true
}

func (e *MemoryExecutor) matchesClause(product *Product, clause *types.TaxonomyClause) bool {
	assigned := product.Terms[clause.Taxonomy]
	if len(assigned) == 0 {
		return false
	}
	has := func(term uint) bool {
		if slices.Contains(assigned, term) {
			return true
		}
		if clause.IncludeChildren && e.provider != nil {
			if children, err := e.provider.Descendants(clause.Taxonomy, term); err == nil {
				for _, child := range children {
					if slices.Contains(assigned, child) {
						return true
					}
				}
			}
		}
		return false
	}
	if clause.Operator == types.ClauseAnd {
		for _, term := range clause.Terms {
			if !has(term) {
				return false
			}
		}
		return true
	}
	for _, term := range clause.Terms {
		if has(term) {
			return true
		}
	}
	return false
}

func sortProducts(products []Product, order types.SortOrder) {
	less := func(a, b *Product) bool {
		switch order.Key {
		case types.SortSales:
			return a.Sales < b.Sales
		case types.SortRating:
			return a.Rating < b.Rating
		case types.SortPrice:
			return a.Meta["price"] < b.Meta["price"]
		case types.SortDate:
			return a.Created.Before(b.Created)
		case types.SortTitle:
			return a.Title < b.Title
		}
		// Manual order, title breaks ties.
		if a.MenuOrder != b.MenuOrder {
			return a.MenuOrder < b.MenuOrder
		}
		return a.Title < b.Title
	}
	sort.SliceStable(products, func(i, j int) bool {
		if order.Desc {
			return less(&products[j], &products[i])
		}
		return less(&products[i], &products[j])
	})
}
