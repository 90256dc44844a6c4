package query

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/matst80/slask-filter/pkg/types"
)

func seededExecutor() *MemoryExecutor {
	executor := NewMemoryExecutor(testProvider())
	executor.Upsert(
		Product{Id: 100, Title: "Red sneaker", InStock: true, MenuOrder: 2,
			Terms: map[string][]uint{"pa_color": {1}, "product_cat": {13}},
			Meta:  map[string]float64{"price": 20}, Sales: 50, Created: time.Now()},
		Product{Id: 101, Title: "Blue shirt", InStock: true, MenuOrder: 1,
			Terms: map[string][]uint{"pa_color": {2}, "product_cat": {12}},
			Meta:  map[string]float64{"price": 60}, Sales: 10, Created: time.Now()},
		Product{Id: 102, Title: "Red and blue cap", InStock: true, MenuOrder: 3,
			Terms: map[string][]uint{"pa_color": {1, 2}},
			Meta:  map[string]float64{"price": 40}, Sales: 30, Created: time.Now()},
		Product{Id: 103, Title: "Hidden thing", Hidden: true, InStock: true,
			Terms: map[string][]uint{"pa_color": {1}},
			Meta:  map[string]float64{"price": 10}},
	)
	return executor
}

func TestMemoryExecutorExcludesHidden(t *testing.T) {
	executor := seededExecutor()
	spec := &types.QuerySpec{ExcludeHidden: true, Page: 1, PerPage: 10}
	count, err := executor.Count(context.Background(), spec)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 visible products, got %d", count)
	}
}

func TestMemoryExecutorAndClause(t *testing.T) {
	executor := seededExecutor()
	spec := &types.QuerySpec{
		Taxonomies: []types.TaxonomyClause{
			{Taxonomy: "pa_color", Operator: types.ClauseAnd, Terms: []uint{1, 2}},
		},
		Page: 1, PerPage: 10,
	}
	ids, err := executor.MatchIDs(context.Background(), spec)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !reflect.DeepEqual(ids, []uint{102}) {
		t.Errorf("Expected only the red+blue product, got %v", ids)
	}
}

func TestMemoryExecutorDescendantMatch(t *testing.T) {
	executor := seededExecutor()
	// Term 13 (sneakers) is a child of 9 (shoes).
	spec := &types.QuerySpec{
		Taxonomies: []types.TaxonomyClause{
			{Taxonomy: "product_cat", Operator: types.ClauseIn, Terms: []uint{9}, IncludeChildren: true},
		},
		Page: 1, PerPage: 10,
	}
	ids, _ := executor.MatchIDs(context.Background(), spec)
	if !reflect.DeepEqual(ids, []uint{100}) {
		t.Errorf("Expected sneaker via descendant expansion, got %v", ids)
	}
}

func TestMemoryExecutorAllowListSentinel(t *testing.T) {
	executor := seededExecutor()
	spec := &types.QuerySpec{Page: 1, PerPage: 10}
	spec.SetAllowList(nil)
	count, _ := executor.Count(context.Background(), spec)
	if count != 0 {
		t.Errorf("Expected sentinel allow-list to match nothing, got %d", count)
	}
}

func TestMemoryExecutorSortsAndPaginates(t *testing.T) {
	executor := seededExecutor()
	spec := &types.QuerySpec{
		ExcludeHidden: true,
		Sort:          types.MapSort("price_desc"),
		Page:          1,
		PerPage:       2,
	}
	result, err := executor.Search(context.Background(), spec)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Total != 3 {
		t.Errorf("Expected total 3, got %d", result.Total)
	}
	if len(result.Products) != 2 || result.Products[0].Id != 101 || result.Products[1].Id != 102 {
		t.Errorf("Expected [101 102] on first page, got %v", result.Products)
	}
}

func TestMemoryExecutorSearchTerm(t *testing.T) {
	executor := seededExecutor()
	spec := &types.QuerySpec{ExcludeHidden: true, Search: "RED", Page: 1, PerPage: 10}
	count, _ := executor.Count(context.Background(), spec)
	if count != 2 {
		t.Errorf("Expected case-insensitive title match on 2 products, got %d", count)
	}
}
