package query

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/matst80/slask-filter/pkg/lookup"
	"github.com/matst80/slask-filter/pkg/taxonomy"
	"github.com/matst80/slask-filter/pkg/types"
)

func testProvider() *taxonomy.MemoryProvider {
	provider := taxonomy.NewMemoryProvider()
	provider.AddTaxonomy("product_cat", true,
		types.Term{Id: 9, Slug: "shoes", Name: "Shoes", Count: 10},
		types.Term{Id: 12, Slug: "shirts", Name: "Shirts", Count: 8},
		types.Term{Id: 13, Slug: "sneakers", Name: "Sneakers", Parent: 9, Count: 4},
	)
	provider.AddTaxonomy("pa_color", false,
		types.Term{Id: 1, Slug: "red", Name: "Red", Count: 3},
		types.Term{Id: 2, Slug: "blue", Name: "Blue", Count: 5},
		types.Term{Id: 3, Slug: "green", Name: "Green", Count: 0},
	)
	provider.AddTaxonomy("pa_size", false,
		types.Term{Id: 21, Slug: "s", Name: "S", Count: 2},
		types.Term{Id: 22, Slug: "m", Name: "M", Count: 2},
	)
	return provider
}

func testConfig() *types.Config {
	cfg := &types.Config{
		Filters: []types.FilterDefinition{
			{Id: 1, Key: "cat", Type: types.FilterCheckbox, Source: types.SourceCategory},
			{Id: 2, Key: "color", Type: types.FilterCheckbox, Source: types.SourceAttribute, SourceKey: "color", MultiSelect: true, Operator: types.OperatorOr},
			{Id: 3, Key: "size", Type: types.FilterCheckbox, Source: types.SourceAttribute, SourceKey: "pa_size", MultiSelect: true, Operator: types.OperatorAnd},
			{Id: 4, Key: "price", Type: types.FilterRange, Source: types.SourceMeta, SourceKey: "price"},
			{Id: 5, Key: "ghost", Type: types.FilterCheckbox, Source: types.SourceTaxonomy, SourceKey: "nonexistent"},
		},
		Settings: types.Settings{PageSize: 24},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func newTestProcessor(lookupSource lookup.Source) (*Processor, *types.Config) {
	provider := testProvider()
	grouper := taxonomy.NewGrouper(provider, nil, time.Hour)
	return NewProcessor(provider, grouper, lookupSource), testConfig()
}

func taxonomyClause(spec *types.QuerySpec, tax string) *types.TaxonomyClause {
	for i := range spec.Taxonomies {
		if spec.Taxonomies[i].Taxonomy == tax {
			return &spec.Taxonomies[i]
		}
	}
	return nil
}

func TestUserSelectionOverridesPageContext(t *testing.T) {
	processor, cfg := newTestProcessor(nil)
	req := types.NewFilterRequest()
	req.Context = types.PageContext{Taxonomies: map[string][]uint{"product_cat": {9}}}
	req.Selections["cat"] = types.ListSelection{Values: []string{"shirts"}}

	spec := processor.BuildQuery(context.Background(), cfg, req)

	clauses := 0
	for _, clause := range spec.Taxonomies {
		if clause.Taxonomy == "product_cat" {
			clauses++
			if !reflect.DeepEqual(clause.Terms, []uint{12}) {
				t.Errorf("Expected only the selected term 12, got %v", clause.Terms)
			}
		}
	}
	if clauses != 1 {
		t.Errorf("Expected exactly one product_cat clause, got %d", clauses)
	}
}

func TestContextAppliesWhenTaxonomyNotFiltered(t *testing.T) {
	processor, cfg := newTestProcessor(nil)
	req := types.NewFilterRequest()
	req.Context = types.PageContext{Taxonomies: map[string][]uint{"product_cat": {9}}}
	req.Selections["color"] = types.ListSelection{Values: []string{"red"}}

	spec := processor.BuildQuery(context.Background(), cfg, req)

	cat := taxonomyClause(spec, "product_cat")
	if cat == nil {
		t.Fatal("Expected ambient category clause")
	}
	if !cat.IncludeChildren {
		t.Error("Expected context clause on hierarchical taxonomy to include children")
	}
}

func TestEndToEndColorAndPrice(t *testing.T) {
	processor, cfg := newTestProcessor(nil)
	min, max := 10.0, 50.0
	req := types.NewFilterRequest()
	req.Selections["color"] = types.ListSelection{Values: []string{"red", "blue"}}
	req.Selections["price"] = types.RangeSelection{Min: &min, Max: &max}

	spec := processor.BuildQuery(context.Background(), cfg, req)

	if len(spec.Taxonomies) != 1 {
		t.Fatalf("Expected exactly one taxonomy clause, got %v", spec.Taxonomies)
	}
	clause := spec.Taxonomies[0]
	if clause.Taxonomy != "pa_color" || clause.Operator != types.ClauseIn {
		t.Errorf("Expected pa_color IN clause, got %+v", clause)
	}
	if !reflect.DeepEqual(clause.Terms, []uint{1, 2}) {
		t.Errorf("Expected red+blue term ids, got %v", clause.Terms)
	}
	if len(spec.Ranges) != 1 {
		t.Fatalf("Expected one range clause, got %v", spec.Ranges)
	}
	rng := spec.Ranges[0]
	if rng.Field != "price" || rng.Min == nil || *rng.Min != 10 || rng.Max == nil || *rng.Max != 50 {
		t.Errorf("Expected price BETWEEN [10,50], got %+v", rng)
	}
	if !spec.ExcludeHidden {
		t.Error("Expected catalog-hidden exclusion")
	}
}

func TestAndOperatorEmitsAndClause(t *testing.T) {
	processor, cfg := newTestProcessor(nil)
	req := types.NewFilterRequest()
	req.Selections["size"] = types.ListSelection{Values: []string{"s", "m"}}

	spec := processor.BuildQuery(context.Background(), cfg, req)
	clause := taxonomyClause(spec, "pa_size")
	if clause == nil {
		t.Fatal("Expected pa_size clause")
	}
	if clause.Operator != types.ClauseAnd {
		t.Errorf("Expected AND operator, got %v", clause.Operator)
	}
}

func TestUnresolvableTaxonomyContributesNothing(t *testing.T) {
	processor, cfg := newTestProcessor(nil)
	req := types.NewFilterRequest()
	req.Selections["ghost"] = types.ListSelection{Values: []string{"anything"}}

	spec := processor.BuildQuery(context.Background(), cfg, req)
	if len(spec.Taxonomies) != 0 || len(spec.Ranges) != 0 {
		t.Errorf("Expected unconstrained spec, got %+v", spec)
	}
}

func TestUnknownSortTokenFallsBackToManualOrder(t *testing.T) {
	processor, cfg := newTestProcessor(nil)
	req := types.NewFilterRequest()
	req.Sort = "bogus"
	spec := processor.BuildQuery(context.Background(), cfg, req)
	if spec.Sort.Key != types.SortMenuOrder || spec.Sort.Desc {
		t.Errorf("Expected menu_order asc fallback, got %+v", spec.Sort)
	}
}

func TestLookupFastPathIntersectsFilters(t *testing.T) {
	source := lookup.NewMemory()
	// red products: 100, 101; size s products: 101, 102
	source.Add("pa_color", 1, 100)
	source.Add("pa_color", 1, 101)
	source.Add("pa_size", 21, 101)
	source.Add("pa_size", 21, 102)

	processor, cfg := newTestProcessor(source)
	req := types.NewFilterRequest()
	req.Selections["color"] = types.ListSelection{Values: []string{"red"}}
	req.Selections["size"] = types.ListSelection{Values: []string{"s"}}

	spec := processor.BuildQuery(context.Background(), cfg, req)
	if !spec.HasAllowList() {
		t.Fatal("Expected allow-list from lookup path")
	}
	if !reflect.DeepEqual(spec.AllowList, []uint{101}) {
		t.Errorf("Expected intersection [101], got %v", spec.AllowList)
	}
	if taxonomyClause(spec, "pa_color") != nil {
		t.Error("Expected no generic clause for lookup routed filter")
	}
}

func TestLookupEmptyIntersectionMatchesNothing(t *testing.T) {
	source := lookup.NewMemory()
	source.Add("pa_color", 1, 100)
	source.Add("pa_size", 21, 200)

	processor, cfg := newTestProcessor(source)
	req := types.NewFilterRequest()
	req.Selections["color"] = types.ListSelection{Values: []string{"red"}}
	req.Selections["size"] = types.ListSelection{Values: []string{"s"}}

	spec := processor.BuildQuery(context.Background(), cfg, req)
	if !reflect.DeepEqual(spec.AllowList, []uint{types.NoMatchId}) {
		t.Errorf("Expected match-nothing sentinel, got %v", spec.AllowList)
	}
}
