package query

import (
	"context"
	"log"

	"github.com/matst80/slask-filter/pkg/hooks"
	"github.com/matst80/slask-filter/pkg/lookup"
	"github.com/matst80/slask-filter/pkg/request"
	"github.com/matst80/slask-filter/pkg/taxonomy"
	"github.com/matst80/slask-filter/pkg/types"
)

// Processor builds a QuerySpec from the filter configuration and a
// normalized request. Every failure path degrades to "no constraint",
// the resulting spec is always valid.
type Processor struct {
	provider taxonomy.Provider
	grouper  *taxonomy.Grouper
	lookup   lookup.Source

	// PostBuild runs registered transforms on the finished spec
	// before it is handed to the executor.
	PostBuild *hooks.Pipeline[*types.QuerySpec]
}

// NewProcessor wires the builder. lookupSource may be nil when no fast
// attribute index exists.
func NewProcessor(provider taxonomy.Provider, grouper *taxonomy.Grouper, lookupSource lookup.Source) *Processor {
	return &Processor{
		provider:  provider,
		grouper:   grouper,
		lookup:    lookupSource,
		PostBuild: hooks.NewPipeline[*types.QuerySpec](),
	}
}

type lookupFilter struct {
	taxonomy string
	terms    []uint
	operator types.Operator
}

// BuildQuery translates the selections plus ambient page context into
// the structured product query. A user selection in a taxonomy
// overrides the page's own context for that taxonomy, it never
// intersects with it.
func (p *Processor) BuildQuery(ctx context.Context, cfg *types.Config, req *types.FilterRequest) *types.QuerySpec {
	spec := &types.QuerySpec{
		ExcludeHidden:     true,
		ExcludeOutOfStock: cfg.Settings.HideOutOfStock,
	}

	useLookup := p.lookup != nil && p.lookup.Available(ctx)
	userFiltered := map[string]bool{}
	var lookupFilters []lookupFilter

	for i := range cfg.Filters {
		def := &cfg.Filters[i]
		sel, ok := req.Selected(def.Key)
		if !ok {
			continue
		}
		if def.IsRange() {
			if rng, ok := sel.(types.RangeSelection); ok && !rng.Empty() {
				spec.Ranges = append(spec.Ranges, types.RangeClause{
					Field: def.SourceKey,
					Min:   rng.Min,
					Max:   rng.Max,
				})
			}
			continue
		}
		list, ok := sel.(types.ListSelection)
		if !ok {
			continue
		}
		tax := def.Taxonomy()
		if tax == "" || !p.provider.Exists(tax) {
			continue
		}
		ids := request.FilterTaxonomyTerms(p.provider, tax, list.Values)
		// Selecting one option selects its whole duplicate-name group.
		ids = p.grouper.ExpandTermIDs(tax, ids)
		if len(ids) == 0 {
			continue
		}
		userFiltered[tax] = true

		if useLookup && def.Source == types.SourceAttribute {
			lookupFilters = append(lookupFilters, lookupFilter{
				taxonomy: tax,
				terms:    ids,
				operator: def.Operator,
			})
			continue
		}
		operator := types.ClauseIn
		if def.Operator == types.OperatorAnd {
			operator = types.ClauseAnd
		}
		spec.Taxonomies = append(spec.Taxonomies, types.TaxonomyClause{
			Taxonomy:        tax,
			Operator:        operator,
			Terms:           ids,
			IncludeChildren: def.Visibility.IncludeChildren && p.provider.IsHierarchical(tax),
		})
	}

	p.applyLookupFilters(ctx, spec, lookupFilters)

	// Ambient context only for taxonomies the user did not filter.
	for tax, ids := range req.Context.Taxonomies {
		if userFiltered[tax] || len(ids) == 0 || !p.provider.Exists(tax) {
			continue
		}
		spec.Taxonomies = append(spec.Taxonomies, types.TaxonomyClause{
			Taxonomy:        tax,
			Operator:        types.ClauseIn,
			Terms:           ids,
			IncludeChildren: p.provider.IsHierarchical(tax),
		})
	}

	spec.PerPage = cfg.Settings.PageSize
	if spec.PerPage < 1 {
		spec.PerPage = 1
	}
	spec.Page = req.Page
	if spec.Page < 1 {
		spec.Page = 1
	}
	token := req.Sort
	if token == "" {
		token = cfg.Settings.DefaultSort
	}
	spec.Sort = types.MapSort(token)
	spec.Search = req.Search

	return p.PostBuild.Apply(spec)
}

// applyLookupFilters computes per-filter product sets from the lookup
// index and intersects them into an explicit allow-list. An empty
// intersection becomes a match-nothing sentinel, never an
// unconstrained clause.
func (p *Processor) applyLookupFilters(ctx context.Context, spec *types.QuerySpec, filters []lookupFilter) {
	if len(filters) == 0 {
		return
	}
	var allow []uint
	first := true
	for _, f := range filters {
		ids, err := p.lookup.ProductIDs(ctx, f.taxonomy, f.terms, f.operator)
		if err != nil {
			// Degrade to a generic term clause for this filter.
			log.Printf("lookup query failed for %s: %v", f.taxonomy, err)
			operator := types.ClauseIn
			if f.operator == types.OperatorAnd {
				operator = types.ClauseAnd
			}
			spec.Taxonomies = append(spec.Taxonomies, types.TaxonomyClause{
				Taxonomy: f.taxonomy,
				Operator: operator,
				Terms:    f.terms,
			})
			continue
		}
		if first {
			allow = ids
			first = false
		} else {
			allow = intersect(allow, ids)
		}
	}
	if !first {
		spec.SetAllowList(allow)
	}
}

func intersect(a, b []uint) []uint {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[uint]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]uint, 0, len(a))
	for _, id := range a {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
