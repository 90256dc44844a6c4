package facets

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matst80/slask-filter/pkg/cache"
	"github.com/matst80/slask-filter/pkg/hooks"
	"github.com/matst80/slask-filter/pkg/lookup"
	"github.com/matst80/slask-filter/pkg/query"
	"github.com/matst80/slask-filter/pkg/taxonomy"
	"github.com/matst80/slask-filter/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	facetCalculations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskfilter_facet_calculations_total",
		Help: "The total number of per-filter facet count computations",
	})
	facetCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskfilter_facet_cache_hits_total",
		Help: "The total number of facet count maps served from cache",
	})
	facetSlowQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskfilter_facet_slow_queries_total",
		Help: "The total number of simulated per-term count queries",
	})
)

// CountMap maps filter key to term id to "products matching all other
// active filters plus this one option".
type CountMap map[string]map[uint]int

// Calculator computes per-option product counts for every configured
// filter. Results are read-through cached per filter and request
// state.
type Calculator struct {
	processor *query.Processor
	executor  query.Executor
	provider  taxonomy.Provider
	grouper   *taxonomy.Grouper
	lookup    lookup.Source
	store     cache.Store
	version   *cache.Version

	// PostCalc runs registered transforms on the finished map before
	// it is returned.
	PostCalc *hooks.Pipeline[CountMap]

	probeOnce sync.Once
	lookupOK  bool
}

func NewCalculator(
	processor *query.Processor,
	executor query.Executor,
	provider taxonomy.Provider,
	grouper *taxonomy.Grouper,
	lookupSource lookup.Source,
	store cache.Store,
	version *cache.Version,
) *Calculator {
	return &Calculator{
		processor: processor,
		executor:  executor,
		provider:  provider,
		grouper:   grouper,
		lookup:    lookupSource,
		store:     store,
		version:   version,
		PostCalc:  hooks.NewPipeline[CountMap](),
	}
}

// lookupAvailable memoizes the index probe, a missing table routes to
// the slow path for the rest of the process.
func (c *Calculator) lookupAvailable(ctx context.Context) bool {
	c.probeOnce.Do(func() {
		c.lookupOK = c.lookup != nil && c.lookup.Available(ctx)
	})
	return c.lookupOK
}

// Calculate returns count maps for every filter with a resolvable
// taxonomy. Filters that resolve to nothing contribute no entry, the
// rest of the calculation proceeds.
func (c *Calculator) Calculate(ctx context.Context, cfg *types.Config, req *types.FilterRequest) CountMap {
	out := CountMap{}
	stamp := c.version.Current()
	useCache := cfg.Settings.CacheEnabled && cfg.Settings.CacheTTL > 0 && c.store != nil
	ttl := time.Duration(cfg.Settings.CacheTTL) * time.Second

	for i := range cfg.Filters {
		def := &cfg.Filters[i]
		if def.IsRange() {
			continue
		}
		tax := def.Taxonomy()
		if tax == "" || !c.provider.Exists(tax) {
			continue
		}
		key := cacheKey(stamp, cfg, req, def)
		if useCache {
			cached := map[uint]int{}
			if err := c.store.Get(key, &cached); err == nil {
				facetCacheHits.Inc()
				if len(cached) > 0 {
					out[def.Key] = cached
				}
				continue
			}
		}
		counts := c.countFilter(ctx, cfg, req, def, tax)
		facetCalculations.Inc()
		if useCache {
			if err := c.store.Set(key, counts, ttl); err != nil {
				log.Printf("failed to cache counts for %s: %v", def.Key, err)
			}
		}
		if len(counts) > 0 {
			out[def.Key] = counts
		}
	}
	return c.PostCalc.Apply(out)
}

// countFilter computes one filter's map against a request stripped of
// that filter's own selection, so each option's count reads as "if I
// additionally picked this, given everything else selected".
func (c *Calculator) countFilter(ctx context.Context, cfg *types.Config, req *types.FilterRequest, def *types.FilterDefinition, tax string) map[uint]int {
	base := req.Without(def.Key)

	if c.lookupAvailable(ctx) && def.Source == types.SourceAttribute {
		if counts, ok := c.countFast(ctx, cfg, base, tax); ok {
			return counts
		}
	}
	return c.countSlow(ctx, cfg, base, def, tax)
}

// countFast runs a single query for the candidate set and one
// aggregation over the lookup index, O(1) queries regardless of how
// many options the filter has.
func (c *Calculator) countFast(ctx context.Context, cfg *types.Config, base *types.FilterRequest, tax string) (map[uint]int, bool) {
	spec := c.processor.BuildQuery(ctx, cfg, base)
	candidates, err := c.executor.MatchIDs(ctx, spec)
	if err != nil {
		log.Printf("candidate query failed for %s: %v", tax, err)
		return nil, false
	}
	if candidates == nil {
		candidates = []uint{}
	}
	raw, err := c.lookup.CountByTerm(ctx, tax, candidates)
	if err != nil {
		log.Printf("lookup aggregation failed for %s: %v", tax, err)
		return nil, false
	}
	// Lookup counts are raw per-term counts, duplicate-name groups
	// are folded into their primary here.
	merged := c.grouper.MergeCounts(tax, raw)
	for id, count := range merged {
		if count <= 0 {
			delete(merged, id)
		}
	}
	return merged, true
}

// countSlow simulates one count-only query per term, including
// currently empty terms. Secondaries are skipped up front: the query
// builder expands a primary to its whole group, so a primary's count
// already covers the group and merging afterwards would double it.
func (c *Calculator) countSlow(ctx context.Context, cfg *types.Config, base *types.FilterRequest, def *types.FilterDefinition, tax string) map[uint]int {
	terms, err := c.provider.GetTerms(tax)
	if err != nil {
		log.Printf("term fetch failed for %s: %v", tax, err)
		return nil
	}
	terms = c.grouper.DedupeTerms(tax, terms)
	counts := map[uint]int{}
	for _, term := range terms {
		hypothetical := base.WithValue(def.Key, term.Slug)
		spec := c.processor.BuildQuery(ctx, cfg, hypothetical)
		count, err := c.executor.Count(ctx, spec)
		facetSlowQueries.Inc()
		if err != nil {
			// A failed or timed out probe counts as an empty
			// result, it must not take down the whole page.
			log.Printf("count query failed for %s/%s: %v", tax, term.Slug, err)
			continue
		}
		if count > 0 {
			counts[term.Id] = count
		}
	}
	return counts
}
