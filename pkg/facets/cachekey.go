package facets

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/matst80/slask-filter/pkg/types"
)

// schemaVersion invalidates every cached count map when the cached
// shape itself changes between releases.
const schemaVersion = 2

// requestStateHash folds the full selection state, search, sort and
// page context into one stable hash. Map iteration order must not leak
// into the key, so keys are sorted first.
func requestStateHash(cfg *types.Config, req *types.FilterRequest) uint64 {
	var b strings.Builder
	fmt.Fprintf(&b, "cfg=%d;q=%s;sort=%s;", cfg.Version, req.Search, req.Sort)

	keys := make([]string, 0, len(req.Selections))
	for key := range req.Selections {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		switch sel := req.Selections[key].(type) {
		case types.ListSelection:
			fmt.Fprintf(&b, "%s=%s;", key, strings.Join(sel.Values, "|"))
		case types.RangeSelection:
			fmt.Fprintf(&b, "%s=", key)
			if sel.Min != nil {
				fmt.Fprintf(&b, "%g", *sel.Min)
			}
			b.WriteByte('-')
			if sel.Max != nil {
				fmt.Fprintf(&b, "%g", *sel.Max)
			}
			b.WriteByte(';')
		}
	}

	taxes := make([]string, 0, len(req.Context.Taxonomies))
	for tax := range req.Context.Taxonomies {
		taxes = append(taxes, tax)
	}
	slices.Sort(taxes)
	for _, tax := range taxes {
		fmt.Fprintf(&b, "ctx:%s=%v;", tax, req.Context.Taxonomies[tax])
	}

	h := fnv.New64a()
	h.Write([]byte(b.String()))
	return h.Sum64()
}

// cacheKey builds the per-filter key. It incorporates the global
// version stamp, so bumping the stamp makes every prior entry
// unreachable without a sweep.
func cacheKey(version int64, cfg *types.Config, req *types.FilterRequest, def *types.FilterDefinition) string {
	return fmt.Sprintf("slask-filter:facets:%d:%d:%s:%t:%x",
		schemaVersion, version, def.Key, def.Visibility.IncludeChildren,
		requestStateHash(cfg, req))
}
