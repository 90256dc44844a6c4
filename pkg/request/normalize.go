package request

import (
	"log"
	"strconv"
	"strings"

	"github.com/matst80/slask-filter/pkg/taxonomy"
	"github.com/matst80/slask-filter/pkg/types"
)

// Normalize turns raw, untyped filter input into canonical selections.
// The list/range decision follows the filter's configured type. Keys
// without a configured filter are only kept when the payload is
// unambiguously range shaped, everything else is treated as a list.
func Normalize(cfg *types.Config, raw map[string]any) map[string]types.Selection {
	out := make(map[string]types.Selection, len(raw))
	for key, value := range raw {
		var sel types.Selection
		if def := cfg.FilterByKey(key); def != nil && def.IsRange() {
			sel = toRange(value)
		} else if def == nil && isRangeShaped(value) {
			sel = toRange(value)
		} else {
			sel = toList(value)
		}
		if sel != nil && !sel.Empty() {
			out[key] = sel
		}
	}
	return out
}

// splitValues splits on comma, trims and drops empties. Order is kept
// and duplicates pass through, set semantics are applied downstream.
func splitValues(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toList(value any) types.ListSelection {
	switch v := value.(type) {
	case string:
		return types.ListSelection{Values: splitValues(v)}
	case []string:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				out = append(out, entry)
			}
		}
		return types.ListSelection{Values: out}
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
		return types.ListSelection{Values: out}
	}
	return types.ListSelection{}
}

// toRange keeps the min/max keys of an associative payload. Malformed
// bounds degrade to an absent bound, never an error.
func toRange(value any) types.RangeSelection {
	switch v := value.(type) {
	case map[string]any:
		return types.RangeSelection{Min: parseNumber(v["min"]), Max: parseNumber(v["max"])}
	case map[string]string:
		return types.RangeSelection{Min: parseNumber(v["min"]), Max: parseNumber(v["max"])}
	case types.RangeSelection:
		return v
	}
	return types.RangeSelection{}
}

func isRangeShaped(value any) bool {
	switch v := value.(type) {
	case map[string]any:
		_, hasMin := v["min"]
		_, hasMax := v["max"]
		return hasMin || hasMax
	case map[string]string:
		_, hasMin := v["min"]
		_, hasMax := v["max"]
		return hasMin || hasMax
	}
	return false
}

func parseNumber(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

// FilterTaxonomyTerms resolves slugs to term ids. Unknown taxonomies
// and empty resolutions yield an empty set so the filter silently
// contributes nothing.
func FilterTaxonomyTerms(provider taxonomy.Provider, tax string, values []string) []uint {
	if tax == "" || !provider.Exists(tax) {
		return nil
	}
	ids, err := provider.ResolveSlugs(tax, values)
	if err != nil {
		log.Printf("slug resolution failed for %s: %v", tax, err)
		return nil
	}
	return ids
}
