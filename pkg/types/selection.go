package types

// Selection is what a shopper picked for one filter key. The variant is
// decided by the filter's configured type, never by inspecting the raw
// request shape.
type Selection interface {
	Empty() bool
}

type ListSelection struct {
	Values []string `json:"values"`
}

func (s ListSelection) Empty() bool {
	return len(s.Values) == 0
}

type RangeSelection struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (s RangeSelection) Empty() bool {
	return s.Min == nil && s.Max == nil
}

type RenderContext string

const (
	RenderShortcode RenderContext = "shortcode"
	RenderAuto      RenderContext = "auto"
)

// PageContext carries the ambient taxonomy terms of the page being
// browsed, e.g. the current category. Keyed by taxonomy name.
type PageContext struct {
	Taxonomies map[string][]uint `json:"taxonomies,omitempty"`
}

func (c PageContext) clone() PageContext {
	if c.Taxonomies == nil {
		return PageContext{}
	}
	out := make(map[string][]uint, len(c.Taxonomies))
	for tax, ids := range c.Taxonomies {
		cp := make([]uint, len(ids))
		copy(cp, ids)
		out[tax] = cp
	}
	return PageContext{Taxonomies: out}
}

// FilterRequest is the normalized request, built fresh per incoming
// request and never persisted.
type FilterRequest struct {
	Selections map[string]Selection `json:"selections"`
	Search     string               `json:"search"`
	Sort       string               `json:"sort"`
	Page       int                  `json:"page"`
	Context    PageContext          `json:"context"`
	Render     RenderContext        `json:"render"`
}

func NewFilterRequest() *FilterRequest {
	return &FilterRequest{
		Selections: map[string]Selection{},
		Render:     RenderAuto,
	}
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (r *FilterRequest) Sanitize() {
	r.Page = clamp(r.Page, 1, 10000)
	if r.Render == "" {
		r.Render = RenderAuto
	}
}

// Clone returns a deep copy so hypothetical facet requests never mutate
// a base request shared between filters.
func (r *FilterRequest) Clone() *FilterRequest {
	out := &FilterRequest{
		Selections: make(map[string]Selection, len(r.Selections)),
		Search:     r.Search,
		Sort:       r.Sort,
		Page:       r.Page,
		Context:    r.Context.clone(),
		Render:     r.Render,
	}
	for key, sel := range r.Selections {
		switch s := sel.(type) {
		case ListSelection:
			values := make([]string, len(s.Values))
			copy(values, s.Values)
			out.Selections[key] = ListSelection{Values: values}
		case RangeSelection:
			out.Selections[key] = s
		}
	}
	return out
}

// Without drops one filter key from a copy of the request. Used by the
// facet counter so a filter never restricts its own counts.
func (r *FilterRequest) Without(key string) *FilterRequest {
	out := r.Clone()
	delete(out.Selections, key)
	return out
}

// WithValue adds a single term value for a key on a copy of the
// request, replacing any current selection for that key.
func (r *FilterRequest) WithValue(key, value string) *FilterRequest {
	out := r.Clone()
	out.Selections[key] = ListSelection{Values: []string{value}}
	return out
}

func (r *FilterRequest) Selected(key string) (Selection, bool) {
	sel, ok := r.Selections[key]
	if !ok || sel == nil || sel.Empty() {
		return nil, false
	}
	return sel, true
}
