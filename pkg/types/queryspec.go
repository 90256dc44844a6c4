package types

type ClauseOperator string

const (
	ClauseIn  ClauseOperator = "IN"
	ClauseAnd ClauseOperator = "AND"
)

type TaxonomyClause struct {
	Taxonomy        string         `json:"taxonomy"`
	Operator        ClauseOperator `json:"operator"`
	Terms           []uint         `json:"terms"`
	IncludeChildren bool           `json:"includeChildren,omitempty"`
}

// RangeClause constrains a numeric meta field. A nil bound means
// unbounded on that side, both set means BETWEEN.
type RangeClause struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// NoMatchId is the allow-list sentinel used when a lookup intersection
// comes up empty. Product ids start at 1 so it can never match.
const NoMatchId uint = 0

type SortKey string

const (
	SortSales     SortKey = "sales"
	SortRating    SortKey = "rating"
	SortPrice     SortKey = "price"
	SortDate      SortKey = "date"
	SortTitle     SortKey = "title"
	SortMenuOrder SortKey = "menu_order"
)

type SortOrder struct {
	Key  SortKey `json:"key"`
	Desc bool    `json:"desc"`
}

// MapSort translates the external sort token to an order. Unknown
// tokens fall back to manual order, they are never an error.
func MapSort(token string) SortOrder {
	switch token {
	case "popularity":
		return SortOrder{Key: SortSales, Desc: true}
	case "rating":
		return SortOrder{Key: SortRating, Desc: true}
	case "price_asc":
		return SortOrder{Key: SortPrice}
	case "price_desc":
		return SortOrder{Key: SortPrice, Desc: true}
	case "date":
		return SortOrder{Key: SortDate, Desc: true}
	case "title":
		return SortOrder{Key: SortTitle}
	}
	// menu_order and default both mean manual order then title.
	return SortOrder{Key: SortMenuOrder}
}

// QuerySpec is the structured product query handed to the executor.
type QuerySpec struct {
	Taxonomies        []TaxonomyClause `json:"taxonomies,omitempty"`
	Ranges            []RangeClause    `json:"ranges,omitempty"`
	AllowList         []uint           `json:"allowList,omitempty"`
	Search            string           `json:"search,omitempty"`
	Sort              SortOrder        `json:"sort"`
	Page              int              `json:"page"`
	PerPage           int              `json:"perPage"`
	ExcludeHidden     bool             `json:"excludeHidden"`
	ExcludeOutOfStock bool             `json:"excludeOutOfStock"`

	hasAllowList bool
}

// SetAllowList installs an explicit candidate set. An empty list is a
// valid "match nothing" constraint, distinct from no list at all.
func (q *QuerySpec) SetAllowList(ids []uint) {
	if len(ids) == 0 {
		ids = []uint{NoMatchId}
	}
	q.AllowList = ids
	q.hasAllowList = true
}

func (q *QuerySpec) HasAllowList() bool {
	return q.hasAllowList || q.AllowList != nil
}

func (q *QuerySpec) TaxonomyFiltered(taxonomy string) bool {
	for _, clause := range q.Taxonomies {
		if clause.Taxonomy == taxonomy {
			return true
		}
	}
	return false
}
