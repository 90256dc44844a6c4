package query

import (
	"context"
	"time"

	"github.com/matst80/slask-filter/pkg/types"
)

// Product is the listing entity as the executor sees it. Terms maps
// taxonomy name to assigned term ids, Meta holds numeric fields such
// as price.
type Product struct {
	Id        uint               `json:"id"`
	Title     string             `json:"title"`
	Terms     map[string][]uint  `json:"terms,omitempty"`
	Meta      map[string]float64 `json:"meta,omitempty"`
	Sales     int                `json:"sales,omitempty"`
	Rating    float64            `json:"rating,omitempty"`
	MenuOrder int                `json:"menuOrder,omitempty"`
	Created   time.Time          `json:"created,omitempty"`
	Hidden    bool               `json:"hidden,omitempty"`
	InStock   bool               `json:"inStock"`
}

type Result struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
	Products []Product `json:"products"`
}

// Executor runs a QuerySpec against the product store. Count and
// MatchIDs are the cheap modes used by facet counting, no hydration of
// full records.
type Executor interface {
	Count(ctx context.Context, spec *types.QuerySpec) (int, error)
	MatchIDs(ctx context.Context, spec *types.QuerySpec) ([]uint, error)
	Search(ctx context.Context, spec *types.QuerySpec) (*Result, error)
}
