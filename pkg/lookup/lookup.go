package lookup

import (
	"context"

	"github.com/matst80/slask-filter/pkg/types"
)

// Source is a precomputed (taxonomy, term, product) index used to
// avoid one query per term when counting attribute facets. Available
// reports whether the index exists at all; callers memoize a negative
// answer and stay on the slow path for the rest of the process.
type Source interface {
	Available(ctx context.Context) bool
	// CountByTerm returns distinct product counts per term for one
	// taxonomy, restricted to the candidate product set. A nil
	// candidate set means unrestricted.
	CountByTerm(ctx context.Context, taxonomy string, candidates []uint) (map[uint]int, error)
	// ProductIDs returns the distinct products matching the term set
	// with OR (any term) or AND (all terms) semantics.
	ProductIDs(ctx context.Context, taxonomy string, termIDs []uint, op types.Operator) ([]uint, error)
}
