package lookup

import (
	"context"
	"log"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/matst80/slask-filter/pkg/types"
)

const lookupTable = "product_attribute_lookup"

// PG reads the lookup index from a postgres table holding
// (taxonomy, term_id, product_id) rows.
type PG struct {
	pool      *pgxpool.Pool
	probeOnce sync.Once
	available bool
}

func NewPG(ctx context.Context, dsn string) (*PG, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PG{pool: pool}, nil
}

func (p *PG) Close() {
	p.pool.Close()
}

// Available probes for the lookup table once per process. A missing
// table permanently routes callers to the slow path.
func (p *PG) Available(ctx context.Context) bool {
	p.probeOnce.Do(func() {
		var exists bool
		err := p.pool.QueryRow(ctx,
			"SELECT to_regclass($1) IS NOT NULL", lookupTable).Scan(&exists)
		if err != nil {
			log.Printf("lookup table probe failed: %v", err)
			return
		}
		p.available = exists
	})
	return p.available
}

func (p *PG) CountByTerm(ctx context.Context, taxonomy string, candidates []uint) (map[uint]int, error) {
	query := "SELECT term_id, COUNT(DISTINCT product_id) FROM " + lookupTable +
		" WHERE taxonomy = $1 GROUP BY term_id"
	args := []any{taxonomy}
	if candidates != nil {
		query = "SELECT term_id, COUNT(DISTINCT product_id) FROM " + lookupTable +
			" WHERE taxonomy = $1 AND product_id = ANY($2) GROUP BY term_id"
		args = append(args, toInt64(candidates))
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint]int{}
	for rows.Next() {
		var termID int64
		var count int
		if err := rows.Scan(&termID, &count); err != nil {
			return nil, err
		}
		out[uint(termID)] = count
	}
	return out, rows.Err()
}

func (p *PG) ProductIDs(ctx context.Context, taxonomy string, termIDs []uint, op types.Operator) ([]uint, error) {
	if len(termIDs) == 0 {
		return nil, nil
	}
	query := "SELECT DISTINCT product_id FROM " + lookupTable +
		" WHERE taxonomy = $1 AND term_id = ANY($2)"
	args := []any{taxonomy, toInt64(termIDs)}
	if op == types.OperatorAnd {
		query = "SELECT product_id FROM " + lookupTable +
			" WHERE taxonomy = $1 AND term_id = ANY($2)" +
			" GROUP BY product_id HAVING COUNT(DISTINCT term_id) = $3"
		args = append(args, len(termIDs))
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint
	for rows.Next() {
		var productID int64
		if err := rows.Scan(&productID); err != nil {
			return nil, err
		}
		out = append(out, uint(productID))
	}
	return out, rows.Err()
}

func toInt64(ids []uint) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
