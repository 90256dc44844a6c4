package lookup

import (
	"context"
	"testing"

	"github.com/matst80/slask-filter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededMemory() *Memory {
	m := NewMemory()
	m.Add("pa_color", 1, 100)
	m.Add("pa_color", 1, 101)
	m.Add("pa_color", 2, 101)
	m.Add("pa_color", 2, 102)
	return m
}

func TestMemoryCountByTermUnrestricted(t *testing.T) {
	counts, err := seededMemory().CountByTerm(context.Background(), "pa_color", nil)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 2, 2: 2}, counts)
}

func TestMemoryCountByTermHonorsCandidates(t *testing.T) {
	counts, err := seededMemory().CountByTerm(context.Background(), "pa_color", []uint{100})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 1}, counts)
}

func TestMemoryCountByTermEmptyCandidateSet(t *testing.T) {
	counts, err := seededMemory().CountByTerm(context.Background(), "pa_color", []uint{})
	require.NoError(t, err)
	assert.Empty(t, counts, "empty candidate set matches nothing")
}

func TestMemoryProductIDsOrUnionsSorted(t *testing.T) {
	ids, err := seededMemory().ProductIDs(context.Background(), "pa_color", []uint{1, 2}, types.OperatorOr)
	require.NoError(t, err)
	assert.Equal(t, []uint{100, 101, 102}, ids)
}

func TestMemoryProductIDsAndIntersects(t *testing.T) {
	ids, err := seededMemory().ProductIDs(context.Background(), "pa_color", []uint{1, 2}, types.OperatorAnd)
	require.NoError(t, err)
	assert.Equal(t, []uint{101}, ids)
}

func TestMemoryRemove(t *testing.T) {
	m := seededMemory()
	m.Remove("pa_color", 1, 100)
	counts, _ := m.CountByTerm(context.Background(), "pa_color", nil)
	assert.Equal(t, map[uint]int{1: 1, 2: 2}, counts)
}
