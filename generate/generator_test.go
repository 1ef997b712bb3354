package generate

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshGenerator(t *testing.T, spec Spec) *Generator {
	t.Helper()
	g, err := New(spec)
	require.NoError(t, err)
	os.Remove(g.CachePath())
	t.Cleanup(func() { os.Remove(g.CachePath()) })
	return g
}

func TestInsertBatchingWithShortRemainder(t *testing.T) {
	g := freshGenerator(t, Spec{
		Templates: []string{"insert into t values(<increment>,<int/1/10>)"},
		Total:     10,
		BatchSize: 3,
	})

	queries, err := g.Queries(context.Background())
	require.NoError(t, err)
	require.Len(t, queries, 4)

	for _, q := range queries[:3] {
		assert.Equal(t, 3, strings.Count(q, "),(")+1, q)
	}
	assert.Equal(t, 1, strings.Count(queries[3], "),(")+1, queries[3])
}

func TestNonInsertIgnoresBatchSize(t *testing.T) {
	g := freshGenerator(t, Spec{
		Templates: []string{"select * from t where a=<int/1/5>"},
		Total:     10,
		BatchSize: 3,
	})

	queries, err := g.Queries(context.Background())
	require.NoError(t, err)
	assert.Len(t, queries, 10)
	assert.False(t, g.BatchCompatible())
}

func TestBatchSizeOneEmitsPerRow(t *testing.T) {
	g := freshGenerator(t, Spec{
		Templates: []string{"insert into t values(<increment>)"},
		Total:     5,
		BatchSize: 1,
	})

	queries, err := g.Queries(context.Background())
	require.NoError(t, err)
	require.Len(t, queries, 5)
	for i, q := range queries {
		assert.Equal(t, "insert into t values("+strconv.Itoa(i+1)+")", q)
	}
}

func TestIterationsReplayTheSequence(t *testing.T) {
	g := freshGenerator(t, Spec{
		Templates:  []string{"insert into t values(<increment>,<string/3/5>)"},
		Total:      6,
		BatchSize:  2,
		Iterations: 3,
	})

	queries, err := g.Queries(context.Background())
	require.NoError(t, err)
	require.Len(t, queries, 9)
	assert.Equal(t, queries[:3], queries[3:6])
	assert.Equal(t, queries[:3], queries[6:])
}

func TestGenerationIsDeterministic(t *testing.T) {
	spec := Spec{
		Templates: []string{"insert into t values(<increment>,<int/1/100>,<string/5/8>)"},
		Total:     50,
		BatchSize: 5,
	}

	first := freshGenerator(t, spec)
	a, err := first.Queries(context.Background())
	require.NoError(t, err)

	os.Remove(first.CachePath())
	second, err := New(spec)
	require.NoError(t, err)
	b, err := second.Queries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCacheHitMatchesCacheMiss(t *testing.T) {
	spec := Spec{
		Templates: []string{"insert into t values(<increment>,<int/1/100>)"},
		Total:     10,
		BatchSize: 3,
	}

	miss := freshGenerator(t, spec)
	a, err := miss.Queries(context.Background())
	require.NoError(t, err)

	hit, err := New(spec)
	require.NoError(t, err)
	b, err := hit.Queries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestTemplatesKeepIndependentCounters(t *testing.T) {
	g := freshGenerator(t, Spec{
		Templates: []string{
			"insert into t1 values(<increment>)",
			"insert into t2 values(<increment>)",
		},
		Distribution: []float64{0.5, 0.5},
		Total:        40,
		BatchSize:    1,
	})

	queries, err := g.Queries(context.Background())
	require.NoError(t, err)
	require.Len(t, queries, 40)

	perTable := map[string][]string{}
	for _, q := range queries {
		table := strings.Fields(q)[2]
		value := q[strings.Index(q, "(")+1 : strings.Index(q, ")")]
		perTable[table] = append(perTable[table], value)
	}
	for table, values := range perTable {
		for i, v := range values {
			assert.Equal(t, strconv.Itoa(i+1), v, table)
		}
	}
}

func TestCancelRemovesPartialCache(t *testing.T) {
	g := freshGenerator(t, Spec{
		Templates: []string{"insert into t values(<increment>)"},
		Total:     100000,
		BatchSize: 10,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Queries(ctx)
	assert.ErrorIs(t, err, ErrCanceled)

	_, statErr := os.Stat(g.CachePath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestDistributionMismatchRejected(t *testing.T) {
	_, err := New(Spec{
		Templates:    []string{"select 1", "select 2"},
		Distribution: []float64{1},
		Total:        10,
	})
	assert.ErrorIs(t, err, ErrBadTemplate)
}

func TestWorkloadIndexSeparatesCaches(t *testing.T) {
	base := Spec{
		Templates: []string{"insert into t values(<increment>)"},
		Total:     10,
		BatchSize: 1,
	}
	other := base
	other.WorkloadIndex = 1

	a, err := New(base)
	require.NoError(t, err)
	b, err := New(other)
	require.NoError(t, err)

	assert.NotEqual(t, a.CachePath(), b.CachePath())
}
