package tensor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gocurvature/symbolic"
)

func TestMemo_SharesNormalizations(t *testing.T) {
	m := newMemo(0)
	e := symbolic.MustParse("(x^2 - 1)/(x - 1)")

	var wg sync.WaitGroup
	results := make([]symbolic.Expr, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := m.normalize(context.Background(), e)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "x + 1", r.String())
	}
	assert.Equal(t, int64(1), m.misses.Load())
}

func TestMemo_AtomsBypassCache(t *testing.T) {
	m := newMemo(0)
	r, err := m.normalize(context.Background(), symbolic.S("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", r.String())
	assert.Zero(t, m.hits.Load()+m.misses.Load())
}

func TestArray_Setters(t *testing.T) {
	c := newChristoffel(2)
	c.setSymmetric(1, 0, 1, symbolic.S("a"))
	assert.Equal(t, "a", c.At(1, 1, 0).String())
	assert.Len(t, c.Nonzero(), 1)

	r := newRiemann(2)
	r.setAntisymmetric(0, 1, 0, 1, symbolic.S("b"))
	assert.Equal(t, "-b", r.At(0, 1, 1, 0).String())
	assert.Len(t, r.Nonzero(), 1)
	assert.Panics(t, func() { r.setAntisymmetric(0, 0, 1, 1, symbolic.S("b")) })
	assert.Panics(t, func() { r.At(0, 0, 2, 0) })
}
