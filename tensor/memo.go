package tensor

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/njchilds90/gocurvature/symbolic"
)

// memo caches normalized expressions by canonical string for one run.
// Concurrent requests for the same key share a single normalization.
type memo struct {
	simp   symbolic.Simplifier
	cache  sync.Map
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

func newMemo(maxTerms int) *memo {
	return &memo{simp: symbolic.Simplifier{MaxTerms: maxTerms}}
}

func (m *memo) normalize(ctx context.Context, e symbolic.Expr) (symbolic.Expr, error) {
	e = e.Simplify()
	switch e.(type) {
	case *symbolic.Num, *symbolic.Sym:
		return e, nil
	}
	key := e.String()
	if v, ok := m.cache.Load(key); ok {
		m.hits.Add(1)
		return v.(symbolic.Expr), nil
	}
	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		if v, ok := m.cache.Load(key); ok {
			return v, nil
		}
		m.misses.Add(1)
		r, err := m.simp.NormalizeContext(ctx, e)
		if err != nil {
			return nil, err
		}
		m.cache.Store(key, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(symbolic.Expr), nil
}
