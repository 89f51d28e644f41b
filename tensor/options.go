package tensor

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/symbolic"
)

// Option configures a Deriver.
type Option func(*Deriver)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Deriver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithWorkers bounds the goroutines used per stage. Values below 1 select
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(d *Deriver) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		d.workers = n
	}
}

// WithMaxTerms bounds every intermediate polynomial during simplification.
func WithMaxTerms(n int) Option {
	return func(d *Deriver) {
		if n < 1 {
			n = symbolic.DefaultMaxTerms
		}
		d.maxTerms = n
	}
}
