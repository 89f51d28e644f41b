// Package symbolic is the exact algebra kernel behind the curvature pipeline.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Canonical, deterministic simplification and stable output
//   - Rational-function normalization with an exact zero test
//   - JSON, LaTeX and text renderings for tools and CLIs
//
// Expressions are immutable. Every constructor (N, S, AddOf, MulOf, PowOf,
// SinOf, Apply, ...) returns a canonical node, so Simplify on a constructed
// expression is free.
package symbolic
