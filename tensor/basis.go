package tensor

import (
	"strings"
	"unicode"

	"github.com/njchilds90/gocurvature/symbolic"
)

// Basis is an ordered set of distinct coordinate names. It is immutable.
type Basis struct {
	names []string
}

// NewBasis validates names and returns the basis they span. Names must be
// identifiers so that parsed potentials can refer to them.
func NewBasis(names ...string) (Basis, error) {
	if len(names) == 0 {
		return Basis{}, domainError(StageBasis, "coordinate basis is empty")
	}
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if !isIdent(name) {
			return Basis{}, domainError(StageBasis, "coordinate %d: %q is not an identifier", i, name)
		}
		if symbolic.IsBuiltin(name) {
			return Basis{}, domainError(StageBasis, "coordinate %d: %q names a built-in function", i, name)
		}
		if seen[name] {
			return Basis{}, domainError(StageBasis, "coordinate %q appears twice", name)
		}
		seen[name] = true
	}
	return Basis{names: append([]string(nil), names...)}, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func (b Basis) Dim() int { return len(b.names) }

// Names returns a copy of the coordinate names in order.
func (b Basis) Names() []string { return append([]string(nil), b.names...) }

func (b Basis) Name(i int) string { return b.names[i] }

func (b Basis) Symbol(i int) *symbolic.Sym { return symbolic.S(b.names[i]) }

func (b Basis) Index(name string) (int, bool) {
	for i, n := range b.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func (b Basis) String() string { return "(" + strings.Join(b.names, ", ") + ")" }
