package symbolic_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/gocurvature/symbolic"
)

// ============================================================
// JSON tests
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	exprs := []symbolic.Expr{
		symbolic.N(3),
		symbolic.F(-2, 7),
		x,
		symbolic.AddOf(sq(x), symbolic.MulOf(symbolic.N(2), y)),
		symbolic.DivOf(symbolic.SinOf(x), symbolic.CosOf(y)),
		symbolic.SqrtOf(symbolic.AddOf(x, y)),
		symbolic.Diff(symbolic.Apply("f", x), "x"),
	}
	for _, e := range exprs {
		s, err := symbolic.ToJSON(e)
		if err != nil {
			t.Fatalf("ToJSON(%s): %v", e, err)
		}
		back, err := symbolic.FromJSONString(s)
		if err != nil {
			t.Fatalf("FromJSONString(%s): %v", s, err)
		}
		if !back.Equal(e) {
			t.Errorf("round trip: want %s, got %s", e, back)
		}
	}
}

func TestJSON_Shape(t *testing.T) {
	s, err := symbolic.ToJSON(symbolic.SinOf(x))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "func" || m["name"] != "sin" {
		t.Errorf("unexpected encoding: %s", s)
	}
}

func TestJSON_Errors(t *testing.T) {
	bad := []string{
		`{}`,
		`{"type":"bigo","var":"x","order":3}`,
		`{"type":"num","value":"abc"}`,
		`{"type":"add","terms":[1]}`,
		`{"type":"pow","base":{"type":"sym","name":"x"}}`,
		`not json`,
	}
	for _, s := range bad {
		if _, err := symbolic.FromJSONString(s); err == nil {
			t.Errorf("FromJSONString(%s): expected error", s)
		}
	}
}

// ============================================================
// Evalf tests
// ============================================================

func TestEvalf(t *testing.T) {
	e := symbolic.AddOf(sq(x), symbolic.SinOf(y), symbolic.DivOf(symbolic.N(1), symbolic.N(4)))
	got, err := symbolic.Evalf(e, map[string]float64{"x": 2, "y": 0})
	if err != nil {
		t.Fatalf("Evalf: %v", err)
	}
	if math.Abs(got-4.25) > 1e-12 {
		t.Errorf("want 4.25, got %g", got)
	}
}

func TestEvalf_Errors(t *testing.T) {
	tests := []struct {
		e    symbolic.Expr
		env  map[string]float64
		want error
	}{
		{x, nil, symbolic.ErrUnbound},
		{symbolic.Apply("f", x), map[string]float64{"x": 1}, symbolic.ErrUnbound},
		{symbolic.LnOf(x), map[string]float64{"x": -1}, symbolic.ErrNotFinite},
		{symbolic.PowOf(x, symbolic.N(-1)), map[string]float64{"x": 0}, symbolic.ErrNotFinite},
	}
	for _, tc := range tests {
		_, err := symbolic.Evalf(tc.e, tc.env)
		if !errors.Is(err, tc.want) {
			t.Errorf("Evalf(%s): want %v, got %v", tc.e, tc.want, err)
		}
		if err != nil && !strings.HasPrefix(err.Error(), "symbolic:") {
			t.Errorf("error should carry the package prefix: %v", err)
		}
	}
}
