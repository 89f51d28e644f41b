package symbolic

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// Tree returns the JSON tree of e as nested maps, ready to embed in a
// larger document.
func Tree(e Expr) map[string]interface{} { return e.toJSON() }

// FromJSONString decodes an expression from its JSON text.
func FromJSONString(s string) (Expr, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, fmt.Errorf("symbolic: decode expression: %w", err)
	}
	return FromJSON(data)
}

func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subList := func(field string) ([]Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r := new(big.Rat)
		if _, ok := r.SetString(val); !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		return &Num{val: r}, nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "add":
		terms, err := subList("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subList("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		baseM, err := subObj("base")
		if err != nil {
			return nil, err
		}
		expM, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		base, err := FromJSON(baseM)
		if err != nil {
			return nil, fmt.Errorf("pow: base: %w", err)
		}
		exp, err := FromJSON(expM)
		if err != nil {
			return nil, fmt.Errorf("pow: exp: %w", err)
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		argM, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		arg, err := FromJSON(argM)
		if err != nil {
			return nil, fmt.Errorf("func: arg: %w", err)
		}
		return Apply(name, arg), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

// MatrixTree encodes m as {rows, cols, entries} with entries in row-major
// order.
func MatrixTree(m *Matrix) map[string]interface{} {
	entries := make([]map[string]interface{}, 0, m.rows*m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			entries = append(entries, m.data[i][j].toJSON())
		}
	}
	return map[string]interface{}{"rows": m.rows, "cols": m.cols, "entries": entries}
}

// MatrixFromJSON decodes the MatrixTree layout. Dimensions arrive as JSON
// numbers.
func MatrixFromJSON(data map[string]interface{}) (*Matrix, error) {
	dim := func(field string) (int, error) {
		switch v := data[field].(type) {
		case float64:
			if v < 1 || v != float64(int(v)) {
				return 0, fmt.Errorf("matrix: %q must be a positive integer", field)
			}
			return int(v), nil
		case int:
			if v < 1 {
				return 0, fmt.Errorf("matrix: %q must be a positive integer", field)
			}
			return v, nil
		}
		return 0, fmt.Errorf("matrix: missing %q", field)
	}
	rows, err := dim("rows")
	if err != nil {
		return nil, err
	}
	cols, err := dim("cols")
	if err != nil {
		return nil, err
	}
	raw, ok := data["entries"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("matrix: 'entries' must be an array")
	}
	if len(raw) != rows*cols {
		return nil, fmt.Errorf("matrix: need %d entries, got %d", rows*cols, len(raw))
	}
	entries := make([]Expr, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("matrix: entries[%d] must be an object", i)
		}
		if entries[i], err = FromJSON(m); err != nil {
			return nil, fmt.Errorf("matrix: entries[%d]: %w", i, err)
		}
	}
	return MatrixFromSlice(rows, cols, entries), nil
}
