package tensor_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/gocurvature/symbolic"
	"github.com/njchilds90/gocurvature/tensor"
)

func TestFormatMatrix(t *testing.T) {
	b := basis(t, "x", "y")
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{
		symbolic.N(2), symbolic.N(0),
		symbolic.N(0), symbolic.N(2),
	})

	var buf bytes.Buffer
	require.NoError(t, tensor.FormatMatrix(&buf, "g", b, m))
	assert.Equal(t, "g  x  y\nx  2  0\ny  0  2\n", buf.String())
}

func TestFormatComponents(t *testing.T) {
	b := basis(t, "t", "x")

	var buf bytes.Buffer
	require.NoError(t, tensor.FormatComponents(&buf, "Γ", b, nil))
	assert.Equal(t, "Γ = 0\n", buf.String())

	buf.Reset()
	comps := []tensor.Component{{Index: []int{1, 0, 0}, Value: symbolic.S("t")}}
	require.NoError(t, tensor.FormatComponents(&buf, "Γ", b, comps))
	assert.Equal(t, "Γ[x,t,t] = t\n", buf.String())
}

func TestWriteText_SelectedStages(t *testing.T) {
	b := basis(t, "x", "y")
	res, err := tensor.New().Derive(context.Background(), b, symbolic.MustParse("x^2 + y^2"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tensor.WriteText(&buf, res, tensor.StageMetric, tensor.StageConnection))
	out := buf.String()
	assert.Contains(t, out, "coordinates (x, y)")
	assert.Contains(t, out, "Metric g")
	assert.Contains(t, out, "Γ = 0")
	assert.NotContains(t, out, "Einstein")
}

func TestWriteLaTeX(t *testing.T) {
	b := basis(t, "theta", "phi")
	res, err := tensor.New().DeriveUntil(context.Background(), b, symbolic.MustParse("theta^3 + phi^2"), tensor.StageConnection)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tensor.WriteLaTeX(&buf, res))
	out := buf.String()
	assert.Contains(t, out, `\begin{pmatrix}`)
	assert.Contains(t, out, `\Gamma^{\theta}_{\theta \theta}`)
}

func TestNewReport(t *testing.T) {
	b := basis(t, "x", "y")
	res, err := tensor.New().Derive(context.Background(), b, symbolic.MustParse("x^2 + y^2"))
	require.NoError(t, err)

	rep := tensor.NewReport(res, tensor.StageMetric, tensor.StageEinstein)
	want := [][]string{{"2", "0"}, {"0", "2"}}
	if diff := cmp.Diff(want, rep.Metric); diff != "" {
		t.Errorf("metric mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"0", "0"}, {"0", "0"}}, rep.Einstein); diff != "" {
		t.Errorf("einstein mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, rep.Inverse)
	assert.Empty(t, rep.Scalar)
	assert.Equal(t, []string{"x", "y"}, rep.Basis)
	assert.Equal(t, res.RunID.String(), rep.RunID)

	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "metric")
	assert.NotContains(t, decoded, "inverse_metric")

	y, err := yaml.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(y), "x^2 + y^2")
}

func TestNewReport_Components(t *testing.T) {
	b := basis(t, "x", "y")
	res, err := tensor.New().DeriveUntil(context.Background(), b, symbolic.MustParse("x^3 + y^2"), tensor.StageConnection)
	require.NoError(t, err)

	rep := tensor.NewReport(res)
	require.Len(t, rep.Connection, 1)
	assert.Equal(t, "x,x,x", rep.Connection[0].Index)
	requireSame(t, symbolic.DivOf(symbolic.N(1), symbolic.MulOf(symbolic.N(2), symbolic.S("x"))), res.Connection.At(0, 0, 0))
	assert.Equal(t, res.Connection.At(0, 0, 0).String(), rep.Connection[0].Value)
	assert.True(t, strings.HasPrefix(rep.Connection[0].LaTeX, `\Gamma^{x}_{x x} = `), rep.Connection[0].LaTeX)
}
