package tensor

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/njchilds90/gocurvature/symbolic"
)

// ============================================================
// Printing
// ============================================================

// FormatMatrix writes m as a tab-aligned grid with coordinate names along
// both axes.
func FormatMatrix(w io.Writer, name string, b Basis, m *symbolic.Matrix) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(b.names, "\t"))
	for i := 0; i < m.Rows(); i++ {
		row := make([]string, m.Cols())
		for j := range row {
			row[j] = m.Get(i, j).String()
		}
		fmt.Fprintf(tw, "%s\t%s\n", b.Name(i), strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// FormatComponents writes one line per component, e.g. "Γ[x,t,t] = ...".
// An empty list prints "name = 0".
func FormatComponents(w io.Writer, name string, b Basis, comps []Component) error {
	if len(comps) == 0 {
		_, err := fmt.Fprintf(w, "%s = 0\n", name)
		return err
	}
	for _, c := range comps {
		if _, err := fmt.Fprintf(w, "%s[%s] = %s\n", name, indexLabel(b, c.Index), c.Value); err != nil {
			return err
		}
	}
	return nil
}

func indexLabel(b Basis, idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = b.Name(v)
	}
	return strings.Join(parts, ",")
}

// latexComponent renders Γ^{l}_{m n} style names; upper is the number of
// leading contravariant indices.
func latexComponent(symbol string, upper int, b Basis, idx []int) string {
	var sb strings.Builder
	sb.WriteString(symbol)
	names := make([]string, len(idx))
	for i, v := range idx {
		names[i] = symbolic.S(b.Name(v)).LaTeX()
	}
	if upper > 0 {
		sb.WriteString("^{" + strings.Join(names[:upper], " ") + "}")
	}
	if upper < len(names) {
		sb.WriteString("_{" + strings.Join(names[upper:], " ") + "}")
	}
	return sb.String()
}

var stageTitles = map[Stage]string{
	StageMetric:     "Metric g",
	StageInverse:    "Inverse metric g^-1",
	StageConnection: "Christoffel symbols Γ",
	StageRiemann:    "Riemann tensor R",
	StageRicci:      "Ricci tensor Ric",
	StageScalar:     "Ricci scalar R",
	StageEinstein:   "Einstein tensor G",
}

func shown(res *Result, show []Stage) []Stage {
	var out []Stage
	for _, st := range Stages {
		if st.order() > res.Completed.order() {
			break
		}
		if len(show) == 0 {
			out = append(out, st)
			continue
		}
		for _, s := range show {
			if s == st {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

// WriteText prints the selected stages of res, every completed stage when
// show is empty.
func WriteText(w io.Writer, res *Result, show ...Stage) error {
	b := res.Basis
	fmt.Fprintf(w, "coordinates %s\npotential   S = %s\n", b, res.Potential)
	for _, st := range shown(res, show) {
		fmt.Fprintf(w, "\n%s\n", stageTitles[st])
		var err error
		switch st {
		case StageMetric:
			err = FormatMatrix(w, "g", b, res.Metric)
		case StageInverse:
			err = FormatMatrix(w, "g^-1", b, res.Inverse)
		case StageConnection:
			err = FormatComponents(w, "Γ", b, res.Connection.Nonzero())
		case StageRiemann:
			err = FormatComponents(w, "R", b, res.Riemann.Nonzero())
		case StageRicci:
			err = FormatMatrix(w, "Ric", b, res.Ricci)
		case StageScalar:
			_, err = fmt.Fprintf(w, "R = %s\n", res.Scalar)
		case StageEinstein:
			err = FormatMatrix(w, "G", b, res.Einstein)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteLaTeX prints the selected stages as display equations.
func WriteLaTeX(w io.Writer, res *Result, show ...Stage) error {
	b := res.Basis
	components := func(symbol string, upper int, comps []Component) {
		if len(comps) == 0 {
			fmt.Fprintf(w, "%s = 0\n", symbol)
			return
		}
		for _, c := range comps {
			fmt.Fprintf(w, "%s = %s\n", latexComponent(symbol, upper, b, c.Index), c.Value.LaTeX())
		}
	}
	fmt.Fprintf(w, "S = %s\n", res.Potential.LaTeX())
	for _, st := range shown(res, show) {
		switch st {
		case StageMetric:
			fmt.Fprintf(w, "g = %s\n", res.Metric.LaTeX())
		case StageInverse:
			fmt.Fprintf(w, "g^{-1} = %s\n", res.Inverse.LaTeX())
		case StageConnection:
			components(`\Gamma`, 1, res.Connection.Nonzero())
		case StageRiemann:
			components("R", 1, res.Riemann.Nonzero())
		case StageRicci:
			fmt.Fprintf(w, "R_{\\mu\\nu} = %s\n", res.Ricci.LaTeX())
		case StageScalar:
			fmt.Fprintf(w, "R = %s\n", res.Scalar.LaTeX())
		case StageEinstein:
			fmt.Fprintf(w, "G_{\\mu\\nu} = %s\n", res.Einstein.LaTeX())
		}
	}
	return nil
}

// ============================================================
// Structured report
// ============================================================

// ComponentReport is one tensor component in a Report.
type ComponentReport struct {
	Index string `json:"index" yaml:"index"`
	Value string `json:"value" yaml:"value"`
	LaTeX string `json:"latex" yaml:"latex"`
}

// Report is the serializable form of a Result.
type Report struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	Basis      []string          `json:"basis" yaml:"basis"`
	Potential  string            `json:"potential" yaml:"potential"`
	Completed  Stage             `json:"completed" yaml:"completed"`
	Metric     [][]string        `json:"metric,omitempty" yaml:"metric,omitempty"`
	Inverse    [][]string        `json:"inverse_metric,omitempty" yaml:"inverse_metric,omitempty"`
	Connection []ComponentReport `json:"christoffel,omitempty" yaml:"christoffel,omitempty"`
	Riemann    []ComponentReport `json:"riemann,omitempty" yaml:"riemann,omitempty"`
	Ricci      [][]string        `json:"ricci,omitempty" yaml:"ricci,omitempty"`
	Scalar     string            `json:"ricci_scalar,omitempty" yaml:"ricci_scalar,omitempty"`
	Einstein   [][]string        `json:"einstein,omitempty" yaml:"einstein,omitempty"`
	Timings    []StageTiming     `json:"timings" yaml:"timings"`
}

// NewReport renders the selected stages of res; every completed stage when
// show is empty. Component lists hold only nonzero entries.
func NewReport(res *Result, show ...Stage) Report {
	b := res.Basis
	rep := Report{
		RunID:     res.RunID.String(),
		Basis:     b.Names(),
		Potential: res.Potential.String(),
		Completed: res.Completed,
		Timings:   res.Timings,
	}
	components := func(symbol string, upper int, comps []Component) []ComponentReport {
		out := make([]ComponentReport, len(comps))
		for i, c := range comps {
			out[i] = ComponentReport{
				Index: indexLabel(b, c.Index),
				Value: c.Value.String(),
				LaTeX: latexComponent(symbol, upper, b, c.Index) + " = " + c.Value.LaTeX(),
			}
		}
		return out
	}
	for _, st := range shown(res, show) {
		switch st {
		case StageMetric:
			rep.Metric = Grid(res.Metric)
		case StageInverse:
			rep.Inverse = Grid(res.Inverse)
		case StageConnection:
			rep.Connection = components(`\Gamma`, 1, res.Connection.Nonzero())
		case StageRiemann:
			rep.Riemann = components("R", 1, res.Riemann.Nonzero())
		case StageRicci:
			rep.Ricci = Grid(res.Ricci)
		case StageScalar:
			rep.Scalar = res.Scalar.String()
		case StageEinstein:
			rep.Einstein = Grid(res.Einstein)
		}
	}
	return rep
}

// Grid returns the String form of every entry of m.
func Grid(m *symbolic.Matrix) [][]string {
	out := make([][]string, m.Rows())
	for i := range out {
		out[i] = make([]string, m.Cols())
		for j := range out[i] {
			out[i][j] = m.Get(i, j).String()
		}
	}
	return out
}
