// Package mcp exposes the curvature pipeline as JSON tool calls, either in
// process through Server.HandleToolCall or over HTTP through Router.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/signature"
	"github.com/njchilds90/gocurvature/symbolic"
	"github.com/njchilds90/gocurvature/tensor"
)

// ============================================================
// Tool interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

// ToolResponse carries a result in up to three renderings. Kind classifies
// failures: invalid_params, parse, domain, singular_metric,
// resource_exhausted or internal.
type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
	Kind   string      `json:"kind,omitempty"`
	Stage  string      `json:"stage,omitempty"`
}

// Server answers tool calls with one Deriver. Timeout bounds each call;
// zero means no bound beyond the caller's context.
type Server struct {
	deriver   *tensor.Deriver
	survey    signature.Options
	timeout   time.Duration
	log       *zap.Logger
	validate  *validator.Validate
	startedAt time.Time
}

// NewServer wires a Server. A nil logger discards output.
func NewServer(d *tensor.Deriver, survey signature.Options, timeout time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		deriver:   d,
		survey:    survey,
		timeout:   timeout,
		log:       log,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		startedAt: time.Now(),
	}
}

// fieldParams is shared by every tool that derives from a potential. The
// potential is either source text or an expression tree as produced by
// symbolic.Tree.
type fieldParams struct {
	Coordinates []string    `mapstructure:"coordinates" validate:"required,min=1,dive,required"`
	Potential   interface{} `mapstructure:"potential" validate:"required"`
}

type deriveParams struct {
	Field fieldParams `mapstructure:",squash"`
	Show  []string    `mapstructure:"show" validate:"dive,oneof=metric inverse connection riemann ricci scalar einstein"`
}

type signatureParams struct {
	Field     fieldParams `mapstructure:",squash"`
	Point     []float64   `mapstructure:"point"`
	Samples   int         `mapstructure:"samples" validate:"gte=0,lte=100000"`
	Low       *float64    `mapstructure:"low"`
	High      *float64    `mapstructure:"high"`
	Seed      *uint64     `mapstructure:"seed"`
	Tolerance float64     `mapstructure:"tolerance" validate:"gte=0"`
}

type parseParams struct {
	Expr string `mapstructure:"expr" validate:"required"`
}

// paramError marks malformed or missing tool parameters.
type paramError struct{ err error }

func (e *paramError) Error() string { return "invalid params: " + e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

func (s *Server) decode(params map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return &paramError{err}
	}
	if err := s.validate.Struct(out); err != nil {
		return &paramError{err}
	}
	return nil
}

func (p fieldParams) resolve() (tensor.Basis, symbolic.Expr, error) {
	b, err := tensor.NewBasis(p.Coordinates...)
	if err != nil {
		return tensor.Basis{}, nil, err
	}
	switch v := p.Potential.(type) {
	case string:
		e, err := symbolic.Parse(v)
		if err != nil {
			return tensor.Basis{}, nil, err
		}
		return b, e, nil
	case map[string]interface{}:
		e, err := symbolic.FromJSON(v)
		if err != nil {
			return tensor.Basis{}, nil, &paramError{fmt.Errorf("potential: %w", err)}
		}
		return b, e, nil
	}
	return tensor.Basis{}, nil, &paramError{fmt.Errorf("potential must be a string or an expression object, got %T", p.Potential)}
}

var stageByTool = map[string]tensor.Stage{
	"metric":         tensor.StageMetric,
	"inverse_metric": tensor.StageInverse,
	"christoffel":    tensor.StageConnection,
	"riemann":        tensor.StageRiemann,
	"ricci":          tensor.StageRicci,
	"ricci_scalar":   tensor.StageScalar,
	"einstein":       tensor.StageEinstein,
}

// HandleToolCall runs one tool. Failures are reported in the response,
// never as a Go error.
func (s *Server) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if req.Params == nil {
		req.Params = map[string]interface{}{}
	}
	start := time.Now()
	resp := s.dispatch(ctx, req)
	log := s.log.With(zap.String("tool", req.Tool), zap.Duration("duration", time.Since(start)))
	if resp.Error != "" {
		log.Info("tool call failed", zap.String("kind", resp.Kind), zap.String("error", resp.Error))
	} else {
		log.Debug("tool call complete")
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req ToolRequest) ToolResponse {
	if stage, ok := stageByTool[req.Tool]; ok {
		var p fieldParams
		if err := s.decode(req.Params, &p); err != nil {
			return failure(err)
		}
		return s.stageTool(ctx, p, stage)
	}
	switch req.Tool {
	case "derive":
		var p deriveParams
		if err := s.decode(req.Params, &p); err != nil {
			return failure(err)
		}
		return s.deriveTool(ctx, p)
	case "signature":
		var p signatureParams
		if err := s.decode(req.Params, &p); err != nil {
			return failure(err)
		}
		return s.signatureTool(ctx, p)
	case "parse":
		var p parseParams
		if err := s.decode(req.Params, &p); err != nil {
			return failure(err)
		}
		e, err := symbolic.Parse(p.Expr)
		if err != nil {
			return failure(err)
		}
		return respondExpr(e)
	case "mcp_spec":
		return ToolResponse{Result: json.RawMessage(ToolSpec()), String: ToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool), Kind: "invalid_params"}
}

func (s *Server) stageTool(ctx context.Context, p fieldParams, stage tensor.Stage) ToolResponse {
	b, e, err := p.resolve()
	if err != nil {
		return failure(err)
	}
	res, err := s.deriver.DeriveUntil(ctx, b, e, stage)
	if err != nil {
		return failure(err)
	}
	switch stage {
	case tensor.StageMetric:
		return respondMatrix(res.Metric)
	case tensor.StageInverse:
		return respondMatrix(res.Inverse)
	case tensor.StageConnection:
		return respondComponents("Γ", b, res.Connection.Nonzero(), tensor.NewReport(res, stage).Connection)
	case tensor.StageRiemann:
		return respondComponents("R", b, res.Riemann.Nonzero(), tensor.NewReport(res, stage).Riemann)
	case tensor.StageRicci:
		return respondMatrix(res.Ricci)
	case tensor.StageScalar:
		return respondExpr(res.Scalar)
	}
	return respondMatrix(res.Einstein)
}

func (s *Server) deriveTool(ctx context.Context, p deriveParams) ToolResponse {
	b, e, err := p.Field.resolve()
	if err != nil {
		return failure(err)
	}
	show := make([]tensor.Stage, 0, len(p.Show))
	for _, name := range p.Show {
		st, err := tensor.ParseStage(name)
		if err != nil {
			return failure(&paramError{err})
		}
		show = append(show, st)
	}
	res, err := s.deriver.Derive(ctx, b, e)
	if err != nil {
		return failure(err)
	}
	var text, latex strings.Builder
	if err := tensor.WriteText(&text, res, show...); err != nil {
		return failure(err)
	}
	if err := tensor.WriteLaTeX(&latex, res, show...); err != nil {
		return failure(err)
	}
	return ToolResponse{Result: tensor.NewReport(res, show...), LaTeX: latex.String(), String: text.String()}
}

func (s *Server) signatureTool(ctx context.Context, p signatureParams) ToolResponse {
	b, e, err := p.Field.resolve()
	if err != nil {
		return failure(err)
	}
	g, err := s.deriver.Metric(ctx, b, e)
	if err != nil {
		return failure(err)
	}
	if len(p.Point) > 0 {
		sample, err := signature.At(g, b, p.Point, p.Tolerance)
		if err != nil {
			return failure(&paramError{err})
		}
		return ToolResponse{Result: sample, String: sample.Signature.String()}
	}
	opts := s.survey
	if p.Samples > 0 {
		opts.Samples = p.Samples
	}
	if p.Low != nil {
		opts.Low = *p.Low
	}
	if p.High != nil {
		opts.High = *p.High
	}
	if p.Seed != nil {
		opts.Seed = *p.Seed
	}
	if p.Tolerance > 0 {
		opts.Tolerance = p.Tolerance
	}
	rep, err := signature.Survey(ctx, g, b, opts)
	if err != nil {
		return failure(err)
	}
	return ToolResponse{Result: rep, String: rep.Dominant}
}

func respondExpr(e symbolic.Expr) ToolResponse {
	return ToolResponse{Result: symbolic.Tree(e), LaTeX: e.LaTeX(), String: e.String()}
}

func respondMatrix(m *symbolic.Matrix) ToolResponse {
	return ToolResponse{Result: symbolic.MatrixTree(m), LaTeX: m.LaTeX(), String: m.String()}
}

func respondComponents(name string, b tensor.Basis, comps []tensor.Component, rendered []tensor.ComponentReport) ToolResponse {
	var text strings.Builder
	_ = tensor.FormatComponents(&text, name, b, comps)
	latex := make([]string, len(rendered))
	for i, c := range rendered {
		latex[i] = c.LaTeX
	}
	if rendered == nil {
		rendered = []tensor.ComponentReport{}
	}
	return ToolResponse{Result: rendered, LaTeX: strings.Join(latex, `\\`+"\n"), String: text.String()}
}

func failure(err error) ToolResponse {
	resp := ToolResponse{Error: err.Error(), Kind: "internal"}
	var (
		pe *paramError
		se *tensor.StageError
		xe *symbolic.ParseError
	)
	switch {
	case errors.As(err, &pe):
		resp.Kind = "invalid_params"
	case errors.As(err, &xe):
		resp.Kind = "parse"
	case errors.Is(err, tensor.ErrSingularMetric):
		resp.Kind = "singular_metric"
	case errors.Is(err, tensor.ErrResourceExhausted),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		resp.Kind = "resource_exhausted"
	case errors.Is(err, tensor.ErrDomain):
		resp.Kind = "domain"
	}
	if errors.As(err, &se) {
		resp.Stage = string(se.Stage)
	}
	return resp
}

// ============================================================
// Tool schema
// ============================================================

var fieldProps = map[string]string{"coordinates": "array", "potential": "string"}

func withProps(extra map[string]string) map[string]string {
	props := make(map[string]string, len(fieldProps)+len(extra))
	for k, v := range fieldProps {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// ToolSpec returns the tool schema document for agent registration. Any
// potential may also be given as an expression object.
func ToolSpec() string {
	field := []string{"coordinates", "potential"}
	tools := []map[string]interface{}{
		ts("metric", "Metric g = Hessian of the potential over the coordinates", field, fieldProps),
		ts("inverse_metric", "Exact inverse metric; fails with kind singular_metric when det g is identically zero", field, fieldProps),
		ts("christoffel", "Nonzero Christoffel symbols Γ^l_{mn}, m <= n", field, fieldProps),
		ts("riemann", "Nonzero Riemann components R^r_{s mu nu}, mu < nu", field, fieldProps),
		ts("ricci", "Ricci tensor, contraction of the first and third Riemann indices", field, fieldProps),
		ts("ricci_scalar", "Ricci scalar R = g^{mu nu} R_{mu nu}", field, fieldProps),
		ts("einstein", "Einstein tensor G = Ric - R g / 2", field, fieldProps),
		ts("derive", "Every stage at once. Optional show (string[]) selects stages", field, withProps(map[string]string{"show": "array"})),
		ts("signature", "Metric signature at point (number[]) or over a sampled box (samples, low, high, seed)", field,
			withProps(map[string]string{"point": "array", "samples": "integer", "low": "number", "high": "number", "seed": "integer", "tolerance": "number"})),
		ts("parse", "Parse an expression into its tree, string and LaTeX forms", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
