package tensor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/njchilds90/gocurvature/symbolic"
)

// Stage names a step of the derivation pipeline.
type Stage string

const (
	StageBasis      Stage = "basis"
	StageMetric     Stage = "metric"
	StageInverse    Stage = "inverse"
	StageConnection Stage = "connection"
	StageRiemann    Stage = "riemann"
	StageRicci      Stage = "ricci"
	StageScalar     Stage = "scalar"
	StageEinstein   Stage = "einstein"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{StageMetric, StageInverse, StageConnection, StageRiemann, StageRicci, StageScalar, StageEinstein}

// ParseStage accepts a stage name as printed by Stage.
func ParseStage(s string) (Stage, error) {
	for _, st := range append([]Stage{StageBasis}, Stages...) {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

func (s Stage) order() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

var (
	// ErrDomain marks a potential or basis the pipeline cannot differentiate.
	ErrDomain = errors.New("domain error")
	// ErrSingularMetric marks a metric whose determinant is identically zero.
	ErrSingularMetric = errors.New("singular metric")
	// ErrResourceExhausted marks a simplification that ran past its term
	// budget or its context.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// StageError reports which stage, and which index tuple if any, failed.
// Kind is one of ErrDomain, ErrSingularMetric or ErrResourceExhausted.
type StageError struct {
	Stage Stage
	Index []int
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	var sb strings.Builder
	sb.WriteString("einstein: ")
	sb.WriteString(string(e.Stage))
	if len(e.Index) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(e.Stage.symbol())
		sb.WriteByte('[')
		for i, v := range e.Index {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(v))
		}
		sb.WriteByte(']')
	}
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (s Stage) symbol() string {
	switch s {
	case StageMetric:
		return "g"
	case StageInverse:
		return "g⁻¹"
	case StageConnection:
		return "Γ"
	case StageRiemann:
		return "R"
	case StageRicci:
		return "Ric"
	case StageEinstein:
		return "G"
	}
	return string(s)
}

func domainError(stage Stage, format string, args ...interface{}) error {
	return &StageError{Stage: stage, Kind: ErrDomain, Err: fmt.Errorf(format, args...)}
}

// classify turns an engine error into a StageError; errors that already
// carry a stage pass through.
func classify(stage Stage, index []int, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	kind := ErrDomain
	switch {
	case errors.Is(err, symbolic.ErrSingular):
		kind = ErrSingularMetric
	case errors.Is(err, symbolic.ErrTooLarge),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		kind = ErrResourceExhausted
	}
	return &StageError{Stage: stage, Index: append([]int(nil), index...), Kind: kind, Err: err}
}
