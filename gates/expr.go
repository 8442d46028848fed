package gates

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/cytolib/gating"
)

// Expression selects events with a CEL boolean expression instead of a
// geometric shape. The event is bound to the variable "event" as a map from
// channel name to preprocessed value, so an expression can combine
// thresholds freely:
//
//	event["FSC-A"] > 50000.0 && event["SSC-A"] < 80000.0
//
// The expression is compiled once at construction; see
// https://github.com/google/cel-spec for the expression language.
type Expression struct {
	id   string
	dims []gating.Dimension
	expr string
	prg  cel.Program
}

// eventKey is the CEL variable name the candidate event is bound to.
const eventKey = "event"

// NewExpression compiles the expression and creates the gate. The
// expression may only reference channels declared in dims, and must produce
// a bool.
func NewExpression(id string, dims []gating.Dimension, expr string) (*Expression, error) {
	env, err := cel.NewEnv(
		cel.Variable(eventKey, cel.MapType(cel.StringType, cel.DoubleType)),
	)
	if err != nil {
		return nil, fmt.Errorf("gates: expression %q: %w", id, err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("gates: expression %q: %w", id, iss.Err())
	}
	if ast.OutputType().String() != "bool" {
		return nil, fmt.Errorf("gates: expression %q must produce bool, produces %s", id, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("gates: expression %q: %w", id, err)
	}
	return &Expression{id: id, dims: dims, expr: expr, prg: prg}, nil
}

// ID implements gating.Gate.
func (e *Expression) ID() string { return e.id }

// Dimensions implements gating.Gate.
func (e *Expression) Dimensions() []gating.Dimension { return e.dims }

// Expr returns the source expression.
func (e *Expression) Expr() string { return e.expr }

// Apply implements gating.SimpleGate, evaluating the expression once per
// candidate event.
func (e *Expression) Apply(cols [][]float64) ([]bool, error) {
	if len(cols) != len(e.dims) {
		return nil, fmt.Errorf("gates: expression %q: %d columns for %d dimensions", e.id, len(cols), len(e.dims))
	}
	if len(e.dims) == 0 {
		return nil, fmt.Errorf("gates: expression %q has no dimensions", e.id)
	}

	mask := make([]bool, len(cols[0]))
	event := make(map[string]float64, len(e.dims))
	for i := range mask {
		for j, d := range e.dims {
			event[d.Channel] = cols[j][i]
		}
		out, _, err := e.prg.Eval(map[string]any{eventKey: event})
		if err != nil {
			return nil, fmt.Errorf("gates: expression %q: %w", e.id, err)
		}
		pass, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("gates: expression %q produced %T, expected bool", e.id, out.Value())
		}
		mask[i] = pass
	}
	return mask, nil
}
