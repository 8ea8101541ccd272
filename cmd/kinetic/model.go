package main

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/kinetic"
	"github.com/deepnoodle-ai/kinetic/model"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

func (a *app) loadModel(ctx context.Context, path string) (*model.Model, error) {
	m, err := model.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().
		Str("model", m.Name).
		Int("symbols", m.SymbolTable().Len()).
		Int("outputs", len(m.Outputs)).
		Msg("loaded model")
	return m, nil
}

// parseAssignments parses name=value arguments.
func parseAssignments(args []string) (map[string]float64, error) {
	values := map[string]float64{}
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected name=value)", arg)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// widen converts a real input vector to scalars of type S.
func widen[S scalar.Scalar](vector []float64) []S {
	ops := scalar.For[S]()
	out := make([]S, len(vector))
	for i, v := range vector {
		out[i] = ops.FromComplex(complex(v, 0))
	}
	return out
}

// evaluate compiles m with scalars of type S and evaluates it once.
func evaluate[S scalar.Scalar](m *model.Model, vector []float64, opts []kinetic.Option) ([]complex128, error) {
	prog, err := kinetic.CompileModel[S](m, opts...)
	if err != nil {
		return nil, err
	}
	out, err := prog.Eval(widen[S](vector))
	if err != nil {
		return nil, err
	}
	ops := scalar.For[S]()
	result := make([]complex128, len(out))
	for i, v := range out {
		result[i] = ops.ToComplex(v)
	}
	return result, nil
}

// formatValue prints reals without an imaginary part.
func formatValue(v complex128) string {
	if imag(v) == 0 {
		return strconv.FormatFloat(real(v), 'g', -1, 64)
	}
	im := strconv.FormatFloat(imag(v), 'g', -1, 64)
	if !strings.HasPrefix(im, "-") {
		im = "+" + im
	}
	return strconv.FormatFloat(real(v), 'g', -1, 64) + im + "i"
}

// jsonValue returns a value that encoding/json can represent: a number when
// v is a finite real, a string otherwise.
func jsonValue(v complex128) any {
	if imag(v) == 0 && !math.IsInf(real(v), 0) && !math.IsNaN(real(v)) {
		return real(v)
	}
	return formatValue(v)
}

// approxEqual reports whether got is within a relative tolerance of want. NaN
// matches NaN.
func approxEqual(want, got complex128, tolerance float64) bool {
	if cmplx.IsNaN(want) || cmplx.IsNaN(got) {
		return cmplx.IsNaN(want) && cmplx.IsNaN(got)
	}
	if want == got {
		return true
	}
	return cmplx.Abs(want-got) <= tolerance*(1+cmplx.Abs(want))
}
