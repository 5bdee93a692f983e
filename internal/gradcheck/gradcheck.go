// Package gradcheck validates the analytic softmax gradients against
// centred finite differences.
package gradcheck

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"softmax-forge/internal/model"
)

// DefaultEps floors the relative-error denominator.
const DefaultEps = 1e-6

// Settings configures a gradient check.
type Settings struct {
	Lambda  float64
	Step    float64
	Eps     float64
	Options model.Options
}

// Result holds the relative errors between analytic and numeric gradients.
type Result struct {
	ErrW     float64
	ErrB     float64
	MeanErrW float64
	MeanErrB float64
}

// Numeric approximates dCost/dW and dCost/db with centred differences of
// step h. W and b are left untouched.
func Numeric(X, Y mat.Matrix, W *mat.Dense, b *mat.VecDense, lambda, h float64, opts model.Options) (*mat.Dense, *mat.VecDense) {
	k, d := W.Dims()
	settings := &fd.Settings{Formula: fd.Central, Step: h}

	w0 := mat.DenseCopyOf(W).RawMatrix().Data
	gradW := fd.Gradient(nil, func(w []float64) float64 {
		return model.Cost(X, Y, mat.NewDense(k, d, w), b, lambda, opts)
	}, w0, settings)

	b0 := mat.VecDenseCopyOf(b).RawVector().Data
	gradB := fd.Gradient(nil, func(v []float64) float64 {
		return model.Cost(X, Y, W, mat.NewVecDense(k, v), lambda, opts)
	}, b0, settings)

	return mat.NewDense(k, d, gradW), mat.NewVecDense(k, gradB)
}

// RelativeError returns the largest elementwise
// |a-n| / max(eps, |a|+|n|) between two equally shaped matrices.
func RelativeError(a, n mat.Matrix, eps float64) float64 {
	worst := 0.0
	for _, e := range relativeErrors(a, n, eps) {
		worst = math.Max(worst, e)
	}
	return worst
}

// MeanRelativeError is the mean of the elementwise relative errors.
func MeanRelativeError(a, n mat.Matrix, eps float64) float64 {
	errs := relativeErrors(a, n, eps)
	if len(errs) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range errs {
		sum += e
	}
	return sum / float64(len(errs))
}

func relativeErrors(a, n mat.Matrix, eps float64) []float64 {
	r, c := a.Dims()
	if nr, nc := n.Dims(); nr != r || nc != c {
		panic(mat.ErrShape)
	}
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			av, nv := a.At(i, j), n.At(i, j)
			out = append(out, math.Abs(av-nv)/math.Max(eps, math.Abs(av)+math.Abs(nv)))
		}
	}
	return out
}

// Check compares analytic and numeric gradients on the first example of
// (X, Y).
func Check(X, Y *mat.Dense, W *mat.Dense, b *mat.VecDense, s Settings) Result {
	if s.Step <= 0 {
		s.Step = 1e-6
	}
	if s.Eps <= 0 {
		s.Eps = DefaultEps
	}
	d, _ := X.Dims()
	k, _ := Y.Dims()
	x := X.Slice(0, d, 0, 1)
	y := Y.Slice(0, k, 0, 1)

	P := model.Evaluate(x, W, b, s.Options)
	gradW, gradB := model.Gradients(x, y, P, W, s.Lambda)
	numW, numB := Numeric(x, y, W, b, s.Lambda, s.Step, s.Options)

	return Result{
		ErrW:     RelativeError(gradW, numW, s.Eps),
		ErrB:     RelativeError(gradB, numB, s.Eps),
		MeanErrW: MeanRelativeError(gradW, numW, s.Eps),
		MeanErrB: MeanRelativeError(gradB, numB, s.Eps),
	}
}
