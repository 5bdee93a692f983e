package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scores computes S = W·X + b, broadcasting b across the n columns of X.
func Scores(X, W mat.Matrix, b mat.Vector) *mat.Dense {
	k, _ := W.Dims()
	s := &mat.Dense{}
	s.Mul(W, X)
	for i := 0; i < k; i++ {
		floats.AddConst(b.AtVec(i), s.RawRowView(i))
	}
	return s
}

// Softmax normalises every column of S into a probability distribution.
// With stable unset the scores are exponentiated as-is.
func Softmax(S mat.Matrix, stable bool) *mat.Dense {
	k, n := S.Dims()
	p := mat.NewDense(k, n, nil)
	col := make([]float64, k)
	for j := 0; j < n; j++ {
		mat.Col(col, j, S)
		if stable {
			floats.AddConst(-floats.Max(col), col)
		}
		for i, v := range col {
			col[i] = math.Exp(v)
		}
		denom := floats.Sum(col)
		for i := range col {
			col[i] /= denom
		}
		p.SetCol(j, col)
	}
	return p
}

// Evaluate maps the D×n input X to the K×n class-probability matrix P.
func Evaluate(X, W mat.Matrix, b mat.Vector, opts Options) *mat.Dense {
	return Softmax(Scores(X, W, b), opts.StableSoftmax)
}

// CrossEntropy returns the mean over columns of -log(Y[:,i]·P[:,i]).
// A zero true-class probability yields +Inf.
func CrossEntropy(P, Y mat.Matrix) float64 {
	k, n := P.Dims()
	p := make([]float64, k)
	y := make([]float64, k)
	total := 0.0
	for j := 0; j < n; j++ {
		mat.Col(p, j, P)
		mat.Col(y, j, Y)
		total += -math.Log(floats.Dot(y, p))
	}
	return total / float64(n)
}

// Regularization returns lambda·ΣW², unnormalised by parameter count.
func Regularization(W mat.Matrix, lambda float64) float64 {
	var sq mat.Dense
	sq.MulElem(W, W)
	return lambda * mat.Sum(&sq)
}

// Cost is the L2-regularised cross-entropy of the classifier (W, b) on the
// batch (X, Y).
func Cost(X, Y, W mat.Matrix, b mat.Vector, lambda float64, opts Options) float64 {
	P := Evaluate(X, W, b, opts)
	return CrossEntropy(P, Y) + Regularization(W, lambda)
}

// Gradients returns the exact partial derivatives of Cost with respect to W
// and b, given the forward-pass output P:
//
//	G      = -(Y - P)
//	grad_W = (1/n)·G·Xᵀ + 2·lambda·W
//	grad_b = (1/n)·G·1ₙ
func Gradients(X, Y, P, W mat.Matrix, lambda float64) (*mat.Dense, *mat.VecDense) {
	k, n := P.Dims()
	inv := 1 / float64(n)

	var g mat.Dense
	g.Sub(P, Y)

	gradW := &mat.Dense{}
	gradW.Mul(&g, X.T())
	gradW.Scale(inv, gradW)

	var reg mat.Dense
	reg.Scale(2*lambda, W)
	gradW.Add(gradW, &reg)

	gradB := mat.NewVecDense(k, nil)
	for i := 0; i < k; i++ {
		gradB.SetVec(i, inv*floats.Sum(g.RawRowView(i)))
	}
	return gradW, gradB
}

// Predict returns the arg max of every column of P. Ties resolve to the
// lowest class index.
func Predict(P mat.Matrix) []int {
	k, n := P.Dims()
	out := make([]int, n)
	col := make([]float64, k)
	for j := range out {
		mat.Col(col, j, P)
		out[j] = floats.MaxIdx(col)
	}
	return out
}

// ZeroOneLoss counts the positions where predicted and labels disagree.
func ZeroOneLoss(predicted, labels []int) int {
	wrong := 0
	for i, p := range predicted {
		if p != labels[i] {
			wrong++
		}
	}
	return wrong
}

// Accuracy returns 1 - misclassified/n for the classifier (W, b) on X.
func Accuracy(X mat.Matrix, labels []int, W mat.Matrix, b mat.Vector, opts Options) float64 {
	P := Evaluate(X, W, b, opts)
	return AccuracyFromProbs(P, labels)
}

// AccuracyFromProbs scores an already evaluated probability matrix.
func AccuracyFromProbs(P mat.Matrix, labels []int) float64 {
	_, n := P.Dims()
	return 1 - float64(ZeroOneLoss(Predict(P), labels))/float64(n)
}
