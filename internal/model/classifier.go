package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Classifier owns the weights W (K×D) and bias b (K) of a linear softmax
// classifier. They change only through Update.
type Classifier struct {
	numClasses int
	inputSize  int
	w          *mat.Dense
	b          *mat.VecDense
	opts       Options
}

// NewClassifier draws W and b from N(0, std²) using a PRNG seeded with seed.
func NewClassifier(numClasses, inputSize int, std float64, seed int64, opts Options) *Classifier {
	if numClasses <= 0 {
		numClasses = 10
	}
	if inputSize <= 0 {
		inputSize = 3072
	}
	if std <= 0 {
		std = 0.01
	}
	rng := rand.New(rand.NewSource(seed))
	weights := make([]float64, numClasses*inputSize)
	for i := range weights {
		weights[i] = rng.NormFloat64() * std
	}
	bias := make([]float64, numClasses)
	for i := range bias {
		bias[i] = rng.NormFloat64() * std
	}
	return FromParams(mat.NewDense(numClasses, inputSize, weights), mat.NewVecDense(numClasses, bias), opts)
}

// FromParams wraps existing parameters. The classifier takes ownership of W
// and b.
func FromParams(W *mat.Dense, b *mat.VecDense, opts Options) *Classifier {
	k, d := W.Dims()
	if b.Len() != k {
		panic(mat.ErrShape)
	}
	return &Classifier{numClasses: k, inputSize: d, w: W, b: b, opts: opts}
}

// NumClasses returns K.
func (c *Classifier) NumClasses() int { return c.numClasses }

// InputSize returns D.
func (c *Classifier) InputSize() int { return c.inputSize }

// Weights returns a copy of W.
func (c *Classifier) Weights() *mat.Dense { return mat.DenseCopyOf(c.w) }

// Bias returns a copy of b.
func (c *Classifier) Bias() *mat.VecDense { return mat.VecDenseCopyOf(c.b) }

// Options returns the forward-pass options the classifier evaluates with.
func (c *Classifier) Options() Options { return c.opts }

// Evaluate returns the K×n probability matrix for X.
func (c *Classifier) Evaluate(X mat.Matrix) *mat.Dense {
	return Evaluate(X, c.w, c.b, c.opts)
}

// Cost returns the regularised cross-entropy on (X, Y).
func (c *Classifier) Cost(X, Y mat.Matrix, lambda float64) float64 {
	return Cost(X, Y, c.w, c.b, lambda, c.opts)
}

// Accuracy returns the fraction of columns of X classified as labels.
func (c *Classifier) Accuracy(X mat.Matrix, labels []int) float64 {
	return Accuracy(X, labels, c.w, c.b, c.opts)
}

// Update applies one gradient-descent step: W -= eta·gradW, b -= eta·gradB.
func (c *Classifier) Update(gradW *mat.Dense, gradB *mat.VecDense, eta float64) {
	var step mat.Dense
	step.Scale(eta, gradW)
	c.w.Sub(c.w, &step)

	var stepB mat.VecDense
	stepB.ScaleVec(eta, gradB)
	c.b.SubVec(c.b, &stepB)
}

// TrainStep runs forward pass, gradient and update on one batch and returns
// the batch cost measured before the update.
func (c *Classifier) TrainStep(batch Batch, eta, lambda float64) float64 {
	P := c.Evaluate(batch.X)
	loss := CrossEntropy(P, batch.Y) + Regularization(c.w, lambda)
	gradW, gradB := Gradients(batch.X, batch.Y, P, c.w, lambda)
	c.Update(gradW, gradB, eta)
	return loss
}

var _ Model = (*Classifier)(nil)
