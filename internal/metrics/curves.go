package metrics

import (
	"fmt"
	"math"
)

// Curves holds one training and one validation cost per epoch.
type Curves struct {
	Train []float64
	Valid []float64
	set   []bool
}

// NewCurves allocates curves for epochs entries, all zero.
func NewCurves(epochs int) *Curves {
	return &Curves{
		Train: make([]float64, epochs),
		Valid: make([]float64, epochs),
		set:   make([]bool, epochs),
	}
}

// Len returns the number of epochs the curves cover.
func (c *Curves) Len() int { return len(c.Train) }

// Set stores the costs measured after epoch.
func (c *Curves) Set(epoch int, train, valid float64) error {
	if epoch < 0 || epoch >= len(c.Train) {
		return fmt.Errorf("metrics: epoch %d outside [0, %d)", epoch, len(c.Train))
	}
	c.Train[epoch] = train
	c.Valid[epoch] = valid
	c.set[epoch] = true
	return nil
}

// Complete reports whether every epoch has been recorded.
func (c *Curves) Complete() bool {
	for _, ok := range c.set {
		if !ok {
			return false
		}
	}
	return true
}

// Finite reports whether every recorded cost is finite and non-negative.
func (c *Curves) Finite() bool {
	for i, ok := range c.set {
		if !ok {
			continue
		}
		for _, v := range []float64{c.Train[i], c.Valid[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return false
			}
		}
	}
	return true
}
