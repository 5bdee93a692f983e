package metrics

import (
	"math"
	"time"
)

// Window summarises the mini-batches of one epoch: the example-weighted
// mean of the per-batch costs, their spread and where the time went.
type Window struct {
	examples int
	batches  int
	lossSum  float64
	minLoss  float64
	maxLoss  float64
	data     time.Duration
	compute  time.Duration
}

// Record adds one batch. loss is the batch cost measured before its update.
func (w *Window) Record(batchSize int, dataTime, computeTime time.Duration, loss float64) {
	if w.batches == 0 {
		w.minLoss, w.maxLoss = loss, loss
	}
	w.minLoss = math.Min(w.minLoss, loss)
	w.maxLoss = math.Max(w.maxLoss, loss)
	w.lossSum += loss * float64(batchSize)
	w.examples += batchSize
	w.batches++
	w.data += dataTime
	w.compute += computeTime
}

// Snapshot summarises everything recorded since the last snapshot and
// empties the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		Batches:  w.batches,
		Examples: w.examples,
		MinLoss:  w.minLoss,
		MaxLoss:  w.maxLoss,
	}
	if w.examples > 0 {
		snap.MeanLoss = w.lossSum / float64(w.examples)
	}
	if busy := w.data + w.compute; busy > 0 {
		snap.ExamplesPerSec = float64(w.examples) / busy.Seconds()
		snap.DataShare = float64(w.data) / float64(busy)
	}
	*w = Window{}
	return snap
}

// Snapshot is the loggable summary of a Window.
type Snapshot struct {
	Batches        int
	Examples       int
	MeanLoss       float64
	MinLoss        float64
	MaxLoss        float64
	ExamplesPerSec float64
	// DataShare is the fraction of busy time spent fetching batches.
	DataShare float64
}
