package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"softmax-forge/internal/model"
)

// CIFAR-10 binary layout: one label byte followed by 32×32×3 pixel bytes
// (all red, then green, then blue, row-major).
const (
	CIFARClasses    = 10
	CIFARSide       = 32
	CIFARChannels   = 3
	CIFARFeatureDim = CIFARSide * CIFARSide * CIFARChannels
)

var (
	// ErrTruncated indicates the input ended inside a record.
	ErrTruncated = errors.New("cifar: truncated record")
	// ErrLabelRange indicates a label byte outside [0, NumClasses).
	ErrLabelRange = errors.New("cifar: label out of range")
	// ErrEmpty indicates the input held no records.
	ErrEmpty = errors.New("cifar: no records")
)

// Format describes the record layout of a batch file.
type Format struct {
	NumClasses int
	FeatureDim int
	// MaxSamples caps the records decoded; 0 reads everything.
	MaxSamples int
}

// CIFAR10 is the layout of the official binary distribution.
func CIFAR10() Format {
	return Format{NumClasses: CIFARClasses, FeatureDim: CIFARFeatureDim}
}

// Split is a decoded batch file. X is D×n with pixels scaled to [0, 1], Y is
// the K×n one-hot encoding of Labels.
type Split struct {
	X      *mat.Dense
	Y      *mat.Dense
	Labels []int
}

// Len returns the number of examples.
func (s *Split) Len() int {
	return len(s.Labels)
}

// Batch exposes the whole split as a single batch.
func (s *Split) Batch() model.Batch {
	return model.Batch{X: s.X, Y: s.Y, Labels: s.Labels}
}

// OneHot encodes labels as a numClasses×len(labels) matrix.
func OneHot(labels []int, numClasses int) *mat.Dense {
	y := mat.NewDense(numClasses, len(labels), nil)
	for j, l := range labels {
		y.Set(l, j, 1)
	}
	return y
}

// LoadBatch decodes the batch file at path.
func LoadBatch(path string, f Format) (*Split, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer file.Close()

	split, err := ReadBatch(bufio.NewReader(file), f)
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}
	return split, nil
}

// ReadBatch decodes fixed-size records from r until EOF or f.MaxSamples.
func ReadBatch(r io.Reader, f Format) (*Split, error) {
	if f.NumClasses <= 0 || f.FeatureDim <= 0 {
		return nil, fmt.Errorf("cifar: invalid format %+v", f)
	}
	recordSize := 1 + f.FeatureDim
	var (
		pixels []byte
		labels []int
	)
	record := make([]byte, recordSize)
	for f.MaxSamples <= 0 || len(labels) < f.MaxSamples {
		_, err := io.ReadFull(r, record)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("record %d: %w", len(labels), ErrTruncated)
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(labels), err)
		}
		label := int(record[0])
		if label >= f.NumClasses {
			return nil, fmt.Errorf("record %d: label %d: %w", len(labels), label, ErrLabelRange)
		}
		labels = append(labels, label)
		pixels = append(pixels, record[1:]...)
	}
	if len(labels) == 0 {
		return nil, ErrEmpty
	}

	n := len(labels)
	data := make([]float64, f.FeatureDim*n)
	for j := 0; j < n; j++ {
		rec := pixels[j*f.FeatureDim : (j+1)*f.FeatureDim]
		for i, p := range rec {
			data[i*n+j] = float64(p) / 255
		}
	}
	return &Split{
		X:      mat.NewDense(f.FeatureDim, n, data),
		Y:      OneHot(labels, f.NumClasses),
		Labels: labels,
	}, nil
}
