package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var batchName = regexp.MustCompile(`^(?:data_batch_([1-9][0-9]*)|test_batch)\.bin$`)

// BatchFile is one CIFAR-10 binary batch found in a data directory.
type BatchFile struct {
	Name string
	Path string
	// Index is the data batch number, 0 for the test batch.
	Index int
}

// IsTest reports whether f is the held-out test batch.
func (f BatchFile) IsTest() bool { return f.Index == 0 }

// DiscoverBatches lists the batch files directly inside dir, data batches in
// numeric order followed by the test batch. Metadata and other files are
// skipped.
func DiscoverBatches(dir string) ([]BatchFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("discover batches: %w", err)
	}
	files := make([]BatchFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := batchName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		f := BatchFile{Name: e.Name(), Path: filepath.Join(dir, e.Name())}
		if m[1] != "" {
			if f.Index, err = strconv.Atoi(m[1]); err != nil {
				continue
			}
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.IsTest() != b.IsTest() {
			return b.IsTest()
		}
		return a.Index < b.Index
	})
	return files, nil
}

// ResolveBatch picks the discovered file called name.
func ResolveBatch(files []BatchFile, name string) (BatchFile, error) {
	for _, f := range files {
		if f.Name == name {
			return f, nil
		}
	}
	return BatchFile{}, fmt.Errorf("batch %s not found among %d discovered files", name, len(files))
}
