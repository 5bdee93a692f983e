package dataset

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadArchive decodes the named batch members of a CIFAR-10 binary
// distribution (cifar-10-binary.tar.gz) without unpacking it. Members are
// matched by base name. Plain .tar archives are accepted too.
func LoadArchive(ctx context.Context, path string, f Format, names ...string) (map[string]*Split, error) {
	if len(names) == 0 {
		return nil, errors.New("archive: no members requested")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".tgz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return readArchive(ctx, tar.NewReader(r), f, names)
}

func readArchive(ctx context.Context, tr *tar.Reader, f Format, names []string) (map[string]*Split, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	out := make(map[string]*Split, len(names))

	for len(out) < len(wanted) {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(hdr.Name)
		if !wanted[name] {
			continue
		}
		if _, dup := out[name]; dup {
			continue
		}
		split, err := ReadBatch(tr, f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", hdr.Name, err)
		}
		out[name] = split
	}

	if len(out) < len(wanted) {
		var missing []string
		for name := range wanted {
			if out[name] == nil {
				missing = append(missing, name)
			}
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("archive: missing members %s", strings.Join(missing, ", "))
	}
	return out, nil
}
