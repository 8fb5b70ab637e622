// Package zipfile orchestrates the zip codec over its collaborators:
// an afero filesystem, the platform OS facilities, and S3 for remote
// archives. It owns tree traversal on the write side and two-pass
// materialization on the read side.
package zipfile

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/ellraiser/love-zip/pkg/platform"
)

var (
	// ErrSourceNotFound indicates the source directory or archive could not be read
	ErrSourceNotFound = errors.New("zipfile: source not found")
)

const defaultWorkers = 4

// nowFn stamps directory and symlink entries, which have no source
// timestamp. Swapped in tests for determinism.
var nowFn = time.Now

// Compress archives the tree rooted at src into a zip written to out,
// omitting entries matched by the ignore patterns.
func Compress(fs afero.Fs, osys platform.OS, src, out string, ignore []string, opts ...ArchiverOption) error {
	a := NewArchiver(fs, osys, opts...)
	if err := a.AddFolder(src, ignore); err != nil {
		return err
	}
	return a.Finish(out)
}

// Decompress extracts the archive at archivePath into dest, applying
// the remap pairs to entry paths. Per-entry failures are collected in
// the report; structural failures abort.
func Decompress(fs afero.Fs, osys platform.OS, archivePath, dest string, remaps []Remap, opts ...ExtractorOption) (*Report, error) {
	data, err := afero.ReadFile(fs, archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, archivePath, err)
	}
	opts = append(opts, WithRemaps(remaps))
	x := NewExtractor(fs, osys, opts...)
	return x.Extract(data, dest)
}
