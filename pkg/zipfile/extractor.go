package zipfile

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/ellraiser/love-zip/pkg/platform"
	"github.com/ellraiser/love-zip/pkg/zip"
)

// Remap is an ordered search/replace pair applied to entry paths
// before materialization.
type Remap struct {
	From string
	To   string
}

// Report aggregates the outcome of one extraction. Per-entry failures
// land in Warnings and never abort the remaining entries.
type Report struct {
	Extracted int
	Warnings  []string
}

func (r *Report) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Warn(msg)
	r.Warnings = append(r.Warnings, msg)
}

// Extractor materializes archive entries onto a filesystem.
type Extractor struct {
	fs      afero.Fs
	os      platform.OS
	remaps  []Remap
	filters []string
	workers int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithRemaps sets the ordered path search/replace pairs.
func WithRemaps(remaps []Remap) ExtractorOption {
	return func(x *Extractor) {
		x.remaps = remaps
	}
}

// WithFilters restricts extraction to entries whose archive path
// contains one of the given search terms.
func WithFilters(filters []string) ExtractorOption {
	return func(x *Extractor) {
		x.filters = filters
	}
}

// WithInflateWorkers sets the number of goroutines decompressing
// entries. Values < 1 force serial inflation.
func WithInflateWorkers(n int) ExtractorOption {
	return func(x *Extractor) {
		if n < 1 {
			n = 1
		}
		x.workers = n
	}
}

// NewExtractor returns an Extractor writing through fs and creating
// symlinks and permission bits through osys.
func NewExtractor(fs afero.Fs, osys platform.OS, opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		fs:      fs,
		os:      osys,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract parses the archive bytes and materializes every entry under
// dest. Non-symlink entries are written first, in archive order;
// symlinks follow in a second pass ordered by ascending target length,
// a best-effort heuristic that creates shallower links before links
// that point at them.
func (x *Extractor) Extract(data []byte, dest string) (*Report, error) {
	_, records, err := zip.ReadDirectory(data)
	if err != nil {
		return nil, err
	}
	records = x.filtered(records)

	// Inflate payloads in parallel; materialization stays sequential.
	entries := make([]*zip.Entry, len(records))
	g := new(errgroup.Group)
	g.SetLimit(x.workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			entry, err := zip.ReadEntry(data, rec)
			if err != nil {
				return err
			}
			entry.Name = x.remapped(entry.Name)
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	var symlinks []*zip.Entry
	for _, entry := range entries {
		if entry.Kind == zip.KindSymlink {
			symlinks = append(symlinks, entry)
			continue
		}
		x.materialize(entry, dest, report)
	}

	// Second pass, only once every target can exist. Shorter targets
	// tend to be shallower, so create those links first.
	sort.SliceStable(symlinks, func(i, j int) bool {
		return len(symlinks[i].Raw) < len(symlinks[j].Raw)
	})
	for _, entry := range symlinks {
		linkPath, ok := x.securePath(dest, entry.Name)
		if !ok {
			report.warnf("skipping symlink %s: escapes destination", entry.Name)
			continue
		}
		if err := x.fs.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
			report.warnf("creating parent for symlink %s: %v", entry.Name, err)
			continue
		}
		if err := x.os.Symlink(entry.LinkTarget(), linkPath); err != nil {
			report.warnf("creating symlink %s -> %s: %v", entry.Name, entry.LinkTarget(), err)
			continue
		}
		report.Extracted++
	}
	return report, nil
}

// materialize writes one non-symlink entry. Failures are warnings, not
// errors; remaining entries still get their chance.
func (x *Extractor) materialize(entry *zip.Entry, dest string, report *Report) {
	target, ok := x.securePath(dest, entry.Name)
	if !ok {
		report.warnf("skipping %s: escapes destination", entry.Name)
		return
	}
	if entry.IsDir() {
		if err := x.fs.MkdirAll(target, 0755); err != nil {
			report.warnf("creating directory %s: %v", entry.Name, err)
			return
		}
		report.Extracted++
		return
	}
	// Some writers omit directory entries entirely, so parents are
	// created implicitly for every file.
	if err := x.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		report.warnf("creating parent for %s: %v", entry.Name, err)
		return
	}
	if err := afero.WriteFile(x.fs, target, entry.Raw, 0644); err != nil {
		report.warnf("writing %s: %v", entry.Name, err)
		return
	}
	if entry.Executable && x.os.Platform() != platform.Windows {
		if err := x.os.SetExecutable(target); err != nil {
			report.warnf("setting executable bit on %s: %v", entry.Name, err)
		}
	}
	log.Debugf("extracted %s %s (%d bytes)", entry.Kind, entry.Name, len(entry.Raw))
	report.Extracted++
}

// securePath joins an archive path onto dest and rejects results that
// escape it.
func (x *Extractor) securePath(dest, name string) (string, bool) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

func (x *Extractor) filtered(records []*zip.CentralRecord) []*zip.CentralRecord {
	if len(x.filters) == 0 {
		return records
	}
	var kept []*zip.CentralRecord
	for _, rec := range records {
		for _, term := range x.filters {
			if strings.Contains(rec.Name, term) {
				kept = append(kept, rec)
				break
			}
		}
	}
	return kept
}

func (x *Extractor) remapped(name string) string {
	for _, r := range x.remaps {
		name = strings.ReplaceAll(name, r.From, r.To)
	}
	return name
}
