package zipfile

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/ellraiser/love-zip/pkg/platform"
	"github.com/ellraiser/love-zip/pkg/zip"
)

// Archiver feeds a directory tree into a write-side zip.Archive. The
// traversal, symlink resolution and ignore filtering live here; the
// byte format lives in pkg/zip.
type Archiver struct {
	fs      afero.Fs
	os      platform.OS
	archive *zip.Archive
	level   int
	workers int
}

// ArchiverOption configures an Archiver.
type ArchiverOption func(*Archiver)

// WithLevel sets the DEFLATE compression level.
func WithLevel(level int) ArchiverOption {
	return func(a *Archiver) {
		a.level = level
	}
}

// WithWorkers sets the number of goroutines compressing entries.
// Values < 1 force serial compression.
func WithWorkers(n int) ArchiverOption {
	return func(a *Archiver) {
		if n < 1 {
			n = 1
		}
		a.workers = n
	}
}

// NewArchiver returns an Archiver writing through fs and resolving
// symlinks through osys.
func NewArchiver(fs afero.Fs, osys platform.OS, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		fs:      fs,
		os:      osys,
		archive: zip.NewArchive(),
		level:   flate.DefaultCompression,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// pending is a classified tree node waiting to be compressed and
// appended. Collecting first keeps append order deterministic while
// compression runs in parallel.
type pending struct {
	kind    zip.Kind
	name    string // archive path, "/"-separated
	srcPath string // filesystem path, files only
	target  string // symlinks only
	exec    bool
}

// AddFile archives a single file under the given archive name.
func (a *Archiver) AddFile(srcPath, name string) error {
	info, err := a.fs.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceNotFound, srcPath, err)
	}
	data, err := afero.ReadFile(a.fs, srcPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceNotFound, srcPath, err)
	}
	log.Debugf("adding file %s as %s (%d bytes)", srcPath, name, len(data))
	return a.archive.AddFile(name, data, info.ModTime(), looksExecutable(name), a.level)
}

// AddFolder walks the tree rooted at root and appends every child not
// matched by the ignore patterns. Directory entries are created even
// when nothing exists beneath them, so empty directories survive the
// round trip.
func (a *Archiver) AddFolder(root string, ignore []string) error {
	info, err := a.fs.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceNotFound, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("zipfile: %s is not a directory", root)
	}

	var nodes []*pending
	if err := a.walk(root, "", ignore, &nodes); err != nil {
		return err
	}

	// Compress file payloads in parallel, then append in walk order so
	// offsets stay deterministic.
	entries := make([]*zip.Entry, len(nodes))
	g := new(errgroup.Group)
	g.SetLimit(a.workers)
	for i, node := range nodes {
		i, node := i, node
		switch node.kind {
		case zip.KindFile:
			g.Go(func() error {
				data, err := afero.ReadFile(a.fs, node.srcPath)
				if err != nil {
					return fmt.Errorf("%w: %s: %v", ErrSourceNotFound, node.srcPath, err)
				}
				info, err := a.fs.Stat(node.srcPath)
				if err != nil {
					return fmt.Errorf("%w: %s: %v", ErrSourceNotFound, node.srcPath, err)
				}
				entry, err := zip.PrepareFile(node.name, data, info.ModTime(), node.exec, a.level)
				if err != nil {
					return err
				}
				entries[i] = entry
				return nil
			})
		case zip.KindDirectory:
			entry, err := zip.PrepareDirectory(node.name, nowFn())
			if err != nil {
				return err
			}
			entries[i] = entry
		case zip.KindSymlink:
			entry, err := zip.PrepareSymlink(node.name, node.target, nowFn())
			if err != nil {
				return err
			}
			entries[i] = entry
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, entry := range entries {
		log.Debugf("appending %s %s", entry.Kind, entry.Name)
		if err := a.archive.Append(entry); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archiver) walk(dir, prefix string, ignore []string, nodes *[]*pending) error {
	infos, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return fmt.Errorf("zipfile: listing %s: %w", dir, err)
	}
	for _, info := range infos {
		name := info.Name()
		rel := prefix + name
		if ignored(name, rel, ignore) {
			log.Debugf("ignoring %s", rel)
			continue
		}
		full := filepath.Join(dir, name)
		if lstater, ok := a.fs.(afero.Lstater); ok {
			if li, lok, err := lstater.LstatIfPossible(full); err == nil && lok {
				info = li
			}
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := a.resolveLink(full)
			if err != nil {
				return err
			}
			*nodes = append(*nodes, &pending{kind: zip.KindSymlink, name: rel, target: target})
		case info.IsDir():
			*nodes = append(*nodes, &pending{kind: zip.KindDirectory, name: rel + "/"})
			if err := a.walk(full, rel+"/", ignore, nodes); err != nil {
				return err
			}
		default:
			*nodes = append(*nodes, &pending{
				kind:    zip.KindFile,
				name:    rel,
				srcPath: full,
				exec:    looksExecutable(name),
			})
		}
	}
	return nil
}

// resolveLink reads a symlink's target and normalizes it to a
// link-relative, slash-separated path. Trailing newlines are stripped
// defensively; readlink output has been seen to carry them.
func (a *Archiver) resolveLink(linkPath string) (string, error) {
	target, err := a.os.Readlink(linkPath)
	if err != nil {
		return "", fmt.Errorf("zipfile: resolving symlink %s: %w", linkPath, err)
	}
	target = strings.TrimRight(target, "\n")
	if filepath.IsAbs(target) {
		if rel, err := filepath.Rel(filepath.Dir(linkPath), target); err == nil {
			target = rel
		}
	}
	return filepath.ToSlash(target), nil
}

// Finish serializes the archive and writes it to outPath. The Archiver
// must not be reused afterwards.
func (a *Archiver) Finish(outPath string) error {
	data, err := a.archive.Finish()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := a.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("zipfile: writing %s: %w", outPath, err)
		}
	}
	if err := afero.WriteFile(a.fs, outPath, data, 0644); err != nil {
		return fmt.Errorf("zipfile: writing %s: %w", outPath, err)
	}
	log.Debugf("wrote %s (%d bytes, %d entries)", outPath, len(data), len(a.archive.Entries()))
	return nil
}

// ignored reports whether an ignore pattern matches the base name or
// the archive-relative path.
func ignored(base, rel string, ignore []string) bool {
	for _, pattern := range ignore {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// looksExecutable flags files with no extension as executable. This is
// an intentional heuristic for trees coming from platforms that do not
// expose permission bits, not a guarantee.
func looksExecutable(name string) bool {
	return path.Ext(path.Base(name)) == ""
}
