package zipfile

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellraiser/love-zip/pkg/zip"
)

func newSourceTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("src/sub", 0755))
	require.NoError(t, afero.WriteFile(fs, "src/a.txt", []byte("hi"), 0644))
	require.NoError(t, afero.WriteFile(fs, "src/skip.txt", []byte("nope"), 0644))
	require.NoError(t, afero.WriteFile(fs, "src/nested/deep.txt", []byte("deep"), 0644))
	return fs
}

func archiveNames(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	_, records, err := zip.ReadDirectory(data)
	require.NoError(t, err)
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	return names
}

func TestCompressTree(t *testing.T) {
	fs := newSourceTree(t)
	require.NoError(t, Compress(fs, &fakeOS{}, "src", "out.zip", nil))

	names := archiveNames(t, fs, "out.zip")
	assert.Contains(t, names, "a.txt")
	assert.Contains(t, names, "sub/", "empty directories survive")
	assert.Contains(t, names, "nested/")
	assert.Contains(t, names, "nested/deep.txt")
}

func TestCompressIgnoreList(t *testing.T) {
	fs := newSourceTree(t)
	require.NoError(t, Compress(fs, &fakeOS{}, "src", "out.zip", []string{"skip.txt"}))

	names := archiveNames(t, fs, "out.zip")
	assert.NotContains(t, names, "skip.txt")
	assert.Contains(t, names, "a.txt")
}

func TestCompressIgnoreGlob(t *testing.T) {
	fs := newSourceTree(t)
	require.NoError(t, Compress(fs, &fakeOS{}, "src", "out.zip", []string{"*.txt"}))

	names := archiveNames(t, fs, "out.zip")
	assert.NotContains(t, names, "a.txt")
	assert.NotContains(t, names, "nested/deep.txt")
	assert.Contains(t, names, "sub/")
}

func TestCompressMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := Compress(fs, &fakeOS{}, "nowhere", "out.zip", nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestArchiverAddFileExecutableHeuristic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "tool", []byte("bin"), 0644))
	require.NoError(t, afero.WriteFile(fs, "notes.txt", []byte("txt"), 0644))

	a := NewArchiver(fs, &fakeOS{})
	require.NoError(t, a.AddFile("tool", "tool"))
	require.NoError(t, a.AddFile("notes.txt", "notes.txt"))
	require.NoError(t, a.Finish("out.zip"))

	data, err := afero.ReadFile(fs, "out.zip")
	require.NoError(t, err)
	_, records, err := zip.ReadDirectory(data)
	require.NoError(t, err)

	attrs := map[string]uint32{}
	for _, rec := range records {
		attrs[rec.Name] = rec.ExternalAttrs
	}
	// A file with no extension is assumed executable; this is a
	// documented heuristic for trees without permission bits.
	assert.Equal(t, zip.AttrExecutable, attrs["tool"])
	assert.Equal(t, zip.AttrPlain, attrs["notes.txt"])
}

func TestCompressDeterministicOrder(t *testing.T) {
	// Parallel compression must not disturb append order, which fixes
	// the offsets in the emitted stream.
	fs := newSourceTree(t)
	require.NoError(t, Compress(fs, &fakeOS{}, "src", "one.zip", []string{"skip.txt"}, WithWorkers(8)))
	require.NoError(t, Compress(fs, &fakeOS{}, "src", "two.zip", []string{"skip.txt"}, WithWorkers(1)))

	assert.Equal(t, archiveNames(t, fs, "one.zip"), archiveNames(t, fs, "two.zip"))
}
