package zip

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildForeignArchive hand-assembles a single-entry archive the way
// other writers produce them: no data descriptor, an extra field in the
// local header, and a remapped name in the central directory.
func buildForeignArchive(t *testing.T, method uint16, payload []byte, rawSize uint32) []byte {
	t.Helper()
	name := "a.txt"
	extra := []byte{0x55, 0x54, 0x00, 0x00} // foreign extra field, empty body

	local := make([]byte, fileHeaderLen)
	binary.LittleEndian.PutUint32(local[0:], fileHeaderSignature)
	binary.LittleEndian.PutUint16(local[4:], zipVersion)
	binary.LittleEndian.PutUint16(local[8:], method)
	binary.LittleEndian.PutUint32(local[14:], Checksum32(payload))
	binary.LittleEndian.PutUint32(local[18:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(local[22:], rawSize)
	binary.LittleEndian.PutUint16(local[26:], uint16(len(name)))
	binary.LittleEndian.PutUint16(local[28:], uint16(len(extra)))

	var data []byte
	data = append(data, local...)
	data = append(data, name...)
	data = append(data, extra...)
	data = append(data, payload...)

	cdOffset := len(data)
	central := make([]byte, directoryHeaderLen)
	binary.LittleEndian.PutUint32(central[0:], directoryHeaderSignature)
	binary.LittleEndian.PutUint16(central[4:], zipVersionUnix)
	binary.LittleEndian.PutUint16(central[6:], zipVersion)
	binary.LittleEndian.PutUint16(central[10:], method)
	binary.LittleEndian.PutUint32(central[16:], Checksum32(payload))
	binary.LittleEndian.PutUint32(central[20:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(central[24:], rawSize)
	// The central directory carries a stale name; the local header copy
	// is authoritative.
	staleName := "b.txt"
	binary.LittleEndian.PutUint16(central[28:], uint16(len(staleName)))
	data = append(data, central...)
	data = append(data, staleName...)

	end := make([]byte, directoryEndLen)
	binary.LittleEndian.PutUint32(end[0:], directoryEndSignature)
	binary.LittleEndian.PutUint16(end[8:], 1)
	binary.LittleEndian.PutUint16(end[10:], 1)
	binary.LittleEndian.PutUint32(end[12:], uint32(len(data)-cdOffset))
	binary.LittleEndian.PutUint32(end[16:], uint32(cdOffset))
	return append(data, end...)
}

func TestReadEntryForeignExtraField(t *testing.T) {
	// The payload starts after the local header's name and extra field,
	// both of which differ from the central directory's lengths.
	data := buildForeignArchive(t, Store, []byte("hi"), 2)

	_, records, err := ReadDirectory(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b.txt", records[0].Name)

	entry, err := ReadEntry(data, records[0])
	require.NoError(t, err)
	assert.Equal(t, "a.txt", entry.Name, "local header name is authoritative")
	assert.Equal(t, []byte("hi"), entry.Raw)
}

func TestReadEntryInflateFallsBackToStored(t *testing.T) {
	// Method claims DEFLATE but the payload is not a valid stream; the
	// slice is kept as stored data instead of failing the entry.
	junk := []byte{0x06, 0x00, 0x00, 0x00}
	data := buildForeignArchive(t, Deflate, junk, uint32(len(junk)))

	_, records, err := ReadDirectory(data)
	require.NoError(t, err)

	entry, err := ReadEntry(data, records[0])
	require.NoError(t, err)
	assert.Equal(t, junk, entry.Raw)
}

func TestReadEntryUnsupportedMethod(t *testing.T) {
	data := buildForeignArchive(t, 99, []byte("hi"), 2)
	_, records, err := ReadDirectory(data)
	require.NoError(t, err)

	_, err = ReadEntry(data, records[0])
	assert.ErrorIs(t, err, ErrAlgorithm)
}

func TestReadDirectoryMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "no signature", data: make([]byte, 1024)},
		{name: "truncated", data: []byte{0x50, 0x4b}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadDirectory(tt.data)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReadDirectoryRecordCountMismatch(t *testing.T) {
	data := buildForeignArchive(t, Store, []byte("hi"), 2)
	// Lie about the record count in the EOCD.
	binary.LittleEndian.PutUint16(data[len(data)-directoryEndLen+10:], 7)
	_, _, err := ReadDirectory(data)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestFindDirectoryEndInTailWindow(t *testing.T) {
	// Remote readers hand over only the archive tail; the declared
	// offsets must still refer to the full stream.
	a := NewArchive()
	require.NoError(t, a.AddFile("a.txt", []byte("hi"), testStamp, false, 6))
	data, err := a.Finish()
	require.NoError(t, err)

	tail := data[len(data)-directoryEndLen:]
	dir, err := FindDirectoryEnd(tail, int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)-directoryEndLen), dir.DirectoryEndOffset)
	assert.Equal(t, dir.DirectoryEndOffset, dir.DirectoryOffset+dir.DirectorySize)
}

func TestFindDirectoryEndIgnoresPayloadSignatures(t *testing.T) {
	// A payload containing the EOCD signature bytes must not fool the
	// backward scan.
	sig := make([]byte, 4)
	binary.LittleEndian.PutUint32(sig, directoryEndSignature)
	payload := append(append([]byte("before"), sig...), []byte("after")...)

	data := buildForeignArchive(t, Store, payload, uint32(len(payload)))
	_, records, err := ReadDirectory(data)
	require.NoError(t, err)

	entry, err := ReadEntry(data, records[0])
	require.NoError(t, err)
	assert.Equal(t, payload, entry.Raw)
}
