package zip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

var errEmptyName = errors.New("zip: entry name must not be empty")

// Archive accumulates entries for writing. It owns the entry list and
// the running offset cursor; Append is the only place offsets are
// assigned, so offsets always agree with the bytes Finish will emit.
//
// An Archive is single-owner and must not be used concurrently. Finish
// is terminal: the instance rejects further use afterwards.
type Archive struct {
	entries  []*Entry
	offset   uint32
	finished bool
}

// NewArchive returns an empty write-side accumulator.
func NewArchive() *Archive {
	return &Archive{}
}

// PrepareFile builds a regular-file entry: checksums data, compresses
// it through the registered DEFLATE compressor, and packs the
// modification time. It does not touch any Archive, so independent
// calls may run in parallel; Append the results in order afterwards.
func PrepareFile(name string, data []byte, modTime time.Time, executable bool, level int) (*Entry, error) {
	if name == "" {
		return nil, errEmptyName
	}
	comp := compressor(Deflate)
	if comp == nil {
		return nil, ErrAlgorithm
	}
	compressed, err := comp(data, level)
	if err != nil {
		return nil, fmt.Errorf("zip: compressing %q: %w", name, err)
	}
	date, dosTime := DosDateTime(modTime)
	return &Entry{
		Name:       name,
		Kind:       KindFile,
		Executable: executable,
		Method:     Deflate,
		Raw:        data,
		Compressed: compressed,
		CRC32:      Checksum32(data),
		DosDate:    date,
		DosTime:    dosTime,
	}, nil
}

// PrepareDirectory builds a directory-marker entry. A trailing "/" is
// appended when missing.
func PrepareDirectory(name string, modTime time.Time) (*Entry, error) {
	if name == "" {
		return nil, errEmptyName
	}
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	date, dosTime := DosDateTime(modTime)
	return &Entry{
		Name:    name,
		Kind:    KindDirectory,
		Method:  Store,
		DosDate: date,
		DosTime: dosTime,
	}, nil
}

// PrepareSymlink builds a symlink entry. The target path is the stored
// payload, verbatim and never compressed.
func PrepareSymlink(name, target string, modTime time.Time) (*Entry, error) {
	if name == "" {
		return nil, errEmptyName
	}
	raw := []byte(target)
	date, dosTime := DosDateTime(modTime)
	return &Entry{
		Name:       name,
		Kind:       KindSymlink,
		Method:     Store,
		Raw:        raw,
		Compressed: raw,
		CRC32:      Checksum32(raw),
		DosDate:    date,
		DosTime:    dosTime,
	}, nil
}

// AddFile prepares and appends a regular file.
func (a *Archive) AddFile(name string, data []byte, modTime time.Time, executable bool, level int) error {
	e, err := PrepareFile(name, data, modTime, executable, level)
	if err != nil {
		return err
	}
	return a.Append(e)
}

// AddDirectory prepares and appends a directory marker.
func (a *Archive) AddDirectory(name string, modTime time.Time) error {
	e, err := PrepareDirectory(name, modTime)
	if err != nil {
		return err
	}
	return a.Append(e)
}

// AddSymlink prepares and appends a symbolic link.
func (a *Archive) AddSymlink(name, target string, modTime time.Time) error {
	e, err := PrepareSymlink(name, target, modTime)
	if err != nil {
		return err
	}
	return a.Append(e)
}

// Append assigns the entry its local header offset and adds it to the
// archive. This is the sole mutator of the offset cursor.
func (a *Archive) Append(e *Entry) error {
	if a.finished {
		return ErrFinished
	}
	if int64(len(e.Raw)) > 0xFFFFFFFF || int64(len(e.Compressed)) > 0xFFFFFFFF {
		return ErrTooLarge
	}
	size := uint64(a.offset) + uint64(e.localSize())
	if size > 0xFFFFFFFF {
		return ErrTooLarge
	}
	e.HeaderOffset = a.offset
	a.entries = append(a.entries, e)
	a.offset = uint32(size)
	return nil
}

// Entries returns the appended entries in order.
func (a *Archive) Entries() []*Entry {
	return a.entries
}

// Finish serializes the archive: every local section in append order,
// then one central directory record per entry, then the end-of-central-
// directory record. The Archive must not be reused afterwards.
func (a *Archive) Finish() ([]byte, error) {
	if a.finished {
		return nil, ErrFinished
	}
	a.finished = true

	size := int(a.offset) + directoryEndLen
	for _, e := range a.entries {
		size += directoryHeaderLen + len(e.Name)
	}
	out := make([]byte, 0, size)

	for _, e := range a.entries {
		out = appendLocalSection(out, e)
	}
	directoryOffset := len(out)
	if uint32(directoryOffset) != a.offset {
		// Offsets are assigned from the same sizes the serializer uses,
		// so a mismatch here is a bug, not bad input.
		return nil, fmt.Errorf("zip: directory offset %d does not match cursor %d", directoryOffset, a.offset)
	}
	for _, e := range a.entries {
		out = appendDirectoryHeader(out, e)
	}
	directorySize := len(out) - directoryOffset
	out = appendDirectoryEnd(out, len(a.entries), uint32(directorySize), uint32(directoryOffset))
	return out, nil
}

// appendLocalSection serializes the local file header, the payload and
// the trailing data descriptor. The descriptor is always emitted; the
// header still carries the real CRC and sizes, which must match the
// central directory copy.
func appendLocalSection(out []byte, e *Entry) []byte {
	var hdr [fileHeaderLen]byte
	b := writeBuf(hdr[:])
	b.uint32(fileHeaderSignature)
	b.uint16(zipVersion)
	b.uint16(flagDataDescriptor)
	b.uint16(e.Method)
	b.uint16(e.DosTime)
	b.uint16(e.DosDate)
	b.uint32(e.CRC32)
	b.uint32(uint32(len(e.Compressed)))
	b.uint32(uint32(len(e.Raw)))
	b.uint16(uint16(len(e.Name)))
	b.uint16(0) // extra length
	out = append(out, hdr[:]...)
	out = append(out, e.Name...)
	out = append(out, e.Compressed...)

	var desc [dataDescriptorLen]byte
	d := writeBuf(desc[:])
	d.uint32(dataDescriptorSignature)
	d.uint32(e.CRC32)
	d.uint32(uint32(len(e.Compressed)))
	d.uint32(uint32(len(e.Raw)))
	return append(out, desc[:]...)
}

func appendDirectoryHeader(out []byte, e *Entry) []byte {
	var hdr [directoryHeaderLen]byte
	b := writeBuf(hdr[:])
	b.uint32(directoryHeaderSignature)
	b.uint16(zipVersionUnix)
	b.uint16(zipVersion)
	b.uint16(flagDataDescriptor)
	b.uint16(e.Method)
	b.uint16(e.DosTime)
	b.uint16(e.DosDate)
	b.uint32(e.CRC32)
	b.uint32(uint32(len(e.Compressed)))
	b.uint32(uint32(len(e.Raw)))
	b.uint16(uint16(len(e.Name)))
	b.uint16(0) // extra length
	b.uint16(0) // comment length
	b.uint16(0) // disk number
	b.uint16(0) // internal attributes
	b.uint32(externalAttributes(e))
	b.uint32(e.HeaderOffset)
	out = append(out, hdr[:]...)
	return append(out, e.Name...)
}

func appendDirectoryEnd(out []byte, records int, directorySize, directoryOffset uint32) []byte {
	var hdr [directoryEndLen]byte
	b := writeBuf(hdr[:])
	b.uint32(directoryEndSignature)
	b.uint16(0) // disk number
	b.uint16(0) // disk with central directory
	b.uint16(uint16(records))
	b.uint16(uint16(records))
	b.uint32(directorySize)
	b.uint32(directoryOffset)
	b.uint16(0) // comment length
	return append(out, hdr[:]...)
}

type writeBuf []byte

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}
