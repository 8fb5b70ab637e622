package zip

import (
	"strings"
	"time"
)

// Kind classifies an archive member.
type Kind int

const (
	// KindFile is a regular file; payload is DEFLATE compressed.
	KindFile Kind = iota
	// KindDirectory is a directory marker; name ends with "/", no payload.
	KindDirectory
	// KindSymlink is a symbolic link; payload is the target path, stored
	// verbatim and never compressed.
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is one archive member, shared by the read and write paths.
type Entry struct {
	// Name is the slash-separated archive path. Directory entries end
	// with "/". Never empty.
	Name string

	Kind       Kind
	Executable bool

	// Method is the compression method used for the payload.
	Method uint16

	// Raw is the uncompressed payload. For symlinks it holds the link
	// target path.
	Raw []byte

	// Compressed is the payload as written to the archive. Identical to
	// Raw for stored entries.
	Compressed []byte

	// CRC32 is the checksum of Raw. The local header and the central
	// directory record both carry this value and must agree.
	CRC32 uint32

	DosDate uint16
	DosTime uint16

	// HeaderOffset is the byte offset of this entry's local header from
	// the start of the archive. Assigned by Archive.Append.
	HeaderOffset uint32
}

// ModTime returns the entry's modification time decoded from the packed
// DOS fields.
func (e *Entry) ModTime() time.Time {
	return DosTime(e.DosDate, e.DosTime)
}

// LinkTarget returns the symlink target path, or "" for other kinds.
func (e *Entry) LinkTarget() string {
	if e.Kind != KindSymlink {
		return ""
	}
	return string(e.Raw)
}

// IsDir reports whether the entry is a directory marker.
func (e *Entry) IsDir() bool {
	return e.Kind == KindDirectory || strings.HasSuffix(e.Name, "/")
}

// localSize is the number of bytes the entry occupies in the local
// section: header, name, payload and the trailing data descriptor.
func (e *Entry) localSize() int {
	return fileHeaderLen + len(e.Name) + len(e.Compressed) + dataDescriptorLen
}
