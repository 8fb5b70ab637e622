// Package zip implements the single-disk subset of the ZIP container
// format used for save-data and game-asset packaging: reading an
// archive's central directory and payloads, and building a new
// spec-compliant archive byte stream from logical entries.
//
// The package is pure: it never touches the filesystem, the network or
// a logger. Callers feed it byte slices and get byte slices back.
package zip

import (
	"errors"
)

var (
	// ErrFormat indicates the archive does not conform to the zip specification
	ErrFormat = errors.New("zip: unable to locate end of central directory")
	// ErrCommentLength indicates an invalid comment length
	ErrCommentLength = errors.New("zip: invalid comment length")
	// ErrAlgorithm indicates an invalid/unsupported compression algorithm
	ErrAlgorithm = errors.New("zip: unsupported compression algorithm")
	// ErrTooLarge indicates an entry exceeding the 4GB limit (zip64 is unsupported)
	ErrTooLarge = errors.New("zip: entry exceeds 4GB limit")
	// ErrFinished indicates use of an archive after Finish
	ErrFinished = errors.New("zip: archive already finished")
)

const (
	directoryEndLen    = 22
	directoryHeaderLen = 46
	fileHeaderLen      = 30 // + filename + extra
	dataDescriptorLen  = 16

	dataDescriptorSignature  = 0x08074b50
	directoryEndSignature    = 0x06054b50
	directoryHeaderSignature = 0x02014b50
	fileHeaderSignature      = 0x04034b50

	zipVersion     = 20     // 2.0 - minimum for DEFLATE
	zipVersionUnix = 0x0314 // Unix, version 2.0

	flagDataDescriptor = 0x0008 // bit 3: sizes/CRC follow the payload
)

// Compression methods.
const (
	Store   uint16 = 0 // no compression
	Deflate uint16 = 8 // DEFLATE compressed
)

// CentralRecord is the parsed view of one central directory record.
// It carries just enough to locate and classify the entry's payload;
// it is discarded once the Entry has been reconstructed.
type CentralRecord struct {
	// Name is the path recorded in the central directory. The copy in
	// the local file header is authoritative when payloads are read.
	Name string

	Flags            uint16
	Method           uint16
	DosTime          uint16
	DosDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	ExternalAttrs    uint32
	HeaderOffset     uint32
	Extra            []byte
}

// DirectoryEnd describes an EOCD record
type DirectoryEnd struct {
	DirectoryRecords   uint64
	DirectorySize      uint64
	DirectoryOffset    uint64 // relative to the start of the archive
	DirectoryEndOffset uint64
	commentLen         uint16
}
