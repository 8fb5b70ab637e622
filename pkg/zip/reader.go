package zip

import (
	"encoding/binary"
	"fmt"
)

// FindDirectoryEnd locates the end-of-central-directory record by
// scanning backward through block, which must hold the final bytes of
// an archive totalSize bytes long (pass the whole archive when it is in
// memory; remote callers fetch only a tail window). The backward scan
// means signature bytes inside compressed payloads are never mistaken
// for the record table.
func FindDirectoryEnd(block []byte, totalSize int64) (*DirectoryEnd, error) {
	p := findEOCDSignatureInBlock(block)
	if p < 0 {
		return nil, ErrFormat
	}
	endOffset := totalSize - int64(len(block)) + int64(p)

	b := readBuf(block[p+10:]) // skip signature and the disk-number fields
	d := &DirectoryEnd{
		DirectoryRecords:   uint64(b.uint16()),
		DirectorySize:      uint64(b.uint32()),
		DirectoryOffset:    uint64(b.uint32()),
		DirectoryEndOffset: uint64(endOffset),
		commentLen:         b.uint16(),
	}
	if int(d.commentLen) > len(b) {
		return nil, ErrCommentLength
	}

	// Make sure the directory actually sits inside the archive.
	if o := int64(d.DirectoryOffset); o < 0 || o+int64(d.DirectorySize) > endOffset {
		return nil, ErrFormat
	}
	return d, nil
}

func findEOCDSignatureInBlock(b []byte) int {
	for i := len(b) - directoryEndLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(b[i:i+4]) == directoryEndSignature {
			commentLength := int(b[i+directoryEndLen-2]) | int(b[i+directoryEndLen-1])<<8
			if commentLength+directoryEndLen+i <= len(b) {
				return i
			}
		}
	}
	return -1
}

// ReadDirectory parses a complete in-memory archive: it locates the
// EOCD record and walks the central directory it declares.
func ReadDirectory(data []byte) (*DirectoryEnd, []*CentralRecord, error) {
	dir, err := FindDirectoryEnd(data, int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	records, err := ParseDirectoryRecords(data[dir.DirectoryOffset : dir.DirectoryOffset+dir.DirectorySize])
	if err != nil {
		return nil, nil, err
	}
	// The record count in the EOCD is truncated to a uint16, so only
	// compare modulo 65536.
	if uint64(len(records))%65536 != dir.DirectoryRecords%65536 {
		return nil, nil, ErrFormat
	}
	return dir, records, nil
}

// ParseDirectoryRecords splits a central directory slice into its
// individual records, walking by the declared name/extra/comment
// lengths and verifying each record signature.
func ParseDirectoryRecords(cd []byte) ([]*CentralRecord, error) {
	var records []*CentralRecord
	b := readBuf(cd)
	for len(b) > 0 {
		if len(b) < directoryHeaderLen {
			return nil, ErrFormat
		}
		if sig := b.uint32(); sig != directoryHeaderSignature {
			return nil, ErrFormat
		}
		rec := &CentralRecord{}
		rec.Flags = b.skip(4).uint16()
		rec.Method = b.uint16()
		rec.DosTime = b.uint16()
		rec.DosDate = b.uint16()
		rec.CRC32 = b.uint32()
		rec.CompressedSize = b.uint32()
		rec.UncompressedSize = b.uint32()
		nameLen := int(b.uint16())
		extraLen := int(b.uint16())
		commentLen := int(b.uint16())
		rec.ExternalAttrs = b.skip(4).uint32()
		rec.HeaderOffset = b.uint32()

		if len(b) < nameLen+extraLen+commentLen {
			return nil, ErrFormat
		}
		rec.Name = string(b.sub(nameLen))
		rec.Extra = b.sub(extraLen)
		b.skip(commentLen)
		records = append(records, rec)
	}
	return records, nil
}

// ReadEntry resolves one central directory record against the archive
// bytes: it re-reads the local header for the authoritative name,
// slices exactly CompressedSize payload bytes and decompresses them.
// A payload that fails to inflate is kept as stored data rather than
// treated as an error.
func ReadEntry(data []byte, rec *CentralRecord) (*Entry, error) {
	off := int64(rec.HeaderOffset)
	if off+fileHeaderLen > int64(len(data)) {
		return nil, ErrFormat
	}
	b := readBuf(data[off:])
	if sig := b.uint32(); sig != fileHeaderSignature {
		return nil, ErrFormat
	}
	b.skip(22) // the central record already carries these fields
	nameLen := int(b.uint16())
	extraLen := int(b.uint16())

	bodyOffset := off + fileHeaderLen + int64(nameLen) + int64(extraLen)
	if bodyOffset+int64(rec.CompressedSize) > int64(len(data)) {
		return nil, fmt.Errorf("zip: payload for %q out of bounds: %w", rec.Name, ErrFormat)
	}
	name := string(data[off+fileHeaderLen : off+fileHeaderLen+int64(nameLen)])
	payload := data[bodyOffset : bodyOffset+int64(rec.CompressedSize)]

	dcomp := decompressor(rec.Method)
	if dcomp == nil {
		return nil, fmt.Errorf("zip: method %d for %q: %w", rec.Method, name, ErrAlgorithm)
	}
	raw, err := dcomp(payload)
	if err != nil {
		// Some writers record method 8 for payloads they stored raw.
		// Treat an inflate failure as stored data instead of failing.
		raw = payload
	}

	kind, executable := classifyAttributes(rec.ExternalAttrs, name)
	return &Entry{
		Name:         name,
		Kind:         kind,
		Executable:   executable,
		Method:       rec.Method,
		Raw:          raw,
		Compressed:   payload,
		CRC32:        rec.CRC32,
		DosDate:      rec.DosDate,
		DosTime:      rec.DosTime,
		HeaderOffset: rec.HeaderOffset,
	}, nil
}

type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) sub(n int) readBuf {
	b2 := (*b)[:n]
	*b = (*b)[n:]
	return b2
}

func (b *readBuf) skip(n int) *readBuf {
	*b = (*b)[n:]
	return b
}
