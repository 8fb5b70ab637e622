package zip

import (
	"strings"
)

// Unix file type constants (for st_mode, stored in the high 16 bits of
// the external attributes field).
const (
	unixModeTypeMask = 0170000 // S_IFMT - mask for file type
	unixModeRegular  = 0100000 // S_IFREG - regular file
	unixModeDir      = 0040000 // S_IFDIR - directory
	unixModeSymlink  = 0120000 // S_IFLNK - symbolic link

	unixModeOwnerExec = 0100 // any of the exec bits marks the entry executable
)

// External attribute encodings for the closed set of entry kinds this
// codec writes. The version-made-by high byte is 3 (Unix), so standard
// tools honour the st_mode carried in the high 16 bits.
const (
	// AttrPlain marks a regular, non-executable file.
	AttrPlain uint32 = 0
	// AttrExecutable marks a regular file whose executable bit should be
	// restored on extraction (POSIX-like targets only): 0100755 << 16.
	AttrExecutable uint32 = (unixModeRegular | 0755) << 16
	// AttrSymlink marks a symbolic link whose payload is the stored
	// target path: 0120777 << 16.
	AttrSymlink uint32 = (unixModeSymlink | 0777) << 16
	// AttrDirectory marks a directory entry: 040755 << 16.
	AttrDirectory uint32 = (unixModeDir | 0755) << 16
)

// externalAttributes encodes the entry's kind into the 4-byte external
// attributes field of its central directory record.
func externalAttributes(e *Entry) uint32 {
	switch {
	case e.Kind == KindSymlink:
		return AttrSymlink
	case e.Kind == KindDirectory:
		return AttrDirectory
	case e.Executable:
		return AttrExecutable
	default:
		return AttrPlain
	}
}

// classifyAttributes decodes an external attributes value (plus the
// name, whose trailing slash is the directory marker) back into an
// entry kind. Foreign archives are classified liberally: any symlink
// type bits mean symlink, any owner exec bit means executable. Archives
// written by this codec round-trip exactly.
func classifyAttributes(attrs uint32, name string) (Kind, bool) {
	if strings.HasSuffix(name, "/") {
		return KindDirectory, false
	}
	mode := attrs >> 16
	switch mode & unixModeTypeMask {
	case unixModeSymlink:
		return KindSymlink, false
	case unixModeDir:
		return KindDirectory, false
	}
	return KindFile, mode&unixModeOwnerExec != 0
}
