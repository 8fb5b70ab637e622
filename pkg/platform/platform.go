// Package platform abstracts the OS facilities the archiver needs:
// symlink creation and resolution, and the executable permission bit.
// The native implementation uses system calls directly; tests swap in
// a recorder.
package platform

import (
	"os"
	"runtime"
)

// ID identifies the host platform family.
type ID int

const (
	// POSIX covers Linux, macOS and the BSDs.
	POSIX ID = iota
	// Windows has no executable bit and restricted symlink support.
	Windows
)

// OS is the operating-system collaborator consumed by the archiver and
// extractor.
type OS interface {
	// Symlink creates a symbolic link at link pointing to target.
	Symlink(target, link string) error
	// Readlink returns the target of the symbolic link at path.
	Readlink(path string) (string, error)
	// SetExecutable sets the executable permission bits on path.
	// A no-op on platforms without permission bits.
	SetExecutable(path string) error
	// Platform reports the host platform family.
	Platform() ID
}

// Native implements OS with direct system calls.
type Native struct{}

func (Native) Symlink(target, link string) error {
	return os.Symlink(target, link)
}

func (Native) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

func (Native) SetExecutable(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()|0111)
}

func (Native) Platform() ID {
	if runtime.GOOS == "windows" {
		return Windows
	}
	return POSIX
}
