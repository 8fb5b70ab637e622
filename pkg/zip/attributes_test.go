package zip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExternalAttributesRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		entry    *Entry
		wantKind Kind
		wantExec bool
	}{
		{name: "plain file", entry: &Entry{Name: "a.txt", Kind: KindFile}, wantKind: KindFile},
		{name: "executable file", entry: &Entry{Name: "run", Kind: KindFile, Executable: true}, wantKind: KindFile, wantExec: true},
		{name: "symlink", entry: &Entry{Name: "link", Kind: KindSymlink}, wantKind: KindSymlink},
		{name: "directory", entry: &Entry{Name: "sub/", Kind: KindDirectory}, wantKind: KindDirectory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, exec := classifyAttributes(externalAttributes(tt.entry), tt.entry.Name)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantExec, exec)
		})
	}
}

func TestExternalAttributesSentinels(t *testing.T) {
	// The encodings are part of the wire contract; both sides of a
	// round trip must agree on them exactly.
	assert.Equal(t, uint32(0), AttrPlain)
	assert.Equal(t, uint32(0x81ED0000), AttrExecutable)
	assert.Equal(t, uint32(0xA1FF0000), AttrSymlink)
}

func TestClassifyForeignArchive(t *testing.T) {
	// Any owner exec bit marks a file executable, even when the mode is
	// not the sentinel this codec writes.
	kind, exec := classifyAttributes((unixModeRegular|0744)<<16, "tool")
	assert.Equal(t, KindFile, kind)
	assert.True(t, exec)

	// Symlink type bits win regardless of permissions.
	kind, _ = classifyAttributes((unixModeSymlink|0644)<<16, "link")
	assert.Equal(t, KindSymlink, kind)

	// A trailing slash is a directory marker even with no mode bits.
	kind, _ = classifyAttributes(0, "sub/")
	assert.Equal(t, KindDirectory, kind)
}
