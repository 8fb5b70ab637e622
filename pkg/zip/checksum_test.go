package zip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum32(t *testing.T) {
	tests := []struct {
		name string
		data string
		want uint32
	}{
		{name: "empty", data: "", want: 0},
		{name: "check vector", data: "123456789", want: 0xCBF43926},
		{name: "short payload", data: "hi", want: 0xD8932AAC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum32([]byte(tt.data)))
		})
	}
}

func TestChecksumStreaming(t *testing.T) {
	// Split updates must match the one-shot result.
	c := NewChecksum()
	c.Update([]byte("12345"))
	c.Update([]byte("6789"))
	assert.Equal(t, uint32(0xCBF43926), c.Sum32())
}
