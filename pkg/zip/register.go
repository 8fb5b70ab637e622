package zip

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// A Compressor turns an uncompressed payload into the bytes written to
// the archive. level follows flate semantics and is ignored by methods
// that do not compress.
type Compressor func(data []byte, level int) ([]byte, error)

// A Decompressor recovers the original payload from archive bytes.
type Decompressor func(data []byte) ([]byte, error)

var (
	compressorsMu sync.RWMutex
	compressors   = map[uint16]Compressor{
		Store:   storeBytes,
		Deflate: deflateBytes,
	}
	decompressors = map[uint16]Decompressor{
		Store:   storedBytes,
		Deflate: inflateBytes,
	}
)

// RegisterCompressor registers or overrides the compressor for a
// specific method ID.
func RegisterCompressor(method uint16, comp Compressor) {
	compressorsMu.Lock()
	defer compressorsMu.Unlock()
	compressors[method] = comp
}

// RegisterDecompressor registers or overrides the decompressor for a
// specific method ID.
func RegisterDecompressor(method uint16, dcomp Decompressor) {
	compressorsMu.Lock()
	defer compressorsMu.Unlock()
	decompressors[method] = dcomp
}

func compressor(method uint16) Compressor {
	compressorsMu.RLock()
	defer compressorsMu.RUnlock()
	return compressors[method]
}

func decompressor(method uint16) Decompressor {
	compressorsMu.RLock()
	defer compressorsMu.RUnlock()
	return decompressors[method]
}

func storeBytes(data []byte, _ int) ([]byte, error) {
	return data, nil
}

func storedBytes(data []byte) ([]byte, error) {
	return data, nil
}

func deflateBytes(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zip: creating deflate writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zip: deflating payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zip: flushing deflate writer: %w", err)
	}
	return buf.Bytes(), nil
}

func inflateBytes(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zip: inflating payload: %w", err)
	}
	return out, nil
}
