package zipfile

import (
	"context"
	"fmt"
	"os"

	"github.com/ellraiser/love-zip/pkg/platform"
)

// fakeOS records symlink and chmod calls instead of touching the host.
type fakeOS struct {
	id          platform.ID
	symlinks    [][2]string // target, link in call order
	execs       []string
	linkTargets map[string]string // path -> readlink result
	symlinkErr  error
}

func (f *fakeOS) Symlink(target, link string) error {
	if f.symlinkErr != nil {
		return f.symlinkErr
	}
	f.symlinks = append(f.symlinks, [2]string{target, link})
	return nil
}

func (f *fakeOS) Readlink(path string) (string, error) {
	target, ok := f.linkTargets[path]
	if !ok {
		return "", fmt.Errorf("readlink %s: %w", path, os.ErrNotExist)
	}
	return target, nil
}

func (f *fakeOS) SetExecutable(path string) error {
	f.execs = append(f.execs, path)
	return nil
}

func (f *fakeOS) Platform() platform.ID {
	return f.id
}

// fakeStore serves ranged reads out of an in-memory archive.
type fakeStore struct {
	objects    map[string][]byte // "bucket/key" -> bytes
	rangeCalls int
	fullCalls  int
}

func (f *fakeStore) object(bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("no such object s3://%s/%s", bucket, key)
	}
	return data, nil
}

func (f *fakeStore) ObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	data, err := f.object(bucket, key)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (f *fakeStore) GetObjectRange(ctx context.Context, bucket, key string, start, end int64) ([]byte, error) {
	data, err := f.object(bucket, key)
	if err != nil {
		return nil, err
	}
	if start < 0 || end > int64(len(data)) || start > end {
		return nil, fmt.Errorf("bad range %d-%d for s3://%s/%s", start, end, bucket, key)
	}
	f.rangeCalls++
	return data[start:end], nil
}

func (f *fakeStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	f.fullCalls++
	return f.object(bucket, key)
}
