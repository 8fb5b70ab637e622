package zipfile

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ellraiser/love-zip/pkg/aws"
	"github.com/ellraiser/love-zip/pkg/zip"
)

// objectStore is the slice of the S3 surface remote archives need;
// *aws.Client satisfies it and tests fake it.
type objectStore interface {
	ObjectSize(ctx context.Context, bucket, key string) (int64, error)
	GetObjectRange(ctx context.Context, bucket, key string, start, end int64) ([]byte, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// RemoteArchive reads a zip archive stored in S3. Listing needs only
// the directory records and is served with ranged reads; extraction
// fetches the whole object.
type RemoteArchive struct {
	store  objectStore
	bucket string
	key    string
	size   int64
}

// NewRemoteArchive returns a RemoteArchive for the object at
// bucket/key, using credentials from the environment.
func NewRemoteArchive(bucket, key string) *RemoteArchive {
	return newRemoteArchive(aws.NewClient(), bucket, key)
}

func newRemoteArchive(store objectStore, bucket, key string) *RemoteArchive {
	return &RemoteArchive{
		store:  store,
		bucket: bucket,
		key:    key,
	}
}

func (r *RemoteArchive) ensureSize(ctx context.Context) error {
	if r.size > 0 {
		return nil
	}
	size, err := r.store.ObjectSize(ctx, r.bucket, r.key)
	if err != nil {
		return err
	}
	r.size = size
	return nil
}

// DirectoryEnd locates the EOCD record with ranged tail reads: the
// last 1 KiB first, then a 64 KiB window for archives with long
// trailing comments.
func (r *RemoteArchive) DirectoryEnd(ctx context.Context) (*zip.DirectoryEnd, error) {
	if err := r.ensureSize(ctx); err != nil {
		return nil, err
	}
	for _, window := range []int64{1024, 65 * 1024} {
		if window > r.size {
			window = r.size
		}
		tail, err := r.store.GetObjectRange(ctx, r.bucket, r.key, r.size-window, r.size)
		if err != nil {
			return nil, err
		}
		dir, err := zip.FindDirectoryEnd(tail, r.size)
		if err == nil {
			return dir, nil
		}
		log.Debugf("no EOCD in last %d bytes of s3://%s/%s", window, r.bucket, r.key)
		if window == r.size {
			break
		}
	}
	return nil, zip.ErrFormat
}

// List fetches just the central directory and returns its records.
func (r *RemoteArchive) List(ctx context.Context) ([]*zip.CentralRecord, error) {
	dir, err := r.DirectoryEnd(ctx)
	if err != nil {
		return nil, err
	}
	cd, err := r.store.GetObjectRange(ctx, r.bucket, r.key,
		int64(dir.DirectoryOffset), int64(dir.DirectoryOffset+dir.DirectorySize))
	if err != nil {
		return nil, err
	}
	return zip.ParseDirectoryRecords(cd)
}

// Fetch downloads the whole archive for extraction.
func (r *RemoteArchive) Fetch(ctx context.Context) ([]byte, error) {
	return r.store.GetObject(ctx, r.bucket, r.key)
}

// ParseS3URL splits an s3://bucket/key URL. ok is false for anything
// else.
func ParseS3URL(s string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(s, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
