// Package aws wraps the S3 operations used for remote archives: object
// size lookup, ranged reads for the directory records, and full-object
// fetches for extraction.
package aws

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
)

// Client is an abstraction layer for interacting with AWS services.
type Client struct {
	s3 *s3.S3
}

// NewClient creates a new AWS client, expecting that the environment variables configure the settings.
func NewClient() *Client {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	return &Client{
		s3: s3.New(sess),
	}
}

// ObjectSize returns the size in bytes of the object at bucket/key.
func (c *Client) ObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	output, err := c.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		log.Errorf("error getting S3 head object (bucket: %s)(key: %s), err: %v", bucket, key, err)
		return 0, fmt.Errorf("aws: head object s3://%s/%s: %w", bucket, key, err)
	}
	if output.ContentLength == nil {
		return 0, fmt.Errorf("aws: head object s3://%s/%s: no content length", bucket, key)
	}
	return *output.ContentLength, nil
}

// GetObjectRange fetches the half-open byte range [start, end) of the
// object at bucket/key.
func (c *Client) GetObjectRange(ctx context.Context, bucket, key string, start, end int64) ([]byte, error) {
	byteRange := fmt.Sprintf("bytes=%v-%v", start, end-1)
	output, err := c.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Range:  &byteRange,
	})
	if err != nil {
		log.Errorf("error getting S3 object (bucket: %s)(key: %s)(range: %s), err: %v", bucket, key, byteRange, err)
		return nil, fmt.Errorf("aws: get object s3://%s/%s range %s: %w", bucket, key, byteRange, err)
	}
	defer output.Body.Close()
	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("aws: reading object s3://%s/%s: %w", bucket, key, err)
	}
	return body, nil
}

// GetObject fetches the whole object at bucket/key.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	output, err := c.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		log.Errorf("error getting S3 object (bucket: %s)(key: %s), err: %v", bucket, key, err)
		return nil, fmt.Errorf("aws: get object s3://%s/%s: %w", bucket, key, err)
	}
	defer output.Body.Close()
	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("aws: reading object s3://%s/%s: %w", bucket, key, err)
	}
	return body, nil
}
