package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

const s3Scheme = "s3://"

// S3API is the subset of *s3.Client used to fetch CSV objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// newDefaultS3Client builds a client from the standard AWS environment
// (AWS_REGION, credentials chain, AWS_ENDPOINT_URL_S3).
func newDefaultS3Client(ctx context.Context) (S3API, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// IsS3 reports whether source names an S3 object.
func IsS3(source string) bool {
	return strings.HasPrefix(source, s3Scheme)
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%q is not an s3:// URI: %w", uri, oceanq.ErrInvalidConfig)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%q must name a bucket and a key: %w", uri, oceanq.ErrInvalidConfig)
	}
	return bucket, key, nil
}

// open returns a reader over the CSV named by source.
func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if IsS3(source) {
		return l.openS3(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("CSV file not found at %s: %w", source, oceanq.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory: %w", source, oceanq.ErrSourceNotFound)
	}
	return f, nil
}

func (l *Loader) openS3(ctx context.Context, source string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(source)
	if err != nil {
		return nil, err
	}

	if l.s3 == nil {
		client, err := l.newS3(ctx)
		if err != nil {
			return nil, err
		}
		l.s3 = client
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("object %s not found: %w", source, oceanq.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	return out.Body, nil
}
