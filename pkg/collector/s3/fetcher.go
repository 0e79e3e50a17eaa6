// Package s3 implements the file-fetcher collaborator against an S3 (or
// S3-compatible) bucket the job host ships its log exports into.
package s3

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/astrobl1904/prtg-custom-sensors/pkg/collector"
)

// Config configures the S3 fetcher.
type Config struct {
	// Bucket is the bucket holding the log exports. Required.
	Bucket string

	// Prefix is prepended to every fetched path.
	Prefix string

	// Region overrides the SDK's region resolution.
	Region string

	// Profile selects a shared-config profile.
	Profile string

	// Endpoint points at an S3-compatible store.
	Endpoint string

	// ForcePathStyle enables path-style addressing, required by most
	// S3-compatible stores.
	ForcePathStyle bool

	// AccessKeyID and SecretAccessKey provide static credentials;
	// when empty the SDK default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("bucket is required")
	}
	return nil
}

// Fetcher reads log files from a bucket.
type Fetcher struct {
	client *s3.Client
	bucket string
	prefix string
}

// Ensure Fetcher implements the collector interface.
var _ collector.FileFetcher = (*Fetcher)(nil)

// New creates an S3 fetcher with the given configuration.
//
// The fetcher uses the SDK's default credential chain unless explicit
// credentials are provided in the config.
func New(ctx context.Context, cfg Config) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &collector.CollectorError{Op: "New", Source: "s3", Path: cfg.Bucket, Err: err}
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &Fetcher{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Close implements collector.FileFetcher; the SDK client holds no session
// that needs releasing.
func (f *Fetcher) Close() error { return nil }

// FetchFileLines downloads the object at prefix/path and returns its
// content split into lines. A missing object yields
// collector.ErrFileNotFound; any other failure is a transport error.
func (f *Fetcher) FetchFileLines(ctx context.Context, p string) ([]string, error) {
	if strings.TrimSpace(p) == "" {
		return nil, f.wrapError("FetchFileLines", p, fmt.Errorf("path is required"))
	}

	key := strings.TrimPrefix(path.Clean(p), "/")
	if f.prefix != "" {
		key = path.Join(f.prefix, key)
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, f.wrapError("FetchFileLines", key, err)
	}
	defer out.Body.Close()

	var lines []string
	scanner := bufio.NewScanner(out.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, f.wrapError("FetchFileLines", key, err)
	}

	return lines, nil
}

// wrapError converts S3 errors to collector errors with the appropriate
// sentinel. Only a clean "no such key" maps to ErrFileNotFound; everything
// else stays a transport failure.
func (f *Fetcher) wrapError(op, key string, err error) error {
	wrapped := &collector.CollectorError{Op: op, Source: "s3", Path: f.bucket + "/" + key, Err: err}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		wrapped.Err = collector.ErrFileNotFound
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			wrapped.Err = collector.ErrFileNotFound
		}
	}

	return wrapped
}
