// Package s3 provides a read-only backend over S3-compatible object stores
// (AWS S3, MinIO). The path authority names the bucket and the path names
// the key; a key prefix shared by other keys is reported as a directory.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/vvka-141/fscat/internal/logging"
	"github.com/vvka-141/fscat/internal/retry"
	"github.com/vvka-141/fscat/pkg/fscat"
)

const defaultRegion = "us-east-1"

// Config holds S3 connection settings. Empty credentials use the default
// AWS credential chain.
type Config struct {
	Region          string         `yaml:"region"`
	Endpoint        string         `yaml:"endpoint"`
	AccessKeyID     string         `yaml:"access_key_id"`
	SecretAccessKey string         `yaml:"secret_access_key"`
	SessionToken    string         `yaml:"session_token"`
	UsePathStyle    bool           `yaml:"use_path_style"`
	Retry           retry.Policy   `yaml:"retry"`
	Defaults        fscat.Defaults `yaml:"-"`
}

// ObjectAPI is the subset of the S3 client the backend calls.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Backend serves paths from S3 buckets.
type Backend struct {
	api      ObjectAPI
	exec     *retry.Executor
	defaults fscat.Defaults
	logger   fscat.Logger
}

// New creates a backend with a client built from cfg and the default AWS
// configuration sources.
func New(ctx context.Context, cfg Config, logger fscat.Logger) (*Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", fscat.ErrInvalidConfig, err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = defaultRegion
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// Retries go through the backend's own executor.
		o.Retryer = aws.NopRetryer{}
	})

	return NewWithAPI(client, cfg, logger), nil
}

// NewWithAPI creates a backend over an existing client.
func NewWithAPI(api ObjectAPI, cfg Config, logger fscat.Logger) *Backend {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Backend{
		api:      api,
		exec:     cfg.Retry.Executor(retry.NewS3ErrorClassifier()),
		defaults: cfg.Defaults.WithFallback(fscat.ReferenceDefaults()),
		logger:   logger,
	}
}

// location splits p into bucket and key. The bucket root has an empty key.
func location(p fscat.Path) (string, string, error) {
	if p.Authority == "" {
		return "", "", fmt.Errorf("%w: s3 path %q has no bucket", fscat.ErrInvalidPath, p.String())
	}
	return p.Authority, strings.TrimPrefix(p.Path, "/"), nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return fscat.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fscat.IOFailure(err)
}

// dirModTime is reported for directories, which S3 does not store.
var dirModTime = time.Unix(0, 0).UTC()

func (b *Backend) fileStatus(p fscat.Path, size *int64, modified *time.Time) fscat.FileStatus {
	return b.defaults.FileStatus(p, aws.ToInt64(size), aws.ToTime(modified))
}

func (b *Backend) head(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	return retry.Do(ctx, b.exec.WithLogger(b.logger, "s3 head "+key), func(ctx context.Context) (*s3.HeadObjectOutput, error) {
		return b.api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	})
}

// hasPrefix reports whether any key starts with prefix. For an empty prefix
// it verifies the bucket exists.
func (b *Backend) hasPrefix(ctx context.Context, bucket, prefix string) (bool, error) {
	out, err := retry.Do(ctx, b.exec.WithLogger(b.logger, "s3 list "+prefix), func(ctx context.Context) (*s3.ListObjectsV2Output, error) {
		return b.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			Prefix:  aws.String(prefix),
			MaxKeys: aws.Int32(1),
		})
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

// Stat implements fscat.Backend.
func (b *Backend) Stat(ctx context.Context, p fscat.Path) (fscat.FileStatus, error) {
	bucket, key, err := location(p)
	if err != nil {
		return fscat.FileStatus{}, err
	}

	if key == "" {
		if _, err := b.hasPrefix(ctx, bucket, ""); err != nil {
			return fscat.FileStatus{}, mapError(err)
		}
		return b.defaults.DirStatus(p, dirModTime), nil
	}

	out, err := b.head(ctx, bucket, key)
	if err == nil {
		return b.fileStatus(p, out.ContentLength, out.LastModified), nil
	}
	if !isNotFound(err) {
		return fscat.FileStatus{}, mapError(err)
	}

	isDir, err := b.hasPrefix(ctx, bucket, key+"/")
	if err != nil {
		return fscat.FileStatus{}, mapError(err)
	}
	if !isDir {
		return fscat.FileStatus{}, fscat.ErrNotFound
	}
	return b.defaults.DirStatus(p, dirModTime), nil
}

// Open implements fscat.Backend. Only the request is retried; a failure
// while reading the body surfaces to the caller.
func (b *Backend) Open(ctx context.Context, p fscat.Path) (io.ReadCloser, error) {
	bucket, key, err := location(p)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fscat.ErrIsDirectory
	}

	out, err := retry.Do(ctx, b.exec.WithLogger(b.logger, "s3 get "+key), func(ctx context.Context) (*s3.GetObjectOutput, error) {
		return b.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	})
	if err == nil {
		return &body{rc: out.Body}, nil
	}
	if !isNotFound(err) {
		return nil, mapError(err)
	}

	isDir, listErr := b.hasPrefix(ctx, bucket, key+"/")
	if listErr != nil {
		return nil, mapError(listErr)
	}
	if isDir {
		return nil, fscat.ErrIsDirectory
	}
	return nil, fscat.ErrNotFound
}

// List implements fscat.Backend.
func (b *Backend) List(ctx context.Context, p fscat.Path) ([]fscat.FileStatus, error) {
	bucket, key, err := location(p)
	if err != nil {
		return nil, err
	}

	st, err := b.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if !st.IsDir {
		return []fscat.FileStatus{st}, nil
	}

	prefix := ""
	if key != "" {
		prefix = key + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(b.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	exec := b.exec.WithLogger(b.logger, "s3 list "+prefix)
	var result []fscat.FileStatus
	for paginator.HasMorePages() {
		page, err := retry.Do(ctx, exec, func(ctx context.Context) (*s3.ListObjectsV2Output, error) {
			return paginator.NextPage(ctx)
		})
		if err != nil {
			return nil, mapError(err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			result = append(result, b.defaults.DirStatus(p.Child(name), dirModTime))
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Zero-byte "dir/" markers created by S3 consoles.
			if name == "" {
				continue
			}
			result = append(result, b.fileStatus(p.Child(name), obj.Size, obj.LastModified))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Path.Path < result[j].Path.Path
	})
	return result, nil
}

// Close implements fscat.Backend. The SDK client holds no resources that
// need releasing.
func (b *Backend) Close() error {
	return nil
}

// body maps read errors of an object stream into the fscat taxonomy.
type body struct {
	rc io.ReadCloser
}

func (r *body) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil && err != io.EOF {
		return n, mapError(err)
	}
	return n, err
}

func (r *body) Close() error {
	return r.rc.Close()
}
