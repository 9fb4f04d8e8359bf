package s3_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fscat/internal/backend/s3"
	fstesting "github.com/vvka-141/fscat/internal/testing"
	"github.com/vvka-141/fscat/pkg/fscat"
)

// seedBucket creates bucket on the endpoint and uploads objects.
func seedBucket(t *testing.T, ep fstesting.S3Endpoint, bucket string, objects map[string]string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := awss3.New(awss3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider(ep.AccessKey, ep.SecretKey, ""),
		BaseEndpoint: aws.String(ep.URL),
		UsePathStyle: true,
	})

	_, err := client.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err)
	for key, body := range objects {
		_, err := client.PutObject(ctx, &awss3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   strings.NewReader(body),
		})
		require.NoError(t, err)
	}
}

func TestBackend_MinIO(t *testing.T) {
	ep := fstesting.RequireS3(t)
	bucket := "fscat-" + strings.ToLower(strings.ReplaceAll(t.Name(), "_", "-"))
	seedBucket(t, ep, bucket, map[string]string{
		"dir/file":       "content",
		"dir/empty":      "",
		"dir/sub/nested": "deep",
	})

	ctx := context.Background()
	b, err := s3.New(ctx, s3.Config{
		Region:          "us-east-1",
		Endpoint:        ep.URL,
		AccessKeyID:     ep.AccessKey,
		SecretAccessKey: ep.SecretKey,
		UsePathStyle:    true,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	objectPath := func(p string) fscat.Path {
		return fscat.Path{Scheme: "s3", Authority: bucket, Path: p}
	}

	t.Run("stat file", func(t *testing.T) {
		st, err := b.Stat(ctx, objectPath("/dir/file"))
		require.NoError(t, err)
		require.False(t, st.IsDir)
		require.Equal(t, int64(7), st.Length)
		require.Equal(t, fscat.DefaultBlockSize, st.BlockSize)
		require.False(t, st.ModTime.IsZero())
	})

	t.Run("stat prefix as directory", func(t *testing.T) {
		st, err := b.Stat(ctx, objectPath("/dir/sub"))
		require.NoError(t, err)
		require.True(t, st.IsDir)
	})

	t.Run("stat missing", func(t *testing.T) {
		_, err := b.Stat(ctx, objectPath("/dir/nope"))
		require.ErrorIs(t, err, fscat.ErrNotFound)
	})

	t.Run("open file", func(t *testing.T) {
		rc, err := b.Open(ctx, objectPath("/dir/file"))
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.Equal(t, "content", string(data))
	})

	t.Run("open empty file", func(t *testing.T) {
		rc, err := b.Open(ctx, objectPath("/dir/empty"))
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.Empty(t, data)
	})

	t.Run("open directory", func(t *testing.T) {
		_, err := b.Open(ctx, objectPath("/dir"))
		require.ErrorIs(t, err, fscat.ErrIsDirectory)
	})

	t.Run("list", func(t *testing.T) {
		entries, err := b.List(ctx, objectPath("/dir"))
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, "empty", entries[0].Name())
		require.Equal(t, "file", entries[1].Name())
		require.Equal(t, "sub", entries[2].Name())
		require.True(t, entries[2].IsDir)
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := b.Stat(ctx, fscat.Path{Scheme: "s3", Authority: "fscat-no-such-bucket", Path: "/x"})
		require.ErrorIs(t, err, fscat.ErrNotFound)
	})
}
