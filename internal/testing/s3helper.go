package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vvka-141/fscat/internal/testinfra"
)

// S3Endpoint describes an S3-compatible service reachable from tests.
type S3Endpoint struct {
	URL       string
	AccessKey string
	SecretKey string
}

var (
	minioOnce     sync.Once
	minioEndpoint S3Endpoint
	minioErr      error
)

// RequireS3 returns an S3 endpoint for integration tests.
// Priority: FSCAT_TEST_S3_ENDPOINT env var > auto-started MinIO > skip test.
func RequireS3(t *testing.T) S3Endpoint {
	t.Helper()

	SkipIfShort(t)

	if endpoint := os.Getenv("FSCAT_TEST_S3_ENDPOINT"); endpoint != "" {
		return S3Endpoint{
			URL:       endpoint,
			AccessKey: os.Getenv("FSCAT_TEST_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("FSCAT_TEST_S3_SECRET_KEY"),
		}
	}

	minioOnce.Do(func() {
		ctr, err := testinfra.StartMinIO(context.Background())
		if err != nil {
			minioErr = err
			return
		}
		minioEndpoint = S3Endpoint{URL: ctr.Endpoint, AccessKey: ctr.AccessKey, SecretKey: ctr.SecretKey}
	})
	if minioErr != nil {
		t.Skipf("FSCAT_TEST_S3_ENDPOINT not set and Docker unavailable: %v", minioErr)
	}
	return minioEndpoint
}
