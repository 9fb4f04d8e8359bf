package retry

import (
	"errors"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// s3TransientCodes are S3 API error codes worth retrying.
var s3TransientCodes = map[string]bool{
	"SlowDown":             true,
	"Throttling":           true,
	"ThrottlingException":  true,
	"RequestTimeout":       true,
	"RequestTimeTooSkewed": true,
	"InternalError":        true,
	"ServiceUnavailable":   true,
}

// S3ErrorClassifier implements fscat.ErrorClassifier for S3-compatible object stores.
type S3ErrorClassifier struct{}

// NewS3ErrorClassifier creates a new S3 error classifier.
func NewS3ErrorClassifier() *S3ErrorClassifier {
	return &S3ErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *S3ErrorClassifier) IsTransient(err error) bool {
	if err == nil || isCancellation(err) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && s3TransientCodes[apiErr.ErrorCode()] {
		return true
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		if status == 429 || status >= 500 {
			return true
		}
		if status >= 400 {
			return false
		}
	}

	return isNetworkError(err) || hasTransientMessage(err)
}
