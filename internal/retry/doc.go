// Package retry provides automatic retry logic with exponential backoff
// for transient storage backend failures.
//
// Backends that talk to a remote service (S3-compatible object stores,
// PostgreSQL) wrap each remote call in an Executor. The facade above them
// never retries; by the time an error leaves a backend, retrying is over.
//
// # Example Usage
//
//	executor := retry.NewExecutor(retry.NewS3ErrorClassifier(), retry.NewExponentialBackoff(3))
//
//	out, err := retry.Do(ctx, executor, func(ctx context.Context) (*s3.HeadObjectOutput, error) {
//	    return client.HeadObject(ctx, input)
//	})
//
// # Error Classification
//
// The ErrorClassifier interface determines which errors are transient (retryable)
// versus fatal. PostgreSQLErrorClassifier recognizes connection-class SQLSTATEs;
// S3ErrorClassifier recognizes throttling and 5xx responses. Both treat
// refused, reset and timed-out network connections as transient.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per goroutine.
package retry
