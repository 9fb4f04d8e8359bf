// Package metrics records Prometheus metrics for backend operations.
package metrics

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// Recorder owns a private registry so several recorders can coexist in one
// process (tests, embedded use).
type Recorder struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesRead         *prometheus.CounterVec
	bytesWritten      *prometheus.CounterVec
}

// NewRecorder creates a recorder with its metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fscat_backend_operations_total",
				Help: "Total number of backend operations",
			},
			[]string{"scheme", "operation", "result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fscat_backend_operation_duration_seconds",
				Help:    "Backend operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scheme", "operation"},
		),
		bytesRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fscat_bytes_read_total",
				Help: "Total bytes read from backends",
			},
			[]string{"scheme"},
		),
		bytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fscat_bytes_written_total",
				Help: "Total bytes written to backends",
			},
			[]string{"scheme"},
		),
	}
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// result names the outcome label of an operation.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := fscat.Kind(err); kind != "" {
		return kind
	}
	return "error"
}

func (r *Recorder) observe(scheme, op string, start time.Time, err error) {
	r.operationsTotal.WithLabelValues(scheme, op, result(err)).Inc()
	r.operationDuration.WithLabelValues(scheme, op).Observe(time.Since(start).Seconds())
}

// Instrument wraps b so its operations are recorded under scheme. The
// writable capability of b is preserved.
func (r *Recorder) Instrument(scheme string, b fscat.Backend) fscat.Backend {
	ib := &instrumented{next: b, scheme: scheme, rec: r}
	if wb, ok := b.(fscat.WritableBackend); ok {
		return &instrumentedWritable{instrumented: ib, next: wb}
	}
	return ib
}

type instrumented struct {
	next   fscat.Backend
	scheme string
	rec    *Recorder
}

func (b *instrumented) Open(ctx context.Context, p fscat.Path) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := b.next.Open(ctx, p)
	b.rec.observe(b.scheme, "open", start, err)
	if err != nil {
		return nil, err
	}
	return &countingReader{ReadCloser: rc, counter: b.rec.bytesRead.WithLabelValues(b.scheme)}, nil
}

func (b *instrumented) Stat(ctx context.Context, p fscat.Path) (fscat.FileStatus, error) {
	start := time.Now()
	st, err := b.next.Stat(ctx, p)
	b.rec.observe(b.scheme, "stat", start, err)
	return st, err
}

func (b *instrumented) List(ctx context.Context, p fscat.Path) ([]fscat.FileStatus, error) {
	start := time.Now()
	entries, err := b.next.List(ctx, p)
	b.rec.observe(b.scheme, "list", start, err)
	return entries, err
}

func (b *instrumented) Close() error {
	return b.next.Close()
}

type instrumentedWritable struct {
	*instrumented
	next fscat.WritableBackend
}

func (b *instrumentedWritable) Mkdirs(ctx context.Context, p fscat.Path) error {
	start := time.Now()
	err := b.next.Mkdirs(ctx, p)
	b.rec.observe(b.scheme, "mkdirs", start, err)
	return err
}

func (b *instrumentedWritable) Create(ctx context.Context, p fscat.Path) (io.WriteCloser, error) {
	start := time.Now()
	wc, err := b.next.Create(ctx, p)
	b.rec.observe(b.scheme, "create", start, err)
	if err != nil {
		return nil, err
	}
	return &countingWriter{WriteCloser: wc, counter: b.rec.bytesWritten.WithLabelValues(b.scheme)}, nil
}

type countingReader struct {
	io.ReadCloser
	counter prometheus.Counter
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		r.counter.Add(float64(n))
	}
	return n, err
}

type countingWriter struct {
	io.WriteCloser
	counter prometheus.Counter
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.WriteCloser.Write(p)
	if n > 0 {
		w.counter.Add(float64(n))
	}
	return n, err
}
