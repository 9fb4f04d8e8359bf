// Package pgstore provides a writable backend that keeps the directory tree
// in a PostgreSQL table and file bytes in large objects, so reads stream
// without loading whole files into memory.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/fscat/internal/logging"
	"github.com/vvka-141/fscat/internal/retry"
	"github.com/vvka-141/fscat/pkg/fscat"
)

// Connection pool settings.
const (
	DefaultMaxConns        = 5
	DefaultMinConns        = 0
	DefaultMaxConnIdleTime = 5 * time.Minute
)

// Config holds pgstore settings.
type Config struct {
	DSN      string       `yaml:"dsn"`
	MaxConns int32        `yaml:"max_conns"`
	Owner    string       `yaml:"owner"`
	Migrate  bool         `yaml:"migrate"`
	Retry    retry.Policy `yaml:"retry"`

	Defaults fscat.Defaults `yaml:"-"`
}

// Backend serves paths from the fscat_entry table.
type Backend struct {
	pool     *pgxpool.Pool
	exec     *retry.Executor
	defaults fscat.Defaults
	owner    string
	logger   fscat.Logger
}

// New connects to the database described by cfg, retrying transient
// connection failures. When cfg.Migrate is set the schema is created.
func New(ctx context.Context, cfg Config, logger fscat.Logger) (*Backend, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: pgstore dsn is required", fscat.ErrInvalidConfig)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: pgstore dsn: %v", fscat.ErrInvalidConfig, err)
	}
	poolConfig.MaxConns = DefaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime

	exec := cfg.Retry.Executor(retry.NewPostgreSQLErrorClassifier())

	pool, err := retry.Do(ctx, exec.WithLogger(logger, "pgstore connect"), func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", poolConfig.ConnConfig.Host, fscat.IOFailure(err))
	}

	b := &Backend{
		pool:     pool,
		exec:     exec,
		defaults: cfg.Defaults.WithFallback(fscat.ReferenceDefaults()),
		owner:    cfg.Owner,
		logger:   logger,
	}

	if cfg.Migrate {
		if err := b.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return b, nil
}

// Migrate creates the entry table and the root directory if missing.
func (b *Backend) Migrate(ctx context.Context) error {
	err := b.exec.WithLogger(b.logger, "pgstore migrate").Execute(ctx, func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, schemaSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, insertRootSQL,
				EntryID("/"), b.owner, b.defaults.Group, int32(b.defaults.DirPermission))
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("migrate pgstore schema: %w", fscat.IOFailure(err))
	}
	b.logger.Verbose("pgstore schema ready")
	return nil
}

// mapError translates driver errors into the fscat taxonomy. Errors that
// already carry a kind pass through unchanged.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fscat.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fscat.IOFailure(err)
}

// row is one fscat_entry record.
type row struct {
	path     string
	isDir    bool
	content  *uint32
	length   int64
	modified time.Time
	owner    string
	group    string
	perm     int32
}

func (b *Backend) status(p fscat.Path, r row) fscat.FileStatus {
	st := fscat.FileStatus{
		Path:       p,
		IsDir:      r.isDir,
		ModTime:    r.modified,
		Owner:      r.owner,
		Group:      r.group,
		Permission: fscat.Permission(r.perm),
	}
	if !r.isDir {
		st.Length = r.length
		st.BlockSize = b.defaults.BlockSize
		st.Replication = b.defaults.Replication
	}
	return st
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func lookup(ctx context.Context, q querier, key string) (row, error) {
	r := row{path: key}
	err := q.QueryRow(ctx, selectEntrySQL, key).Scan(
		&r.isDir, &r.content, &r.length, &r.modified, &r.owner, &r.group, &r.perm)
	return r, err
}

// Stat implements fscat.Backend.
func (b *Backend) Stat(ctx context.Context, p fscat.Path) (fscat.FileStatus, error) {
	key := cleanKey(p.Path)
	r, err := retry.Do(ctx, b.exec.WithLogger(b.logger, "pgstore stat "+key), func(ctx context.Context) (row, error) {
		return lookup(ctx, b.pool, key)
	})
	if err != nil {
		return fscat.FileStatus{}, mapError(err)
	}
	return b.status(p, r), nil
}

// List implements fscat.Backend.
func (b *Backend) List(ctx context.Context, p fscat.Path) ([]fscat.FileStatus, error) {
	key := cleanKey(p.Path)
	exec := b.exec.WithLogger(b.logger, "pgstore list "+key)

	self, err := retry.Do(ctx, exec, func(ctx context.Context) (row, error) {
		return lookup(ctx, b.pool, key)
	})
	if err != nil {
		return nil, mapError(err)
	}
	if !self.isDir {
		return []fscat.FileStatus{b.status(p, self)}, nil
	}

	children, err := retry.Do(ctx, exec, func(ctx context.Context) ([]row, error) {
		rows, err := b.pool.Query(ctx, selectChildrenSQL, key)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(rs pgx.CollectableRow) (row, error) {
			var r row
			err := rs.Scan(&r.path, &r.isDir, &r.content, &r.length, &r.modified, &r.owner, &r.group, &r.perm)
			return r, err
		})
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]fscat.FileStatus, 0, len(children))
	for _, child := range children {
		result = append(result, b.status(p.Child(child.path[strings.LastIndex(child.path, "/")+1:]), child))
	}
	return result, nil
}

// Open implements fscat.Backend. The returned reader holds a read-only
// transaction that is released on Close.
func (b *Backend) Open(ctx context.Context, p fscat.Path) (io.ReadCloser, error) {
	key := cleanKey(p.Path)

	type opened struct {
		tx pgx.Tx
		lo *pgx.LargeObject
	}
	o, err := retry.Do(ctx, b.exec.WithLogger(b.logger, "pgstore open "+key), func(ctx context.Context) (opened, error) {
		tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
		if err != nil {
			return opened{}, err
		}
		r, err := lookup(ctx, tx, key)
		if err == nil && r.isDir {
			err = fscat.ErrIsDirectory
		}
		if err != nil || r.content == nil {
			tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck
			return opened{}, err
		}
		los := tx.LargeObjects()
		lo, err := los.Open(ctx, *r.content, pgx.LargeObjectModeRead)
		if err != nil {
			tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck
			return opened{}, err
		}
		return opened{tx: tx, lo: lo}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	if o.tx == nil {
		// Zero-length files have no large object.
		return io.NopCloser(strings.NewReader("")), nil
	}
	return &reader{ctx: context.WithoutCancel(ctx), tx: o.tx, lo: o.lo}, nil
}

// Mkdirs implements fscat.WritableBackend.
func (b *Backend) Mkdirs(ctx context.Context, p fscat.Path) error {
	key := cleanKey(p.Path)
	err := b.exec.WithLogger(b.logger, "pgstore mkdirs "+key).Execute(ctx, func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
			return b.mkdirs(ctx, tx, append(ancestors(key), key))
		})
	})
	return mapError(err)
}

// mkdirs creates each directory in dirs, which are ordered root first.
func (b *Backend) mkdirs(ctx context.Context, tx pgx.Tx, dirs []string) error {
	for _, dir := range dirs {
		if _, err := tx.Exec(ctx, insertDirSQL, EntryID(dir), dir, parentOf(dir),
			b.owner, b.defaults.Group, int32(b.defaults.DirPermission)); err != nil {
			return err
		}
		var isDir bool
		if err := tx.QueryRow(ctx, `SELECT is_dir FROM fscat_entry WHERE path = $1`, dir).Scan(&isDir); err != nil {
			return err
		}
		if !isDir {
			return fmt.Errorf("%w: %s is a file", fscat.ErrInvalidPath, dir)
		}
	}
	return nil
}

// Create implements fscat.WritableBackend. Bytes are written into a new
// large object; the entry is replaced and committed on Close.
func (b *Backend) Create(ctx context.Context, p fscat.Path) (io.WriteCloser, error) {
	key := cleanKey(p.Path)
	if key == "/" {
		return nil, fscat.ErrIsDirectory
	}

	type created struct {
		tx  pgx.Tx
		lo  *pgx.LargeObject
		oid uint32
	}
	c, err := retry.Do(ctx, b.exec.WithLogger(b.logger, "pgstore create "+key), func(ctx context.Context) (created, error) {
		tx, err := b.pool.Begin(ctx)
		if err != nil {
			return created{}, err
		}
		fail := func(err error) (created, error) {
			tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck
			return created{}, err
		}

		existing, err := lookup(ctx, tx, key)
		switch {
		case err == nil && existing.isDir:
			return fail(fscat.ErrIsDirectory)
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			return fail(err)
		}
		if err := b.mkdirs(ctx, tx, ancestors(key)); err != nil {
			return fail(err)
		}

		los := tx.LargeObjects()
		oid, err := los.Create(ctx, 0)
		if err != nil {
			return fail(err)
		}
		lo, err := los.Open(ctx, oid, pgx.LargeObjectModeWrite)
		if err != nil {
			return fail(err)
		}
		return created{tx: tx, lo: lo, oid: oid}, nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &writer{
		ctx:     context.WithoutCancel(ctx),
		backend: b,
		key:     key,
		tx:      c.tx,
		lo:      c.lo,
		oid:     c.oid,
	}, nil
}

// Close implements fscat.Backend.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

// reader streams a large object inside its own read-only transaction.
// Read and Close share one connection, so mu serializes them.
type reader struct {
	mu     sync.Mutex
	ctx    context.Context
	tx     pgx.Tx
	lo     *pgx.LargeObject
	closed bool
}

func (r *reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, fmt.Errorf("read: %w", os.ErrClosed)
	}
	n, err := r.lo.Read(p)
	if err != nil && err != io.EOF {
		return n, mapError(err)
	}
	return n, err
}

func (r *reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	// Ending the transaction also closes the large object descriptor.
	err := r.tx.Rollback(r.ctx)
	switch {
	case err == nil, errors.Is(err, pgx.ErrTxClosed):
		return nil
	case r.tx.Conn().IsClosed():
		// A cancelled read closes the connection; the server rolls back.
		return nil
	default:
		return mapError(err)
	}
}

type writer struct {
	ctx     context.Context
	backend *Backend
	key     string
	tx      pgx.Tx
	lo      *pgx.LargeObject
	oid     uint32
	written int64
	done    bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, fmt.Errorf("write %s: %w", w.key, io.ErrClosedPipe)
	}
	n, err := w.lo.Write(p)
	w.written += int64(n)
	return n, mapError(err)
}

func (w *writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	err := w.commit()
	if err != nil {
		w.tx.Rollback(w.ctx) //nolint:errcheck
	}
	return err
}

func (w *writer) commit() error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if err := w.lo.Close(); err != nil {
		return mapError(err)
	}

	var previous *uint32
	err := w.tx.QueryRow(w.ctx, `SELECT content FROM fscat_entry WHERE path = $1 AND NOT is_dir`, w.key).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return mapError(err)
	}

	b := w.backend
	tag, err := w.tx.Exec(w.ctx, upsertFileSQL, EntryID(w.key), w.key, parentOf(w.key), w.oid, w.written,
		b.owner, b.defaults.Group, int32(b.defaults.FilePermission))
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		// A directory appeared at the path since Create.
		return fscat.ErrIsDirectory
	}

	if previous != nil {
		los := w.tx.LargeObjects()
		if err := los.Unlink(w.ctx, *previous); err != nil {
			return mapError(err)
		}
	}
	return mapError(w.tx.Commit(w.ctx))
}
