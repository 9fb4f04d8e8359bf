package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fscat/internal/backend"
	"github.com/vvka-141/fscat/internal/config"
	"github.com/vvka-141/fscat/internal/logging"
	"github.com/vvka-141/fscat/internal/metrics"
	"github.com/vvka-141/fscat/internal/vfs"
	"github.com/vvka-141/fscat/pkg/fscat"
)

// session is the per-invocation state shared by the commands: the resolved
// configuration, the facade over every configured backend, and the
// context carrying the --timeout deadline.
type session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cfg         *config.Config
	fs          *vfs.FileSystem
	logger      fscat.Logger
	recorder    *metrics.Recorder
	bufferSize  int
	metricsFile string
}

// openSession loads configuration and builds the facade for cmd.
// Flags take precedence over the configuration file.
func openSession(cmd *cobra.Command) (*session, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(globalFlags.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	bufferSize := cfg.BufferSize
	if globalFlags.bufferSize < 0 {
		return nil, fmt.Errorf("invalid argument %d for \"--buffer-size\" flag: must be positive", globalFlags.bufferSize)
	}
	if globalFlags.bufferSize > 0 {
		bufferSize = globalFlags.bufferSize
	}
	if bufferSize <= 0 {
		bufferSize = fscat.DefaultBufferSize
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if globalFlags.timeout < 0 {
		return nil, fmt.Errorf("invalid argument %q for \"--timeout\" flag: must not be negative", globalFlags.timeout)
	}
	if globalFlags.timeout > 0 {
		timeout = globalFlags.timeout
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	backends, err := backend.NewAll(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	recorder := metrics.NewRecorder()
	opts := []vfs.Option{
		vfs.WithDefaultScheme(cfg.DefaultScheme),
		vfs.WithIdentity(identityFor(cfg.Identity)),
		vfs.WithBufferSize(bufferSize),
		vfs.WithLogger(logger),
	}
	for scheme, b := range backends {
		opts = append(opts, vfs.WithBackend(scheme, recorder.Instrument(scheme, b)))
	}
	opts = append(opts, workingDirs(cfg, logger)...)

	fsys, err := vfs.New(opts...)
	if err != nil {
		for _, b := range backends {
			b.Close() //nolint:errcheck
		}
		cancel()
		return nil, err
	}

	metricsFile := cfg.Metrics.File
	if globalFlags.metricsFile != "" {
		metricsFile = globalFlags.metricsFile
	}

	logger.Verbose("backends: %v, default scheme %q, buffer %d bytes", fsys.Schemes(), cfg.DefaultScheme, bufferSize)
	return &session{
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg,
		fs:          fsys,
		logger:      logger,
		recorder:    recorder,
		bufferSize:  bufferSize,
		metricsFile: metricsFile,
	}, nil
}

// loadConfig reads path, or the default file in the working directory when
// path is empty. Only the default file may be absent.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg, err := config.Load(config.ConfigFileName)
		if errors.Is(err, config.ErrConfigNotFound) {
			return config.Default(), nil
		}
		return cfg, err
	}

	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("%w: %s: %v", fscat.ErrInvalidConfig, path, err)
	}
	return cfg, err
}

// newLogger builds the logger selected by --log-format or the config file.
func newLogger(cfg config.LogConfig, stderr io.Writer) (fscat.Logger, error) {
	format := cfg.Format
	if globalFlags.logFormat != "" {
		format = globalFlags.logFormat
	}

	switch format {
	case "", "console":
		return logging.NewConsoleLoggerTo(stderr, globalFlags.verbose), nil
	case "json":
		level := cfg.Level
		if globalFlags.verbose {
			level = "debug"
		}
		return logging.NewZapLogger(logging.ZapConfig{Level: level})
	default:
		return nil, fmt.Errorf("invalid argument %q for \"--log-format\" flag: must be console or json", format)
	}
}

// identityFor fills unset identity fields from the current OS user.
func identityFor(cfg config.IdentityConfig) vfs.Identity {
	id := vfs.CurrentIdentity()
	if cfg.User != "" {
		id.User = cfg.User
	}
	if cfg.Group != "" {
		id.Group = cfg.Group
	}
	return id
}

// workingDirs maps the process working directory onto every local backend
// rooted at "/", so relative paths behave as they do in a shell.
func workingDirs(cfg *config.Config, logger fscat.Logger) []vfs.Option {
	wd, err := os.Getwd()
	if err != nil {
		logger.Verbose("working directory unavailable, relative paths resolve from /: %v", err)
		return nil
	}

	var opts []vfs.Option
	for _, scheme := range cfg.Schemes() {
		b := cfg.Backends[scheme]
		if b.Type != config.TypeLocal || filepath.Clean(b.Root) != string(filepath.Separator) {
			continue
		}
		opts = append(opts, vfs.WithWorkingDir(scheme, filepath.ToSlash(wd)))
	}
	return opts
}

// Close releases the backends and writes the metrics file when requested.
func (s *session) Close() error {
	defer s.cancel()

	var errs []error
	if err := s.fs.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.metricsFile != "" {
		if err := s.recorder.WriteTextfile(s.metricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		} else {
			s.logger.Verbose("metrics written to %s", s.metricsFile)
		}
	}
	if z, ok := s.logger.(*logging.ZapLogger); ok {
		z.Sync() //nolint:errcheck
	}
	return errors.Join(errs...)
}

// finish closes s and reports the close error only when the command itself succeeded.
func (s *session) finish(errp *error) {
	if err := s.Close(); err != nil && *errp == nil {
		*errp = err
	}
}
