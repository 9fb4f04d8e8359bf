// Package config loads the fscat YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/fscat/internal/retry"
	"github.com/vvka-141/fscat/pkg/fscat"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const ConfigFileName = "fscat.yaml"

// Backend types accepted in BackendConfig.Type.
const (
	TypeLocal   = "local"
	TypeMemory  = "memory"
	TypeDirFS   = "dirfs"
	TypeS3      = "s3"
	TypePgStore = "pgstore"
)

// BackendConfig configures one backend. Fields not used by Type are ignored.
type BackendConfig struct {
	Type string `yaml:"type"`

	// local, dirfs
	Root string `yaml:"root,omitempty"`

	// memory
	Owner string `yaml:"owner,omitempty"`
	Umask string `yaml:"umask,omitempty"`

	// s3
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	SessionToken    string `yaml:"session_token,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty"`

	// pgstore
	DSN      string `yaml:"dsn,omitempty"`
	MaxConns int32  `yaml:"max_conns,omitempty"`
	Migrate  bool   `yaml:"migrate,omitempty"`

	// Reported defaults.
	BlockSize      int64  `yaml:"block_size,omitempty"`
	Replication    int16  `yaml:"replication,omitempty"`
	Group          string `yaml:"group,omitempty"`
	FilePermission string `yaml:"file_permission,omitempty"`
	DirPermission  string `yaml:"dir_permission,omitempty"`

	Retry retry.Policy `yaml:"retry,omitempty"`
}

// Defaults returns the reported defaults configured for the backend.
// Unset fields are zero.
func (b BackendConfig) Defaults() (fscat.Defaults, error) {
	d := fscat.Defaults{
		BlockSize:   b.BlockSize,
		Replication: b.Replication,
		Group:       b.Group,
	}
	if b.FilePermission != "" {
		perm, err := fscat.ParsePermission(b.FilePermission)
		if err != nil {
			return d, fmt.Errorf("%w: file_permission: %v", fscat.ErrInvalidConfig, err)
		}
		d.FilePermission = perm
	}
	if b.DirPermission != "" {
		perm, err := fscat.ParsePermission(b.DirPermission)
		if err != nil {
			return d, fmt.Errorf("%w: dir_permission: %v", fscat.ErrInvalidConfig, err)
		}
		d.DirPermission = perm
	}
	return d, nil
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level,omitempty"`
}

type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// IdentityConfig is the owner and group reported for entries whose backend
// does not track them. An empty User means the current OS user.
type IdentityConfig struct {
	User  string `yaml:"user,omitempty"`
	Group string `yaml:"group,omitempty"`
}

type Config struct {
	DefaultScheme string                   `yaml:"default_scheme"`
	BufferSize    int                      `yaml:"buffer_size"`
	Timeout       string                   `yaml:"timeout,omitempty"`
	Log           LogConfig                `yaml:"log"`
	Metrics       MetricsConfig            `yaml:"metrics,omitempty"`
	Identity      IdentityConfig           `yaml:"identity,omitempty"`
	Backends      Backends                 `yaml:"backends"`
}

// Backends maps scheme names to backend settings.
type Backends map[string]BackendConfig

// UnmarshalYAML decodes each entry over the existing one with the same name,
// so a file can override single fields of a default backend such as the
// root of "file" without restating its type.
func (m *Backends) UnmarshalYAML(value *yaml.Node) error {
	var nodes map[string]yaml.Node
	if err := value.Decode(&nodes); err != nil {
		return err
	}
	if *m == nil {
		*m = make(Backends, len(nodes))
	}
	for name, node := range nodes {
		b := (*m)[name]
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("backend %q: %w", name, err)
		}
		(*m)[name] = b
	}
	return nil
}

// Default returns the configuration used when no file is present: the local
// disk under "file" and an empty in-memory filesystem under "mem".
func Default() *Config {
	return &Config{
		DefaultScheme: fscat.DefaultScheme,
		BufferSize:    fscat.DefaultBufferSize,
		Log:           LogConfig{Format: "console", Level: "info"},
		Identity:      IdentityConfig{Group: fscat.DefaultGroup},
		Backends: Backends{
			"file": {Type: TypeLocal, Root: "/"},
			"mem":  {Type: TypeMemory},
		},
	}
}

// Load reads the configuration file at path over Default. ${VAR} references
// are replaced with environment values before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", fscat.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; existing variables are not overridden.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("%w: load %s: %v", fscat.ErrInvalidConfig, name, err)
		}
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} with the value of VAR. Bare $VAR is left alone
// so DSNs and secrets containing '$' survive.
func ExpandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}

var schemeName = regexp.MustCompile(`^[a-z][a-z0-9+.\-]+$`)

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: buffer_size must not be negative", fscat.ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", fscat.ErrInvalidConfig, c.Log.Format)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, ok := c.Backends[c.DefaultScheme]; !ok {
		return fmt.Errorf("%w: default_scheme %q has no backend", fscat.ErrInvalidConfig, c.DefaultScheme)
	}

	for _, scheme := range c.Schemes() {
		b := c.Backends[scheme]
		if !schemeName.MatchString(scheme) {
			return fmt.Errorf("%w: backend name %q is not a valid scheme", fscat.ErrInvalidConfig, scheme)
		}
		switch b.Type {
		case TypeLocal, TypeMemory:
		case TypeDirFS:
			if b.Root == "" {
				return fmt.Errorf("%w: backend %q: root is required", fscat.ErrInvalidConfig, scheme)
			}
		case TypeS3:
		case TypePgStore:
			if b.DSN == "" {
				return fmt.Errorf("%w: backend %q: dsn is required", fscat.ErrInvalidConfig, scheme)
			}
		default:
			return fmt.Errorf("%w: backend %q: unknown type %q", fscat.ErrInvalidConfig, scheme, b.Type)
		}
		if _, err := b.Defaults(); err != nil {
			return fmt.Errorf("backend %q: %w", scheme, err)
		}
		if b.Umask != "" {
			if _, err := b.UmaskMode(); err != nil {
				return fmt.Errorf("backend %q: %w", scheme, err)
			}
		}
	}
	return nil
}

// Schemes returns the configured backend names in sorted order.
func (c *Config) Schemes() []string {
	schemes := make([]string, 0, len(c.Backends))
	for scheme := range c.Backends {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: timeout %q is not a valid duration", fscat.ErrInvalidConfig, c.Timeout)
	}
	return d, nil
}
