package config

import (
	"fmt"
	"io/fs"
	"strconv"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// DefaultUmask applies when a memory backend sets none.
const DefaultUmask fs.FileMode = 0o022

// UmaskMode parses the octal umask, falling back to DefaultUmask.
func (b BackendConfig) UmaskMode() (fs.FileMode, error) {
	if b.Umask == "" {
		return DefaultUmask, nil
	}
	v, err := strconv.ParseUint(b.Umask, 8, 16)
	if err != nil || v > 0o777 {
		return 0, fmt.Errorf("%w: umask %q is not an octal mode", fscat.ErrInvalidConfig, b.Umask)
	}
	return fs.FileMode(v), nil
}
