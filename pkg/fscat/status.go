package fscat

import (
	"fmt"
	"io/fs"
	"strconv"
	"time"
)

// Permission holds the nine read/write/execute bits for owner, group and other.
type Permission uint16

// PermissionFromMode extracts the permission bits of an fs.FileMode.
func PermissionFromMode(mode fs.FileMode) Permission {
	return Permission(mode.Perm())
}

// Mode returns the permission bits as an fs.FileMode.
func (p Permission) Mode() fs.FileMode {
	return fs.FileMode(p) & fs.ModePerm
}

// String renders the bits in symbolic form, e.g. "rw-r--r--".
func (p Permission) String() string {
	const rwx = "rwxrwxrwx"
	buf := []byte("---------")
	for i := 0; i < 9; i++ {
		if p&(1<<uint(8-i)) != 0 {
			buf[i] = rwx[i]
		}
	}
	return string(buf)
}

// ParsePermission accepts octal ("644", "0755") or symbolic ("rw-r--r--") notation.
func ParsePermission(s string) (Permission, error) {
	if len(s) == 9 && !isOctal(s) {
		var p Permission
		const rwx = "rwxrwxrwx"
		for i := 0; i < 9; i++ {
			switch s[i] {
			case rwx[i]:
				p |= 1 << uint(8-i)
			case '-':
			default:
				return 0, fmt.Errorf("invalid permission %q", s)
			}
		}
		return p, nil
	}
	v, err := strconv.ParseUint(s, 8, 16)
	if err != nil || v > 0777 {
		return 0, fmt.Errorf("invalid permission %q", s)
	}
	return Permission(v), nil
}

func isOctal(s string) bool {
	for _, r := range s {
		if r < '0' || r > '7' {
			return false
		}
	}
	return true
}

// FileStatus is an immutable metadata snapshot of one path at query time.
// Values are created fresh for every query and compared by their fields.
type FileStatus struct {
	Path        Path
	IsDir       bool
	Length      int64
	ModTime     time.Time
	BlockSize   int64
	Replication int16
	Owner       string
	Group       string
	Permission  Permission
}

// Name returns the last element of the status path.
func (s FileStatus) Name() string {
	return s.Path.Name()
}

// Defaults are the backend-specific values reported when the storage system
// does not track a field itself.
type Defaults struct {
	BlockSize      int64
	Replication    int16
	FilePermission Permission
	DirPermission  Permission
	Group          string
}

// ReferenceDefaults returns the defaults of the reference distributed
// filesystem: 128 MiB blocks, replication 3, rw-r--r-- files, rwxr-xr-x
// directories and the "supergroup" group.
func ReferenceDefaults() Defaults {
	return Defaults{
		BlockSize:      DefaultBlockSize,
		Replication:    DefaultReplication,
		FilePermission: DefaultFilePermission,
		DirPermission:  DefaultDirPermission,
		Group:          DefaultGroup,
	}
}

// FileStatus builds a file status with these defaults applied.
func (d Defaults) FileStatus(p Path, length int64, modTime time.Time) FileStatus {
	return FileStatus{
		Path:        p,
		Length:      length,
		ModTime:     modTime,
		BlockSize:   d.BlockSize,
		Replication: d.Replication,
		Group:       d.Group,
		Permission:  d.FilePermission,
	}
}

// DirStatus builds a directory status with these defaults applied.
func (d Defaults) DirStatus(p Path, modTime time.Time) FileStatus {
	return FileStatus{
		Path:       p,
		IsDir:      true,
		ModTime:    modTime,
		Group:      d.Group,
		Permission: d.DirPermission,
	}
}

// WithFallback returns d with zero fields taken from fallback.
func (d Defaults) WithFallback(fallback Defaults) Defaults {
	if d.BlockSize == 0 {
		d.BlockSize = fallback.BlockSize
	}
	if d.Replication == 0 {
		d.Replication = fallback.Replication
	}
	if d.FilePermission == 0 {
		d.FilePermission = fallback.FilePermission
	}
	if d.DirPermission == 0 {
		d.DirPermission = fallback.DirPermission
	}
	if d.Group == "" {
		d.Group = fallback.Group
	}
	return d
}
