//go:build unix

package local

import (
	"io/fs"
	"os"
	"os/user"
	"strconv"
	"sync"
	"syscall"
)

func fileOwner(info fs.FileInfo) (uint32, uint32, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return st.Uid, st.Gid, true
}

func userName(uid uint32) string {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return ""
	}
	return u.Username
}

func groupName(gid uint32) string {
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		return ""
	}
	return g.Name
}

var (
	umaskOnce sync.Once
	umask     fs.FileMode
)

// currentUmask reads the process umask without changing it. Linux reports
// it in /proc/self/status; elsewhere the mode of a freshly created file
// reveals it.
func currentUmask() fs.FileMode {
	umaskOnce.Do(func() {
		if f, err := os.Open("/proc/self/status"); err == nil {
			m, ok := parseStatusUmask(f)
			f.Close()
			if ok {
				umask = m
				return
			}
		}
		umask = probeUmask(os.TempDir())
	})
	return umask
}
