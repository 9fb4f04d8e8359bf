package local

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// fallbackUmask applies when the umask cannot be determined.
const fallbackUmask fs.FileMode = 0o022

// parseStatusUmask extracts the "Umask:" field of a /proc/<pid>/status file.
func parseStatusUmask(r io.Reader) (fs.FileMode, bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		value, found := strings.CutPrefix(sc.Text(), "Umask:")
		if !found {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(value), 8, 16)
		if err != nil || v > 0o777 {
			return 0, false
		}
		return fs.FileMode(v), true
	}
	return 0, false
}

// probeUmask creates a file in dir with mode 0666 and derives the umask
// from the mode it was given.
func probeUmask(dir string) fs.FileMode {
	f, err := os.CreateTemp(dir, ".fscat-umask-*")
	if err != nil {
		return fallbackUmask
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	// CreateTemp always uses 0600, so recreate the file with a known mode.
	f, err = os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o666)
	if err != nil {
		return fallbackUmask
	}
	defer os.Remove(name)
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fallbackUmask
	}
	return 0o666 &^ info.Mode().Perm()
}
