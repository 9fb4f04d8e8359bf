package fscat

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Path identifies a location on a backend: scheme, authority and a
// slash-separated path. A Path produced by ParsePath may be relative or lack
// a scheme; Resolve turns it into the absolute form backends receive.
type Path struct {
	Scheme    string
	Authority string
	Path      string
}

// schemePrefix matches an RFC 3986 scheme followed by a colon.
var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// ParsePath parses a path string.
//
// Strings starting with "scheme:" are parsed as URIs ("file:///tmp/x",
// "s3://bucket/key", "mem:/dir"). Anything else is taken literally as a
// slash-separated path, so local names containing '%', '?' or '#' survive
// unchanged. Single-letter schemes are treated as literal paths to keep
// drive-letter style names intact.
func ParsePath(raw string) (Path, error) {
	if strings.TrimSpace(raw) == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(raw, 0) {
		return Path{}, fmt.Errorf("%w: path contains NUL byte: %q", ErrInvalidPath, raw)
	}

	m := schemePrefix.FindString(raw)
	if len(m) <= 2 {
		return Path{Path: cleanSegments(raw)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return Path{}, fmt.Errorf("%w: query and fragment are not allowed: %q", ErrInvalidPath, raw)
	}

	p := Path{Scheme: strings.ToLower(u.Scheme), Authority: u.Host}
	switch {
	case u.Opaque != "":
		// "mem:dir/file" names a path relative to the working directory.
		opaque, err := url.PathUnescape(u.Opaque)
		if err != nil {
			return Path{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		p.Path = cleanSegments(opaque)
	case u.Path == "":
		p.Path = "/"
	default:
		p.Path = cleanSegments(u.Path)
	}
	return p, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for tests
// and package-level variables.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// cleanSegments cleans absolute paths and keeps relative ones relative.
func cleanSegments(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// IsAbs reports whether the path component is absolute.
func (p Path) IsAbs() bool {
	return strings.HasPrefix(p.Path, "/")
}

// Resolve fills in a missing scheme and joins a relative path onto
// workingDir. ".." segments that climb above the root stop at "/".
func (p Path) Resolve(defaultScheme, workingDir string) Path {
	if p.Scheme == "" {
		p.Scheme = defaultScheme
	}
	if !p.IsAbs() {
		if workingDir == "" {
			workingDir = "/"
		}
		p.Path = path.Join(workingDir, p.Path)
	}
	p.Path = path.Clean("/" + p.Path)
	return p
}

// Name returns the last element of the path, or "/" for the root.
func (p Path) Name() string {
	return path.Base(p.Path)
}

// Parent returns the path of the enclosing directory. The root is its own parent.
func (p Path) Parent() Path {
	p.Path = path.Dir(p.Path)
	return p
}

// Child returns the path of name inside p.
func (p Path) Child(name string) Path {
	p.Path = path.Join(p.Path, name)
	return p
}

// IsRoot reports whether p names the root directory.
func (p Path) IsRoot() bool {
	return p.Path == "/"
}

// String renders the path in URI form, or as a bare path when no scheme is set.
func (p Path) String() string {
	if p.Scheme == "" {
		return p.Path
	}
	u := url.URL{Scheme: p.Scheme, Host: p.Authority, Path: p.Path}
	if p.Authority == "" {
		// url.URL omits the empty authority; keep the "scheme://" form.
		return p.Scheme + "://" + u.EscapedPath()
	}
	return u.String()
}
