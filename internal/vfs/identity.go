package vfs

import (
	"os"
	"os/user"
	"strconv"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// Identity is the owner and group reported for entries whose backend does
// not record them.
type Identity struct {
	User  string
	Group string
}

// CurrentIdentity returns the current OS user with the default group.
// When the account cannot be looked up it falls back to $USER and then to
// the numeric uid.
func CurrentIdentity() Identity {
	id := Identity{Group: fscat.DefaultGroup}
	if u, err := user.Current(); err == nil && u.Username != "" {
		id.User = u.Username
		return id
	}
	if name := os.Getenv("USER"); name != "" {
		id.User = name
		return id
	}
	id.User = strconv.Itoa(os.Getuid())
	return id
}
