package local

import (
	"io/fs"
	"strconv"
	"sync"
)

// ownerCache memoizes uid/gid name lookups.
type ownerCache struct {
	mu     sync.Mutex
	users  map[uint32]string
	groups map[uint32]string
}

func newOwnerCache() *ownerCache {
	return &ownerCache{
		users:  make(map[uint32]string),
		groups: make(map[uint32]string),
	}
}

// lookup returns owner and group names for info. Names that cannot be
// resolved fall back to the numeric id; platforms without ownership return "".
func (c *ownerCache) lookup(info fs.FileInfo) (string, string) {
	uid, gid, ok := fileOwner(info)
	if !ok {
		return "", ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	owner, found := c.users[uid]
	if !found {
		owner = userName(uid)
		if owner == "" {
			owner = strconv.FormatUint(uint64(uid), 10)
		}
		c.users[uid] = owner
	}
	group, found := c.groups[gid]
	if !found {
		group = groupName(gid)
		if group == "" {
			group = strconv.FormatUint(uint64(gid), 10)
		}
		c.groups[gid] = group
	}
	return owner, group
}
