package pgstore

import (
	"path"

	"github.com/google/uuid"
)

// NamespaceEntry is the UUID v5 namespace for entry ids, derived from
// "fscat/entry/v1" under the URL namespace.
var NamespaceEntry = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fscat/entry/v1"))

// EntryID returns the deterministic id of the entry at p.
func EntryID(p string) uuid.UUID {
	return uuid.NewSHA1(NamespaceEntry, []byte(path.Clean("/"+p)))
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS fscat_entry (
    id          uuid PRIMARY KEY,
    path        text NOT NULL UNIQUE,
    parent      text NOT NULL,
    is_dir      boolean NOT NULL,
    content     oid,
    length      bigint NOT NULL DEFAULT 0,
    modified_at timestamptz NOT NULL DEFAULT clock_timestamp(),
    owner       text NOT NULL DEFAULT '',
    "group"     text NOT NULL DEFAULT '',
    perm        integer NOT NULL
);
CREATE INDEX IF NOT EXISTS fscat_entry_parent_idx ON fscat_entry (parent);
`

const insertRootSQL = `
INSERT INTO fscat_entry (id, path, parent, is_dir, owner, "group", perm)
VALUES ($1, '/', '', true, $2, $3, $4)
ON CONFLICT (path) DO NOTHING`

const selectEntrySQL = `
SELECT is_dir, content, length, modified_at, owner, "group", perm
FROM fscat_entry WHERE path = $1`

const selectChildrenSQL = `
SELECT path, is_dir, content, length, modified_at, owner, "group", perm
FROM fscat_entry WHERE parent = $1 ORDER BY path`

const insertDirSQL = `
INSERT INTO fscat_entry (id, path, parent, is_dir, owner, "group", perm)
VALUES ($1, $2, $3, true, $4, $5, $6)
ON CONFLICT (path) DO NOTHING`

const upsertFileSQL = `
INSERT INTO fscat_entry (id, path, parent, is_dir, content, length, modified_at, owner, "group", perm)
VALUES ($1, $2, $3, false, $4, $5, clock_timestamp(), $6, $7, $8)
ON CONFLICT (path) DO UPDATE SET
    content = EXCLUDED.content,
    length = EXCLUDED.length,
    modified_at = EXCLUDED.modified_at
WHERE NOT fscat_entry.is_dir`

// parentOf returns the parent path stored for p. The root has none.
func parentOf(p string) string {
	if p == "/" {
		return ""
	}
	return path.Dir(p)
}

// ancestors returns every directory above p, root first, excluding p.
func ancestors(p string) []string {
	var dirs []string
	for dir := parentOf(p); dir != ""; dir = parentOf(dir) {
		dirs = append(dirs, dir)
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}

// cleanKey normalizes a backend path to the stored form.
func cleanKey(p string) string {
	return path.Clean("/" + p)
}
