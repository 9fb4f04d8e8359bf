//go:build !unix

package local

import "io/fs"

func fileOwner(fs.FileInfo) (uint32, uint32, bool) { return 0, 0, false }

func userName(uint32) string { return "" }

func groupName(uint32) string { return "" }

func currentUmask() fs.FileMode { return fallbackUmask }
