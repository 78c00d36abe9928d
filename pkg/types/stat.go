package types

import "io/fs"

// StatEntry is the filesystem metadata for one node. Entries are produced
// fresh per directory listing and never mutated afterwards.
type StatEntry struct {
	Spec   PathSpec    `json:"spec"`
	Mode   fs.FileMode `json:"mode"`
	Size   int64       `json:"size"`
	Device uint64      `json:"device"`
}

// IsDir reports whether the entry describes a directory.
func (e StatEntry) IsDir() bool {
	return e.Mode.IsDir()
}

// IsRegular reports whether the entry describes a regular file.
func (e StatEntry) IsRegular() bool {
	return e.Mode.IsRegular()
}
