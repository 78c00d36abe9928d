//go:build unix

package vfs

import (
	"os"
	"syscall"
)

// deviceID extracts the st_dev of a node. The walker uses it to keep a
// traversal from crossing filesystem boundaries.
func deviceID(fi os.FileInfo) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Dev)
	}
	return 0
}
