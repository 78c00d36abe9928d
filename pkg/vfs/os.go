package vfs

import (
	"fmt"
	"os"

	"github.com/redquill/ferret/pkg/types"
)

func init() {
	Register(types.PathTypeOS, openOS)
}

// openOS opens a host filesystem node. An os segment nested under another
// os segment is a relative path; the collapsed spec addresses the node, so
// the outer handle is subsumed and closed. Nesting under any other layer is
// not supported.
func openOS(base Handle, spec types.PathSpec) (Handle, error) {
	if base != nil {
		_, onOS := base.(*osHandle)
		base.Close()
		if !onOS {
			return nil, fmt.Errorf("vfs: os segment cannot be nested inside %T", base)
		}
	}

	path := spec.Collapse()
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vfs: %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("vfs: stat %s: %w", path, err)
	}

	h := &osHandle{spec: spec, path: path, isDir: fi.IsDir()}
	if !h.isDir {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("vfs: %s: %w", path, ErrNotFound)
			}
			return nil, fmt.Errorf("vfs: open %s: %w", path, err)
		}
		h.file = f
	}
	return h, nil
}

type osHandle struct {
	spec  types.PathSpec
	path  string
	isDir bool
	file  *os.File // nil for directories
}

func (h *osHandle) Read(p []byte) (int, error) {
	if h.isDir {
		return 0, ErrIsDirectory
	}
	return h.file.Read(p)
}

func (h *osHandle) Seek(offset int64, whence int) (int64, error) {
	if h.isDir {
		return 0, ErrIsDirectory
	}
	return h.file.Seek(offset, whence)
}

func (h *osHandle) Close() error {
	if h.file != nil {
		return h.file.Close()
	}
	return nil
}

func (h *osHandle) IsDirectory() bool {
	return h.isDir
}

func (h *osHandle) Stat() (types.StatEntry, error) {
	fi, err := os.Stat(h.path)
	if err != nil {
		return types.StatEntry{}, fmt.Errorf("vfs: stat %s: %w", h.path, err)
	}
	return types.StatEntry{
		Spec:   h.spec,
		Mode:   fi.Mode(),
		Size:   fi.Size(),
		Device: deviceID(fi),
	}, nil
}

func (h *osHandle) ListEntries() ([]types.StatEntry, error) {
	if !h.isDir {
		return nil, ErrNotDirectory
	}

	dirents, err := os.ReadDir(h.path)
	if err != nil {
		return nil, fmt.Errorf("vfs: list %s: %w", h.path, err)
	}

	entries := make([]types.StatEntry, 0, len(dirents))
	for _, de := range dirents {
		fi, err := de.Info()
		if err != nil {
			// Entry vanished between listing and stat; skip it.
			continue
		}
		entries = append(entries, types.StatEntry{
			Spec:   h.spec.AppendPath(de.Name()),
			Mode:   fi.Mode(),
			Size:   fi.Size(),
			Device: deviceID(fi),
		})
	}
	return entries, nil
}

// ReadAt lets the archive layer slice the container without buffering it.
func (h *osHandle) ReadAt(p []byte, off int64) (int, error) {
	if h.isDir {
		return 0, ErrIsDirectory
	}
	return h.file.ReadAt(p, off)
}
