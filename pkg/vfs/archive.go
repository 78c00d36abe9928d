package vfs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/redquill/ferret/pkg/types"
)

func init() {
	Register(types.PathTypeArchive, openArchive)
}

// member is one entry of a container's flattened namespace.
type member struct {
	name  string // slash-separated path inside the container, no leading slash
	mode  fs.FileMode
	size  int64
	isDir bool
	open  func() (io.ReadCloser, error)
}

// openArchive resolves an archive segment against the container addressed
// by the preceding segments. Supported containers: .zip and .7z, selected
// by the container's extension. Member content is decompressed into memory
// when a file member is opened; the container handle is released before the
// member handle is returned.
func openArchive(base Handle, spec types.PathSpec) (Handle, error) {
	if base == nil {
		return nil, fmt.Errorf("vfs: archive segment needs a container layer")
	}
	defer base.Close()

	if base.IsDirectory() {
		return nil, fmt.Errorf("vfs: archive container is a directory: %w", ErrNotDirectory)
	}

	st, err := base.Stat()
	if err != nil {
		return nil, fmt.Errorf("vfs: stat archive container: %w", err)
	}

	members, err := listContainer(base, st)
	if err != nil {
		return nil, err
	}

	target := strings.Trim(path.Clean("/"+spec.Last().Path), "/")
	if target == "." {
		target = ""
	}

	// Exact file member wins over a same-named directory prefix.
	for _, m := range members {
		if m.name == target && !m.isDir {
			return openMember(spec, m)
		}
	}

	if children, ok := listChildren(members, target); ok {
		return &archiveDirHandle{spec: spec, children: childEntries(spec, children)}, nil
	}

	return nil, fmt.Errorf("vfs: %s: no member %q: %w", st.Spec.Collapse(), target, ErrNotFound)
}

// listContainer opens the container with the reader matching its extension
// and flattens its member table.
func listContainer(base Handle, st types.StatEntry) ([]member, error) {
	ra, size, err := containerReaderAt(base, st)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(path.Ext(st.Spec.Basename())); ext {
	case ".zip":
		zr, err := zip.NewReader(ra, size)
		if err != nil {
			return nil, fmt.Errorf("vfs: reading zip %s: %w", st.Spec.Collapse(), err)
		}
		members := make([]member, 0, len(zr.File))
		for _, f := range zr.File {
			members = append(members, zipMember(f))
		}
		return members, nil
	case ".7z":
		szr, err := sevenzip.NewReader(ra, size)
		if err != nil {
			return nil, fmt.Errorf("vfs: reading 7z %s: %w", st.Spec.Collapse(), err)
		}
		members := make([]member, 0, len(szr.File))
		for _, f := range szr.File {
			members = append(members, sevenzipMember(f))
		}
		return members, nil
	default:
		return nil, fmt.Errorf("vfs: unsupported archive container %q", ext)
	}
}

func zipMember(f *zip.File) member {
	fi := f.FileInfo()
	return member{
		name:  strings.Trim(f.Name, "/"),
		mode:  fi.Mode(),
		size:  fi.Size(),
		isDir: fi.IsDir(),
		open:  func() (io.ReadCloser, error) { return f.Open() },
	}
}

func sevenzipMember(f *sevenzip.File) member {
	fi := f.FileInfo()
	return member{
		name:  strings.Trim(f.Name, "/"),
		mode:  fi.Mode(),
		size:  fi.Size(),
		isDir: fi.IsDir(),
		open:  func() (io.ReadCloser, error) { return f.Open() },
	}
}

// containerReaderAt exposes the container as an io.ReaderAt. OS handles
// support ReadAt directly; other layers are buffered.
func containerReaderAt(base Handle, st types.StatEntry) (io.ReaderAt, int64, error) {
	if ra, ok := base.(io.ReaderAt); ok {
		return ra, st.Size, nil
	}
	data, err := io.ReadAll(base)
	if err != nil {
		return nil, 0, fmt.Errorf("vfs: buffering archive container: %w", err)
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

// openMember decompresses one file member into a seekable handle.
func openMember(spec types.PathSpec, m member) (Handle, error) {
	rc, err := m.open()
	if err != nil {
		return nil, fmt.Errorf("vfs: opening member %s: %w", m.name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("vfs: reading member %s: %w", m.name, err)
	}

	return &archiveFileHandle{
		spec:   spec,
		mode:   m.mode,
		reader: bytes.NewReader(data),
		size:   int64(len(data)),
	}, nil
}

// listChildren collects the immediate children of target. ok is false when
// target names neither a directory member nor a prefix of any member.
func listChildren(members []member, target string) ([]member, bool) {
	found := target == ""
	var children []member
	seen := make(map[string]int)

	prefix := ""
	if target != "" {
		prefix = target + "/"
	}

	for _, m := range members {
		if m.name == target && m.isDir {
			found = true
			continue
		}
		if !strings.HasPrefix(m.name, prefix) || m.name == target {
			continue
		}
		found = true
		rest := strings.TrimPrefix(m.name, prefix)
		head, _, nested := strings.Cut(rest, "/")
		if head == "" {
			continue
		}
		if i, ok := seen[head]; ok {
			// An explicit member entry refines a synthesized directory.
			if nested {
				children[i].isDir = true
			} else {
				children[i] = childMember(m, head, false)
			}
			continue
		}
		seen[head] = len(children)
		if nested {
			children = append(children, member{name: head, mode: fs.ModeDir | 0o755, isDir: true})
		} else {
			children = append(children, childMember(m, head, m.isDir))
		}
	}
	return children, found
}

func childMember(m member, head string, isDir bool) member {
	mode := m.mode
	if isDir && !mode.IsDir() {
		mode = fs.ModeDir | 0o755
	}
	return member{name: head, mode: mode, size: m.size, isDir: isDir}
}

// childEntries builds StatEntries whose specs address each child through
// the same container.
func childEntries(spec types.PathSpec, children []member) []types.StatEntry {
	parent := types.PathSpec{Segments: append([]types.Segment(nil), spec.Segments[:len(spec.Segments)-1]...)}
	dir := strings.Trim(path.Clean("/"+spec.Last().Path), "/")
	if dir == "." {
		dir = ""
	}

	entries := make([]types.StatEntry, 0, len(children))
	for _, c := range children {
		name := c.name
		if dir != "" {
			name = dir + "/" + c.name
		}
		entries = append(entries, types.StatEntry{
			Spec: parent.Append(types.Segment{Path: name, Type: types.PathTypeArchive}),
			Mode: c.mode,
			Size: c.size,
		})
	}
	return entries
}

// archiveFileHandle serves a decompressed member from memory.
type archiveFileHandle struct {
	spec   types.PathSpec
	mode   fs.FileMode
	reader *bytes.Reader
	size   int64
}

func (h *archiveFileHandle) Read(p []byte) (int, error) {
	return h.reader.Read(p)
}

func (h *archiveFileHandle) Seek(offset int64, whence int) (int64, error) {
	return h.reader.Seek(offset, whence)
}

func (h *archiveFileHandle) Close() error { return nil }

func (h *archiveFileHandle) IsDirectory() bool { return false }

func (h *archiveFileHandle) Stat() (types.StatEntry, error) {
	return types.StatEntry{Spec: h.spec, Mode: h.mode, Size: h.size}, nil
}

func (h *archiveFileHandle) ListEntries() ([]types.StatEntry, error) {
	return nil, ErrNotDirectory
}

// archiveDirHandle serves a directory level of a container's namespace.
type archiveDirHandle struct {
	spec     types.PathSpec
	children []types.StatEntry
}

func (h *archiveDirHandle) Read(p []byte) (int, error) { return 0, ErrIsDirectory }

func (h *archiveDirHandle) Seek(offset int64, whence int) (int64, error) {
	return 0, ErrIsDirectory
}

func (h *archiveDirHandle) Close() error { return nil }

func (h *archiveDirHandle) IsDirectory() bool { return true }

func (h *archiveDirHandle) Stat() (types.StatEntry, error) {
	return types.StatEntry{Spec: h.spec, Mode: fs.ModeDir | 0o755}, nil
}

func (h *archiveDirHandle) ListEntries() ([]types.StatEntry, error) {
	return h.children, nil
}
