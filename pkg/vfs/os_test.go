package vfs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redquill/ferret/pkg/types"
)

// writeTree lays out a small fixture directory.
func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("Secret 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("Another file"), 0o644))
	return root
}

func TestOpenOSFile(t *testing.T) {
	root := writeTree(t)

	h, err := Open(types.OSPath(filepath.Join(root, "a.txt")))
	require.NoError(t, err)
	defer h.Close()

	assert.False(t, h.IsDirectory())

	data, err := io.ReadAll(h)
	require.NoError(t, err)
	assert.Equal(t, "Secret 1", string(data))

	// Seek back and reread a slice.
	_, err = h.Seek(7, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(h)
	require.NoError(t, err)
	assert.Equal(t, "1", string(rest))

	st, err := h.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(8), st.Size)
	assert.True(t, st.IsRegular())

	_, err = h.ListEntries()
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestOpenOSDirectory(t *testing.T) {
	root := writeTree(t)

	h, err := Open(types.OSPath(root))
	require.NoError(t, err)
	defer h.Close()

	assert.True(t, h.IsDirectory())

	buf := make([]byte, 8)
	_, err = h.Read(buf)
	assert.ErrorIs(t, err, ErrIsDirectory)

	entries, err := h.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// os.ReadDir yields lexical order.
	assert.Equal(t, "a.txt", entries[0].Spec.Basename())
	assert.True(t, entries[0].IsRegular())
	assert.Equal(t, "sub", entries[1].Spec.Basename())
	assert.True(t, entries[1].IsDir())

	// Children on the same filesystem share the parent's device.
	st, err := h.Stat()
	require.NoError(t, err)
	assert.Equal(t, st.Device, entries[0].Device)
}

func TestReopenListedChild(t *testing.T) {
	root := writeTree(t)

	h, err := Open(types.OSPath(root))
	require.NoError(t, err)
	defer h.Close()

	entries, err := h.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Child specs carry a nested os segment; they must resolve back to the
	// same node.
	child, err := Open(entries[0].Spec)
	require.NoError(t, err)
	defer child.Close()

	data, err := io.ReadAll(child)
	require.NoError(t, err)
	assert.Equal(t, "Secret 1", string(data))
}

func TestOpenOSNotFound(t *testing.T) {
	_, err := Open(types.OSPath(filepath.Join(t.TempDir(), "absent")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenEmptySpec(t *testing.T) {
	_, err := Open(types.PathSpec{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenUnknownPathType(t *testing.T) {
	_, err := Open(types.NewPathSpec("/x", types.PathType("registry")))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
