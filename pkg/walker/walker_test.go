package walker

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redquill/ferret/pkg/config"
	"github.com/redquill/ferret/pkg/types"
	"github.com/redquill/ferret/pkg/vfs"
)

// mockNode is one entry of the in-memory fixture tree.
type mockNode struct {
	dev      uint64
	dir      bool
	content  string
	children []string // basenames, in listing order
	broken   bool     // listed by the parent but fails to open
}

type mockFS struct {
	nodes map[string]*mockNode
}

func (m *mockFS) Open(spec types.PathSpec) (vfs.Handle, error) {
	n, ok := m.nodes[spec.Collapse()]
	if !ok || n.broken {
		return nil, vfs.ErrNotFound
	}
	return &mockHandle{fs: m, spec: spec, node: n, r: bytes.NewReader([]byte(n.content))}, nil
}

type mockHandle struct {
	fs   *mockFS
	spec types.PathSpec
	node *mockNode
	r    *bytes.Reader
}

func (h *mockHandle) Read(p []byte) (int, error) {
	if h.node.dir {
		return 0, vfs.ErrIsDirectory
	}
	return h.r.Read(p)
}

func (h *mockHandle) Seek(offset int64, whence int) (int64, error) {
	if h.node.dir {
		return 0, vfs.ErrIsDirectory
	}
	return h.r.Seek(offset, whence)
}

func (h *mockHandle) Close() error { return nil }

func (h *mockHandle) IsDirectory() bool { return h.node.dir }

func (h *mockHandle) Stat() (types.StatEntry, error) {
	return h.fs.stat(h.spec, h.node), nil
}

func (h *mockHandle) ListEntries() ([]types.StatEntry, error) {
	if !h.node.dir {
		return nil, vfs.ErrNotDirectory
	}
	entries := make([]types.StatEntry, 0, len(h.node.children))
	for _, name := range h.node.children {
		child := h.spec.AppendPath(name)
		entries = append(entries, h.fs.stat(child, h.fs.nodes[child.Collapse()]))
	}
	return entries, nil
}

func (m *mockFS) stat(spec types.PathSpec, n *mockNode) types.StatEntry {
	mode := fs.FileMode(0o644)
	if n.dir {
		mode = fs.ModeDir | 0o755
	}
	return types.StatEntry{
		Spec:   spec,
		Mode:   mode,
		Size:   int64(len(n.content)),
		Device: n.dev,
	}
}

// fixtureFS builds a two-device tree: everything on device 2 except the
// directory3 subtree, which sits on device 1.
func fixtureFS() *mockFS {
	longFile := strings.Repeat("space ", 2000) + "A Secret"
	return &mockFS{nodes: map[string]*mockNode{
		"/mock2":                                {dev: 2, dir: true, children: []string{"directory1", "directory3"}},
		"/mock2/directory1":                     {dev: 2, dir: true, children: []string{"file1.txt", "file2.txt", "directory2"}},
		"/mock2/directory1/file1.txt":           {dev: 2, content: "Secret"},
		"/mock2/directory1/file2.txt":           {dev: 2, content: "Another file"},
		"/mock2/directory1/directory2":          {dev: 2, dir: true, children: []string{"file.jpg", "file.mp3"}},
		"/mock2/directory1/directory2/file.jpg": {dev: 2, content: "%PDF-1.3 ..."},
		"/mock2/directory1/directory2/file.mp3": {dev: 2, content: "ID3..."},
		"/mock2/directory3":                     {dev: 1, dir: true, children: []string{"file1.txt", "long_file.text"}},
		"/mock2/directory3/file1.txt":           {dev: 1, content: "A text file"},
		"/mock2/directory3/long_file.text":      {dev: 1, content: longFile},
	}}
}

func testWalker(t *testing.T, fs vfs.Opener) *Walker {
	t.Helper()
	w, err := New(fs, config.Config{BlockSize: 1000, OverlapSize: 100, HitLimit: 100})
	require.NoError(t, err)
	return w
}

func paths(hits []types.StatEntry) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Spec.Collapse()
	}
	return out
}

// runToCompletion drives a walk with the given per-call quota, feeding each
// returned cursor back through a JSON round-trip to prove it survives
// serialization.
func runToCompletion(t *testing.T, w *Walker, req types.FindRequest, quota int) []types.StatEntry {
	t.Helper()

	req.Cursor = types.Cursor{Quota: quota}
	var all []types.StatEntry
	for i := 0; ; i++ {
		require.Less(t, i, 100, "walk did not terminate")

		hits, cursor, err := w.Walk(&req)
		require.NoError(t, err)
		all = append(all, hits...)

		if cursor.Done() {
			assert.Empty(t, cursor.Bag)
			return all
		}
		require.Equal(t, types.CursorRunning, cursor.State)

		raw, err := json.Marshal(cursor)
		require.NoError(t, err)
		req.Cursor = types.Cursor{}
		require.NoError(t, json.Unmarshal(raw, &req.Cursor))
	}
}

func TestWalkWholeTree(t *testing.T) {
	w := testWalker(t, fixtureFS())

	hits := runToCompletion(t, w, types.FindRequest{Root: types.OSPath("/mock2"), CrossDevices: true}, 0)
	assert.Equal(t, []string{
		"/mock2/directory1",
		"/mock2/directory1/file1.txt",
		"/mock2/directory1/file2.txt",
		"/mock2/directory1/directory2",
		"/mock2/directory1/directory2/file.jpg",
		"/mock2/directory1/directory2/file.mp3",
		"/mock2/directory3",
		"/mock2/directory3/file1.txt",
		"/mock2/directory3/long_file.text",
	}, paths(hits))
}

func TestDeviceBoundary(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{Root: types.OSPath("/mock2")}

	// directory3 sits on another device: it is still reported, but not
	// descended into.
	hits := runToCompletion(t, w, req, 0)
	require.Len(t, hits, 7)
	assert.Contains(t, paths(hits), "/mock2/directory3")
	assert.NotContains(t, paths(hits), "/mock2/directory3/file1.txt")

	req.CrossDevices = true
	hits = runToCompletion(t, w, req, 0)
	assert.Len(t, hits, 9)
}

func TestPathRegex(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{Root: types.OSPath("/mock2"), PathRegex: ".*mp3", CrossDevices: true}

	hits := runToCompletion(t, w, req, 0)
	assert.Equal(t, []string{"/mock2/directory1/directory2/file.mp3"}, paths(hits))
}

func TestDataRegex(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{Root: types.OSPath("/mock2"), DataRegex: "Secret", CrossDevices: true}

	// The second hit lies past the first scanner block of a long file.
	hits := runToCompletion(t, w, req, 0)
	assert.Equal(t, []string{
		"/mock2/directory1/file1.txt",
		"/mock2/directory3/long_file.text",
	}, paths(hits))
}

func TestPathAndDataRegexCombined(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{
		Root:         types.OSPath("/mock2"),
		PathRegex:    ".*txt",
		DataRegex:    "Secret",
		CrossDevices: true,
	}

	hits := runToCompletion(t, w, req, 0)
	assert.Equal(t, []string{"/mock2/directory1/file1.txt"}, paths(hits))
}

func TestResumptionEquivalence(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{Root: types.OSPath("/mock2"), CrossDevices: true}

	oneShot := runToCompletion(t, w, req, 0)
	for _, quota := range []int{1, 2, 4} {
		assert.Equal(t, paths(oneShot), paths(runToCompletion(t, w, req, quota)), "quota %d", quota)
	}
}

func TestSuspendedCallReturnsHitsAndRunningCursor(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{
		Root:         types.OSPath("/mock2"),
		CrossDevices: true,
		Cursor:       types.Cursor{Quota: 3},
	}

	hits, cursor, err := w.Walk(&req)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// The suspended cursor carries the serialized pending stack alongside
	// the hits; neither is lost to the other.
	assert.Equal(t, types.CursorRunning, cursor.State)
	assert.Equal(t, 3, cursor.Quota)
	require.Contains(t, cursor.Bag, "pending")
	assert.NotEmpty(t, cursor.Bag["pending"])
}

func TestFinishedCursorIsTerminal(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{
		Root:   types.OSPath("/mock2"),
		Cursor: types.Cursor{State: types.CursorFinished},
	}

	hits, cursor, err := w.Walk(&req)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.True(t, cursor.Done())
}

func TestUnreadableSubtreeSkipped(t *testing.T) {
	fsys := fixtureFS()
	fsys.nodes["/mock2/directory1/directory2"].broken = true

	w := testWalker(t, fsys)
	hits := runToCompletion(t, w, types.FindRequest{Root: types.OSPath("/mock2"), CrossDevices: true}, 0)

	// The unreadable directory is still reported from its parent's listing;
	// its children are not.
	assert.Contains(t, paths(hits), "/mock2/directory1/directory2")
	assert.NotContains(t, paths(hits), "/mock2/directory1/directory2/file.mp3")
	assert.Len(t, hits, 7)
}

func TestUnreadableFileNotAContentMatch(t *testing.T) {
	fsys := fixtureFS()
	fsys.nodes["/mock2/directory1/file1.txt"].broken = true

	w := testWalker(t, fsys)
	req := types.FindRequest{Root: types.OSPath("/mock2"), DataRegex: "Secret", CrossDevices: true}

	hits := runToCompletion(t, w, req, 0)
	assert.Equal(t, []string{"/mock2/directory3/long_file.text"}, paths(hits))
}

func TestMissingRootFailsRequest(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{Root: types.OSPath("/nonexistent")}

	_, _, err := w.Walk(&req)
	assert.Error(t, err)
}

func TestMatchedDirectoryResumesIntoChildren(t *testing.T) {
	w := testWalker(t, fixtureFS())
	req := types.FindRequest{
		Root:         types.OSPath("/mock2"),
		PathRegex:    "directory2",
		CrossDevices: true,
	}

	// With quota 1 the first call ends right after reporting directory2;
	// the resumed call must still visit its children.
	hits := runToCompletion(t, w, req, 1)
	assert.Equal(t, []string{
		"/mock2/directory1/directory2",
		"/mock2/directory1/directory2/file.jpg",
		"/mock2/directory1/directory2/file.mp3",
	}, paths(hits))
}
