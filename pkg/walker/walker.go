// Package walker implements the resumable depth-first tree walk. A walk is
// a pure function of (request, cursor): each call produces at most the
// cursor's quota of hits and a new cursor that either marks the walk
// finished or carries the serialized continuation needed to resume at the
// next unvisited node. No traversal state lives outside the cursor.
package walker

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/redquill/ferret/pkg/config"
	"github.com/redquill/ferret/pkg/scanner"
	"github.com/redquill/ferret/pkg/types"
	"github.com/redquill/ferret/pkg/vfs"
)

// pendingKey is the cursor bag slot holding the serialized frame stack.
const pendingKey = "pending"

// frame is one level of the depth-first traversal: a directory spec and the
// index of the next child to visit within its listing.
type frame struct {
	Spec  types.PathSpec `json:"spec"`
	Index int            `json:"index"`
}

// Walker runs quota-bounded batches of a subtree walk against an Opener.
type Walker struct {
	fs  vfs.Opener
	cfg config.Config
}

// New returns a walker reading through fs. The scanner tunables in cfg are
// used for content-regex probes.
func New(fs vfs.Opener, cfg config.Config) (*Walker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Walker{fs: fs, cfg: cfg}, nil
}

// Walk runs one batch. It emits at most the cursor's quota of hits (zero or
// negative quota means unlimited) and returns the updated cursor. The
// returned cursor must be passed back verbatim, with the same request, to
// continue the walk. Traversal is depth-first in listing order; a node is
// tested before its children, and a directory is recursed into whether or
// not it matched. The root itself is never reported.
func (w *Walker) Walk(req *types.FindRequest) ([]types.StatEntry, types.Cursor, error) {
	if err := req.Validate(); err != nil {
		return nil, req.Cursor, err
	}
	if req.Cursor.Done() {
		return nil, req.Cursor, nil
	}

	var pathRe *regexp.Regexp
	if req.PathRegex != "" {
		pathRe = regexp.MustCompile(req.PathRegex)
	}

	rootDev, err := w.rootDevice(req.Root)
	if err != nil {
		return nil, req.Cursor, err
	}

	stack, err := pendingStack(req)
	if err != nil {
		return nil, req.Cursor, err
	}

	quota := req.Cursor.Quota
	listings := make(map[string][]types.StatEntry)

	var hits []types.StatEntry
	for len(stack) > 0 {
		if quota > 0 && len(hits) >= quota {
			cursor, err := runningCursor(quota, stack)
			if err != nil {
				return nil, req.Cursor, err
			}
			return hits, cursor, nil
		}

		top := &stack[len(stack)-1]
		children, err := w.list(listings, top.Spec)
		if err != nil {
			// Unreadable directory: skip the subtree, keep walking.
			stack = stack[:len(stack)-1]
			continue
		}
		if top.Index >= len(children) {
			stack = stack[:len(stack)-1]
			continue
		}

		child := children[top.Index]
		top.Index++

		// The child frame is pushed before the hit is recorded, so a walk
		// suspended right after reporting a matched directory resumes
		// inside it.
		if child.IsDir() && (req.CrossDevices || child.Device == rootDev) {
			stack = append(stack, frame{Spec: child.Spec})
		}

		if w.matches(child, pathRe, req.DataRegex) {
			hits = append(hits, child)
		}
	}

	return hits, req.Cursor.Finish(), nil
}

// rootDevice records the device id descent is gated on. The root must be
// openable; with no subtree to fall back on, a failure here fails the
// request.
func (w *Walker) rootDevice(root types.PathSpec) (uint64, error) {
	h, err := w.fs.Open(root)
	if err != nil {
		return 0, fmt.Errorf("opening walk root: %w", err)
	}
	defer h.Close()

	st, err := h.Stat()
	if err != nil {
		return 0, fmt.Errorf("stating walk root: %w", err)
	}
	return st.Device, nil
}

// pendingStack restores the frame stack from a running cursor, or starts a
// fresh one at the root.
func pendingStack(req *types.FindRequest) ([]frame, error) {
	raw, ok := req.Cursor.Bag[pendingKey]
	if !ok {
		return []frame{{Spec: req.Root}}, nil
	}
	var stack []frame
	if err := json.Unmarshal([]byte(raw), &stack); err != nil {
		return nil, fmt.Errorf("decoding cursor: %w", err)
	}
	return stack, nil
}

func runningCursor(quota int, stack []frame) (types.Cursor, error) {
	raw, err := json.Marshal(stack)
	if err != nil {
		return types.Cursor{}, fmt.Errorf("encoding cursor: %w", err)
	}
	return types.Cursor{
		Quota: quota,
		State: types.CursorRunning,
		Bag:   map[string]string{pendingKey: string(raw)},
	}, nil
}

// list returns a directory's children, cached for the duration of one call
// so a resumed frame does not relist on every loop turn.
func (w *Walker) list(cache map[string][]types.StatEntry, spec types.PathSpec) ([]types.StatEntry, error) {
	key := spec.Collapse()
	if entries, ok := cache[key]; ok {
		return entries, nil
	}

	h, err := w.fs.Open(spec)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	entries, err := h.ListEntries()
	if err != nil {
		return nil, err
	}
	cache[key] = entries
	return entries, nil
}

// matches applies the path and content filters to one node.
func (w *Walker) matches(node types.StatEntry, pathRe *regexp.Regexp, dataRegex string) bool {
	if pathRe != nil && !pathRe.MatchString(node.Spec.Collapse()) {
		return false
	}
	if dataRegex != "" {
		return node.IsRegular() && w.contentMatches(node, dataRegex)
	}
	return true
}

// contentMatches probes a regular file for at least one occurrence of the
// content expression. A node that cannot be opened or scanned is treated as
// a non-match, not an error.
func (w *Walker) contentMatches(node types.StatEntry, expr string) bool {
	h, err := w.fs.Open(node.Spec)
	if err != nil {
		return false
	}
	defer h.Close()

	s, err := scanner.New(h, &types.GrepRequest{Target: node.Spec, Regex: expr}, w.cfg)
	if err != nil {
		return false
	}
	return s.Scan()
}
