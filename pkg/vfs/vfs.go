// Package vfs defines the virtual filesystem boundary the search engines
// run against. A PathSpec is resolved segment by segment: each segment's
// path type selects a registered handler, which opens the segment's path on
// top of the handle produced by the segments before it. Concrete handlers
// for the host filesystem and for archive containers live in this package;
// additional layers register themselves the same way.
package vfs

import (
	"errors"
	"fmt"
	"io"

	"github.com/redquill/ferret/pkg/types"
)

var (
	// ErrNotFound reports that a spec addresses no existing node.
	ErrNotFound = errors.New("vfs: not found")

	// ErrIsDirectory reports a byte-level operation on a directory.
	ErrIsDirectory = errors.New("vfs: is a directory")

	// ErrNotDirectory reports a listing operation on a non-directory.
	ErrNotDirectory = errors.New("vfs: not a directory")
)

// Handle is an opened filesystem node. Reads may return fewer bytes than
// requested only at end-of-data. Reading or seeking a directory fails with
// ErrIsDirectory; listing a file fails with ErrNotDirectory.
type Handle interface {
	io.Reader
	io.Seeker
	io.Closer

	// Stat returns the node's metadata, including its full PathSpec.
	Stat() (types.StatEntry, error)

	// IsDirectory reports whether the node can be listed.
	IsDirectory() bool

	// ListEntries returns the node's children in the order the underlying
	// layer yields them. Each entry carries the child's full PathSpec.
	ListEntries() ([]types.StatEntry, error)
}

// Opener resolves a PathSpec to an open Handle. The walker and the facade
// accept any Opener, so tests substitute fixtures for the registry.
type Opener interface {
	Open(types.PathSpec) (Handle, error)
}

// HandlerFunc opens one segment layer. base is the handle produced by the
// preceding segments (nil for the first segment); spec is the accumulated
// spec up to and including this segment, whose last segment is the one to
// resolve. The handler owns base afterwards and must close it when the
// returned handle is closed, or on error.
type HandlerFunc func(base Handle, spec types.PathSpec) (Handle, error)

// Registry maps path types to their handlers.
type Registry struct {
	handlers map[types.PathType]HandlerFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[types.PathType]HandlerFunc)}
}

// Register installs the handler for a path type, replacing any previous one.
func (r *Registry) Register(typ types.PathType, fn HandlerFunc) {
	r.handlers[typ] = fn
}

// Open resolves spec left to right, layering one handler per segment.
func (r *Registry) Open(spec types.PathSpec) (Handle, error) {
	if spec.IsZero() {
		return nil, fmt.Errorf("vfs: empty pathspec: %w", ErrNotFound)
	}

	var h Handle
	acc := types.PathSpec{}
	for _, seg := range spec.Segments {
		fn, ok := r.handlers[seg.Type]
		if !ok {
			if h != nil {
				h.Close()
			}
			return nil, fmt.Errorf("vfs: no handler for path type %q", seg.Type)
		}
		acc = acc.Append(seg)
		next, err := fn(h, acc)
		if err != nil {
			return nil, err
		}
		h = next
	}
	return h, nil
}

// Default is the process registry; concrete handlers install themselves
// into it at init time.
var Default = NewRegistry()

// Register installs a handler into the default registry.
func Register(typ types.PathType, fn HandlerFunc) {
	Default.Register(typ, fn)
}

// Open resolves a spec against the default registry.
func Open(spec types.PathSpec) (Handle, error) {
	return Default.Open(spec)
}
