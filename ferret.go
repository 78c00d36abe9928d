// Package ferret provides content and filesystem search primitives for
// remote forensic collection: a chunked byte scanner that greps arbitrarily
// large streams in bounded memory, and a resumable depth-first tree walker
// driven by a serializable cursor.
//
// # Grepping a file
//
// Create a searcher and scan a target for a literal pattern:
//
//	searcher, err := ferret.NewSearcher()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer searcher.Close()
//
//	matches, err := searcher.Grep(&ferret.GrepRequest{
//	    Target:      ferret.OSPath("/var/log/auth.log"),
//	    Literal:     []byte("Failed password"),
//	    BytesBefore: 10,
//	    BytesAfter:  10,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, m := range matches {
//	    fmt.Printf("hit at offset %d\n", m.Offset)
//	}
//
// # Walking a tree in batches
//
// A walk emits at most the cursor's quota of hits per call and returns a
// continuation; pass it back verbatim to resume:
//
//	req := &ferret.FindRequest{
//	    Root:      ferret.OSPath("/home"),
//	    PathRegex: `\.ssh/id_rsa$`,
//	    Cursor:    ferret.Cursor{Quota: 100},
//	}
//	for {
//	    hits, cursor, err := searcher.Find(req)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    report(hits)
//	    if cursor.Done() {
//	        break
//	    }
//	    req.Cursor = cursor
//	}
package ferret

import (
	"fmt"
	"sync"

	"github.com/redquill/ferret/pkg/config"
	"github.com/redquill/ferret/pkg/scanner"
	"github.com/redquill/ferret/pkg/store"
	"github.com/redquill/ferret/pkg/types"
	"github.com/redquill/ferret/pkg/vfs"
	"github.com/redquill/ferret/pkg/walker"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/redquill/ferret" without subpackages.
type (
	// PathSpec is the layered address of a filesystem node.
	PathSpec = types.PathSpec

	// Segment is one layer of a PathSpec.
	Segment = types.Segment

	// StatEntry is the metadata of one filesystem node.
	StatEntry = types.StatEntry

	// Match is a single grep result window.
	Match = types.Match

	// Cursor is the serializable continuation token of a walk.
	Cursor = types.Cursor

	// GrepRequest asks for pattern occurrences within one target stream.
	GrepRequest = types.GrepRequest

	// FindRequest asks for one quota-bounded batch of a subtree walk.
	FindRequest = types.FindRequest
)

// Re-export cursor state constants.
const (
	CursorRunning  = types.CursorRunning
	CursorFinished = types.CursorFinished
)

// OSPath returns a single-segment PathSpec addressing a host filesystem path.
func OSPath(path string) PathSpec {
	return types.OSPath(path)
}

// Searcher runs grep and find requests against a virtual filesystem.
type Searcher struct {
	fs      vfs.Opener
	cfg     config.Config
	results store.Store
	mu      sync.Mutex
}

// searcherConfig holds searcher configuration.
type searcherConfig struct {
	fs      vfs.Opener
	cfg     config.Config
	results store.Store
}

// Option configures a Searcher.
type Option func(*searcherConfig)

// WithConfig overrides the scanner tunables (block size, overlap, hit
// limit). The default is config.Default().
func WithConfig(cfg config.Config) Option {
	return func(c *searcherConfig) {
		c.cfg = cfg
	}
}

// WithOpener substitutes the virtual filesystem the searcher reads through.
// The default is the process VFS registry with the host-filesystem and
// archive handlers installed.
func WithOpener(fs vfs.Opener) Option {
	return func(c *searcherConfig) {
		c.fs = fs
	}
}

// WithStore records every produced hit and match into s in addition to
// returning them. The searcher takes ownership of the store and closes it
// with Close.
func WithStore(s store.Store) Option {
	return func(c *searcherConfig) {
		c.results = s
	}
}

// NewSearcher creates a new Searcher with the given options.
//
// By default, the searcher:
//   - Reads through the process VFS registry (host filesystem + archives)
//   - Uses the default scanner tunables
//   - Does not persist results (enable with WithStore)
func NewSearcher(opts ...Option) (*Searcher, error) {
	config := &searcherConfig{
		fs:  vfs.Default,
		cfg: config.Default(),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Searcher{
		fs:      config.fs,
		cfg:     config.cfg,
		results: config.results,
	}, nil
}

// Grep opens the request's target and returns every match window, in
// increasing offset order. When the hit limit is reached the last result is
// a synthetic truncation notice and the count equals limit+1. An I/O
// failure on the target fails the whole request; there is no subtree to
// continue with.
func (s *Searcher) Grep(req *GrepRequest) ([]*Match, error) {
	h, err := s.fs.Open(req.Target)
	if err != nil {
		return nil, fmt.Errorf("opening grep target: %w", err)
	}
	defer h.Close()

	matches, err := scanner.Find(h, req, s.cfg)
	if err != nil {
		return nil, err
	}

	if err := s.recordMatches(matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// Find runs one batch of a resumable walk: at most the cursor's quota of
// hits (zero quota means unlimited) plus the updated cursor. Pass the
// returned cursor back verbatim, with the same request, to continue.
func (s *Searcher) Find(req *FindRequest) ([]StatEntry, Cursor, error) {
	w, err := walker.New(s.fs, s.cfg)
	if err != nil {
		return nil, req.Cursor, err
	}

	hits, cursor, err := w.Walk(req)
	if err != nil {
		return nil, cursor, err
	}

	if err := s.recordHits(hits); err != nil {
		return nil, cursor, err
	}
	return hits, cursor, nil
}

// FindAll drives a walk to completion, following cursors until finished,
// and returns the concatenated hits.
func (s *Searcher) FindAll(req *FindRequest) ([]StatEntry, error) {
	r := *req
	var all []StatEntry
	for {
		hits, cursor, err := s.Find(&r)
		if err != nil {
			return nil, err
		}
		all = append(all, hits...)
		if cursor.Done() {
			return all, nil
		}
		r.Cursor = cursor
	}
}

// Config returns the searcher's scanner tunables.
func (s *Searcher) Config() config.Config {
	return s.cfg
}

// Close releases searcher resources, closing the result store if one was
// attached. Always call Close when done with the searcher.
func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.results != nil {
		err := s.results.Close()
		s.results = nil
		return err
	}
	return nil
}

func (s *Searcher) recordMatches(matches []*Match) error {
	if s.results == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range matches {
		if err := s.results.AddMatch(m); err != nil {
			return fmt.Errorf("recording match: %w", err)
		}
	}
	return nil
}

func (s *Searcher) recordHits(hits []StatEntry) error {
	if s.results == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range hits {
		if err := s.results.AddHit(h); err != nil {
			return fmt.Errorf("recording hit: %w", err)
		}
	}
	return nil
}
