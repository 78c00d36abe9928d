// Package scanner implements the chunked, overlap-aware byte scanner. A
// target stream is read in fixed-size blocks; the trailing overlap of each
// block is retained in memory and prepended to the next one, so a match
// straddling a block boundary is found in the combined buffer without ever
// holding more than one block plus the overlap.
//
// Every match is reported exactly once, in increasing offset order: a match
// is emitted from the first combined buffer that contains its full
// after-context window (or from the final buffer, clipped). Matches near
// the end of a non-final buffer are deferred and re-found through the
// retained tail. For that to work the overlap must be at least
// pattern length − 1 bytes; literal patterns violating the bound are
// rejected, regex patterns cannot be checked statically and the bound is a
// documented requirement on the caller.
package scanner

import (
	"bytes"
	"fmt"
	"io"

	"github.com/redquill/ferret/pkg/config"
	"github.com/redquill/ferret/pkg/obfuscate"
	"github.com/redquill/ferret/pkg/types"
)

// TruncationNotice is embedded in the synthetic trailing match emitted when
// a request produces more hits than the configured limit.
const TruncationNotice = "Grep reached the maximum number of hits (%d); further matches were discarded"

// span is one pattern occurrence within the current combined buffer.
type span struct {
	start int // buffer-relative
	len   int
}

// Scanner iterates matches of one pattern over one stream. Use it like
// bufio.Scanner:
//
//	for s.Scan() {
//		m := s.Match()
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	src    io.ReadSeeker
	target types.PathSpec
	pat    Pattern
	pf     *prefilter
	cfg    config.Config

	before, after int
	xorOut        byte

	end     int64 // absolute cutoff, -1 when unbounded
	readPos int64 // absolute offset of the next read

	buf     []byte // current combined buffer
	base    int64  // absolute offset of buf[0]
	tail    []byte // retained trailing overlap of buf
	prevEnd int64  // absolute end of the previously scanned buffer

	pending []span
	final   bool
	done    bool
	hits    int
	cur     types.Match
	err     error
}

// New builds a scanner for a validated request over an already-opened
// stream. The stream is seeked to the request's start offset.
func New(src io.ReadSeeker, req *types.GrepRequest, cfg config.Config) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pat, err := CompilePattern(req)
	if err != nil {
		return nil, err
	}
	if pat.IsLiteral() && pat.KnownLength() > cfg.OverlapSize+1 {
		return nil, fmt.Errorf("literal pattern of %d bytes exceeds overlap %d+1; boundary matches would be missed",
			pat.KnownLength(), cfg.OverlapSize)
	}

	if _, err := src.Seek(req.StartOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to start offset %d: %w", req.StartOffset, err)
	}

	s := &Scanner{
		src:     src,
		target:  req.Target,
		pat:     pat,
		cfg:     cfg,
		before:  req.BytesBefore,
		after:   req.BytesAfter,
		xorOut:  req.XorOutKey,
		end:     -1,
		readPos: req.StartOffset,
		base:    req.StartOffset,
		prevEnd: req.StartOffset,
	}
	if req.Length > 0 {
		s.end = req.StartOffset + req.Length
	}
	if pat.IsLiteral() {
		s.pf = newPrefilter(pat.literal)
	}
	return s, nil
}

// Scan advances to the next match. It returns false at end of stream, after
// the truncation notice, or on error.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	for {
		if len(s.pending) > 0 {
			sp := s.pending[0]
			s.pending = s.pending[1:]
			if s.hits >= s.cfg.HitLimit {
				s.cur = s.truncationMatch(sp)
				s.done = true
				return true
			}
			s.hits++
			s.cur = s.windowMatch(sp)
			return true
		}
		if s.final {
			s.done = true
			return false
		}
		if err := s.fill(); err != nil {
			s.err = err
			s.done = true
			return false
		}
	}
}

// Match returns the match produced by the last successful Scan. The
// returned window bytes are owned by the caller.
func (s *Scanner) Match() types.Match {
	return s.cur
}

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Find runs the scanner to completion and returns all matches, including a
// trailing truncation notice when the hit limit was reached.
func Find(src io.ReadSeeker, req *types.GrepRequest, cfg config.Config) ([]*types.Match, error) {
	s, err := New(src, req, cfg)
	if err != nil {
		return nil, err
	}
	var matches []*types.Match
	for s.Scan() {
		m := s.Match()
		matches = append(matches, &m)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// fill reads the next block, assembles the combined buffer, and queues the
// spans reportable from it.
func (s *Scanner) fill() error {
	// fill only runs while the buffer is non-final, so the end bound has
	// not been reached yet and toRead is positive.
	toRead := int64(s.cfg.BlockSize)
	if s.end >= 0 && s.end-s.readPos < toRead {
		toRead = s.end - s.readPos
	}

	block := make([]byte, toRead)
	n, err := io.ReadFull(s.src, block)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("reading target at offset %d: %w", s.readPos, err)
	}
	short := n < len(block)
	s.readPos += int64(n)

	if n == 0 {
		// End of data fell on a block boundary; rescan the tail as final.
		s.scanBuffer(s.tail, s.base+int64(len(s.buf)-len(s.tail)), true)
		return nil
	}

	tailBase := s.base + int64(len(s.buf)-len(s.tail))
	combined := make([]byte, 0, len(s.tail)+n)
	combined = append(combined, s.tail...)
	combined = append(combined, block[:n]...)

	final := short || (s.end >= 0 && s.readPos >= s.end)
	s.scanBuffer(combined, tailBase, final)
	return nil
}

// scanBuffer searches one combined buffer and queues the spans that belong
// to it: those whose after-context window ends within data scanned so far,
// plus (in the final buffer) everything not yet reported. Later spans are
// deferred wholesale once one is, preserving offset order across buffers.
func (s *Scanner) scanBuffer(buf []byte, base int64, final bool) {
	s.buf = buf
	s.base = base
	s.final = final
	bufEnd := base + int64(len(buf))

	tailLen := len(buf)
	if tailLen > s.cfg.OverlapSize {
		tailLen = s.cfg.OverlapSize
	}
	nextTailBase := bufEnd - int64(tailLen)

	s.pending = s.pending[:0]
	for _, sp := range s.findSpans(buf) {
		if sp.len == 0 {
			continue
		}
		o := base + int64(sp.start)
		w := o + int64(sp.len) + int64(s.after)
		if w <= s.prevEnd {
			// Already reported from an earlier buffer.
			continue
		}
		if !final && w > bufEnd && o >= nextTailBase {
			// The after-context is not here yet and the span survives in
			// the retained tail; report it from the next buffer.
			break
		}
		s.pending = append(s.pending, sp)
	}

	s.prevEnd = bufEnd
	if final {
		s.tail = nil
	} else {
		s.tail = buf[len(buf)-tailLen:]
	}
}

// findSpans enumerates pattern occurrences in buf, in increasing start
// order. Literal occurrences may overlap; regex matches are the engine's
// non-overlapping sequence.
func (s *Scanner) findSpans(buf []byte) []span {
	if !s.pat.IsLiteral() {
		var spans []span
		for _, loc := range s.pat.re.FindAllIndex(buf, -1) {
			spans = append(spans, span{start: loc[0], len: loc[1] - loc[0]})
		}
		return spans
	}

	if s.pf != nil && !s.pf.contains(buf) {
		return nil
	}

	needle := s.pat.literal
	var spans []span
	for from := 0; ; {
		i := bytes.Index(buf[from:], needle)
		if i < 0 {
			break
		}
		spans = append(spans, span{start: from + i, len: len(needle)})
		from += i + 1
	}
	return spans
}

// windowMatch extracts the clipped context window around a span. The window
// is bounded by the data physically present in the combined buffer.
func (s *Scanner) windowMatch(sp span) types.Match {
	lo := sp.start - s.before
	if lo < 0 {
		lo = 0
	}
	hi := sp.start + sp.len + s.after
	if hi > len(s.buf) {
		hi = len(s.buf)
	}
	return types.Match{
		Target: s.target,
		Offset: s.base + int64(sp.start),
		Length: int64(hi - lo),
		Data:   obfuscate.Xor(s.buf[lo:hi], s.xorOut),
	}
}

// truncationMatch builds the synthetic trailing result signaling that the
// hit limit was reached. It is distinguishable from a real hit only by its
// content; callers detect truncation by count = limit+1.
func (s *Scanner) truncationMatch(sp span) types.Match {
	notice := fmt.Sprintf(TruncationNotice, s.cfg.HitLimit)
	return types.Match{
		Target: s.target,
		Offset: s.base + int64(sp.start),
		Length: int64(len(notice)),
		Data:   obfuscate.Xor([]byte(notice), s.xorOut),
	}
}
