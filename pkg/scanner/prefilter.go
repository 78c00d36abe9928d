package scanner

import "github.com/cloudflare/ahocorasick"

// prefilter screens a buffer for the literal needle before the byte-offset
// enumeration runs. The automaton scan is linear in the buffer regardless
// of needle pathology, so buffers without an occurrence are rejected
// cheaply.
type prefilter struct {
	matcher *ahocorasick.Matcher
}

func newPrefilter(needle []byte) *prefilter {
	return &prefilter{matcher: ahocorasick.NewMatcher([][]byte{needle})}
}

// contains reports whether the needle occurs anywhere in buf.
func (p *prefilter) contains(buf []byte) bool {
	return len(p.matcher.Match(buf)) > 0
}
