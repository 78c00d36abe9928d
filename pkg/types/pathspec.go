package types

import "strings"

// PathType identifies the virtual filesystem layer a path segment belongs to.
type PathType string

const (
	// PathTypeOS addresses a node on the host filesystem.
	PathTypeOS PathType = "os"

	// PathTypeArchive addresses a member inside an archive container
	// (relative to the node addressed by the preceding segments).
	PathTypeArchive PathType = "archive"
)

// Segment is one layer of a PathSpec.
type Segment struct {
	Path string   `json:"path"`
	Type PathType `json:"type"`
}

// PathSpec is the layered address of a filesystem node: an ordered sequence
// of segments, each resolved by the handler for its path type on top of the
// node addressed by the segments before it. PathSpecs are values; Append
// copies, so a spec shared across many child entries is never aliased.
type PathSpec struct {
	Segments []Segment `json:"segments,omitempty"`
}

// NewPathSpec returns a single-segment spec.
func NewPathSpec(path string, typ PathType) PathSpec {
	return PathSpec{Segments: []Segment{{Path: path, Type: typ}}}
}

// OSPath returns a single-segment spec addressing a host filesystem path.
func OSPath(path string) PathSpec {
	return NewPathSpec(path, PathTypeOS)
}

// Append returns a new spec with seg added as the innermost layer.
// The receiver is not modified.
func (ps PathSpec) Append(seg Segment) PathSpec {
	segs := make([]Segment, len(ps.Segments), len(ps.Segments)+1)
	copy(segs, ps.Segments)
	return PathSpec{Segments: append(segs, seg)}
}

// AppendPath returns a new spec with one more segment of the same type as
// the last segment. Used when listing a directory to address its children.
func (ps PathSpec) AppendPath(path string) PathSpec {
	typ := PathTypeOS
	if len(ps.Segments) > 0 {
		typ = ps.Segments[len(ps.Segments)-1].Type
	}
	return ps.Append(Segment{Path: path, Type: typ})
}

// Last returns the innermost segment.
func (ps PathSpec) Last() Segment {
	if len(ps.Segments) == 0 {
		return Segment{}
	}
	return ps.Segments[len(ps.Segments)-1]
}

// IsZero reports whether the spec addresses nothing.
func (ps PathSpec) IsZero() bool {
	return len(ps.Segments) == 0
}

// Collapse flattens the layered spec into a single path string. Segment
// boundaries become path separators; duplicate separators are folded.
func (ps PathSpec) Collapse() string {
	parts := make([]string, 0, len(ps.Segments))
	for _, seg := range ps.Segments {
		p := strings.Trim(seg.Path, "/")
		if p != "" {
			parts = append(parts, p)
		}
	}
	collapsed := strings.Join(parts, "/")
	if len(ps.Segments) > 0 && strings.HasPrefix(ps.Segments[0].Path, "/") {
		return "/" + collapsed
	}
	return collapsed
}

// Basename returns the final path element of the collapsed path.
func (ps PathSpec) Basename() string {
	collapsed := ps.Collapse()
	if i := strings.LastIndex(collapsed, "/"); i >= 0 {
		return collapsed[i+1:]
	}
	return collapsed
}
