package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoPattern is returned when a grep request supplies neither a literal
// nor a regex pattern.
var ErrNoPattern = errors.New("grep request needs a literal or a regex pattern")

// ErrConflictingPatterns is returned when a grep request supplies both
// pattern kinds.
var ErrConflictingPatterns = errors.New("grep request must supply exactly one of literal and regex")

// GrepRequest asks for occurrences of a pattern within one target stream.
// Exactly one of Literal and Regex must be set.
type GrepRequest struct {
	Target PathSpec `json:"target"`

	// Literal is a byte-sequence pattern. When XorInKey is non-zero the
	// bytes are obfuscated with it and are de-obfuscated before matching;
	// the target stream itself is never transformed.
	Literal []byte `json:"literal,omitempty"`

	// Regex is a regular-expression pattern matched against raw stream
	// bytes. The input key does not apply to regexes.
	Regex string `json:"regex,omitempty"`

	// XorInKey de-obfuscates Literal; XorOutKey obfuscates returned window
	// bytes. Zero keys are the identity transform.
	XorInKey  byte `json:"xor_in_key,omitempty"`
	XorOutKey byte `json:"xor_out_key,omitempty"`

	// StartOffset is the absolute offset scanning begins at. Reported match
	// offsets stay absolute regardless of StartOffset.
	StartOffset int64 `json:"start_offset,omitempty"`

	// Length bounds scanning to [StartOffset, StartOffset+Length). Zero
	// means unbounded. A match must end at or before the cutoff to count.
	Length int64 `json:"length,omitempty"`

	// BytesBefore and BytesAfter size the context window around each hit.
	BytesBefore int `json:"bytes_before,omitempty"`
	BytesAfter  int `json:"bytes_after,omitempty"`
}

// Validate checks the request shape: exactly one pattern kind, a compilable
// regex, and sane bounds.
func (r *GrepRequest) Validate() error {
	if len(r.Literal) == 0 && r.Regex == "" {
		return ErrNoPattern
	}
	if len(r.Literal) > 0 && r.Regex != "" {
		return ErrConflictingPatterns
	}
	if r.Regex != "" {
		if _, err := regexp.Compile(r.Regex); err != nil {
			return fmt.Errorf("compiling data regex: %w", err)
		}
	}
	if r.StartOffset < 0 {
		return fmt.Errorf("start offset %d is negative", r.StartOffset)
	}
	if r.Length < 0 {
		return fmt.Errorf("length %d is negative", r.Length)
	}
	if r.BytesBefore < 0 || r.BytesAfter < 0 {
		return errors.New("context sizes must not be negative")
	}
	return nil
}

// FindRequest asks for a quota-bounded batch of a resumable subtree walk.
type FindRequest struct {
	Root PathSpec `json:"root"`

	// PathRegex, when set, must match a node's collapsed path for the node
	// to be reported.
	PathRegex string `json:"path_regex,omitempty"`

	// DataRegex, when set, restricts hits to regular files containing at
	// least one occurrence of the expression.
	DataRegex string `json:"data_regex,omitempty"`

	// CrossDevices permits descending into directories on a device other
	// than the walk root's.
	CrossDevices bool `json:"cross_devices,omitempty"`

	// Cursor carries the quota for this call and, on resumed calls, the
	// continuation returned by the previous one.
	Cursor Cursor `json:"cursor"`
}

// Validate checks that the request's regexes compile and a root is present.
func (r *FindRequest) Validate() error {
	if r.Root.IsZero() {
		return errors.New("find request needs a root pathspec")
	}
	if r.PathRegex != "" {
		if _, err := regexp.Compile(r.PathRegex); err != nil {
			return fmt.Errorf("compiling path regex: %w", err)
		}
	}
	if r.DataRegex != "" {
		if _, err := regexp.Compile(r.DataRegex); err != nil {
			return fmt.Errorf("compiling data regex: %w", err)
		}
	}
	return nil
}
