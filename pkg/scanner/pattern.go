package scanner

import (
	"fmt"
	"regexp"

	"github.com/redquill/ferret/pkg/obfuscate"
	"github.com/redquill/ferret/pkg/types"
)

// Pattern is the compiled search pattern: either literal bytes or a
// compiled regular expression, never both. The zero Pattern is invalid.
type Pattern struct {
	literal []byte
	re      *regexp.Regexp
}

// LiteralPattern builds a pattern matching an exact byte sequence.
// Occurrences may overlap.
func LiteralPattern(needle []byte) Pattern {
	return Pattern{literal: needle}
}

// RegexPattern builds a pattern from a compiled expression. Matches are the
// engine's non-overlapping sequence and vary in length.
func RegexPattern(re *regexp.Regexp) Pattern {
	return Pattern{re: re}
}

// CompilePattern builds the pattern for a validated grep request. A literal
// arrives obfuscated when the request carries an input key and is restored
// here; the stream itself is never transformed.
func CompilePattern(req *types.GrepRequest) (Pattern, error) {
	if err := req.Validate(); err != nil {
		return Pattern{}, err
	}
	if len(req.Literal) > 0 {
		return LiteralPattern(obfuscate.Xor(req.Literal, req.XorInKey)), nil
	}
	re, err := regexp.Compile(req.Regex)
	if err != nil {
		return Pattern{}, fmt.Errorf("compiling pattern: %w", err)
	}
	return RegexPattern(re), nil
}

// IsLiteral reports whether the pattern is a literal byte sequence.
func (p Pattern) IsLiteral() bool {
	return p.re == nil
}

// KnownLength returns the literal's length, or zero for regexes whose match
// length is not known until match time.
func (p Pattern) KnownLength() int {
	return len(p.literal)
}

func (p Pattern) String() string {
	if p.re != nil {
		return fmt.Sprintf("regex(%s)", p.re.String())
	}
	return fmt.Sprintf("literal(%d bytes)", len(p.literal))
}
