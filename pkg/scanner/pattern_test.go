package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redquill/ferret/pkg/obfuscate"
	"github.com/redquill/ferret/pkg/types"
)

func TestCompilePatternLiteral(t *testing.T) {
	req := &types.GrepRequest{Target: types.OSPath("/tmp/f"), Literal: []byte("needle")}

	pat, err := CompilePattern(req)
	require.NoError(t, err)
	assert.True(t, pat.IsLiteral())
	assert.Equal(t, 6, pat.KnownLength())
}

func TestCompilePatternObfuscatedLiteral(t *testing.T) {
	// The wire carries the xored literal; compilation restores the needle.
	req := &types.GrepRequest{
		Target:   types.OSPath("/tmp/f"),
		Literal:  obfuscate.Xor([]byte("needle"), 37),
		XorInKey: 37,
	}

	pat, err := CompilePattern(req)
	require.NoError(t, err)
	assert.Equal(t, []byte("needle"), pat.literal)
}

func TestCompilePatternRegex(t *testing.T) {
	req := &types.GrepRequest{Target: types.OSPath("/tmp/f"), Regex: "f[o]+"}

	pat, err := CompilePattern(req)
	require.NoError(t, err)
	assert.False(t, pat.IsLiteral())
	assert.Zero(t, pat.KnownLength())
}

func TestCompilePatternInvalid(t *testing.T) {
	cases := []struct {
		name string
		req  *types.GrepRequest
	}{
		{"no pattern", &types.GrepRequest{Target: types.OSPath("/tmp/f")}},
		{"both patterns", &types.GrepRequest{Target: types.OSPath("/tmp/f"), Literal: []byte("x"), Regex: "x"}},
		{"bad regex", &types.GrepRequest{Target: types.OSPath("/tmp/f"), Regex: "(["}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompilePattern(tc.req)
			assert.Error(t, err)
		})
	}
}

func TestPatternString(t *testing.T) {
	req := &types.GrepRequest{Target: types.OSPath("/tmp/f"), Regex: "abc"}
	pat, err := CompilePattern(req)
	require.NoError(t, err)
	assert.Equal(t, "regex(abc)", pat.String())

	assert.Equal(t, "literal(3 bytes)", LiteralPattern([]byte("abc")).String())
}
