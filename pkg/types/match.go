package types

// Match is a single grep hit: a reference into the target stream plus the
// surrounding context window.
type Match struct {
	// Target is the spec of the stream the match was found in.
	Target PathSpec `json:"target"`

	// Offset is the absolute byte offset of the match start within the
	// target stream (not the window start).
	Offset int64 `json:"offset"`

	// Length is the length of the returned window: context before + match +
	// context after, clipped at the edges of the available data.
	Length int64 `json:"length"`

	// Data holds the window bytes. When the request carries an output
	// obfuscation key the bytes are transformed with it; the caller inverts
	// the transform to recover the plaintext.
	Data []byte `json:"data"`
}
