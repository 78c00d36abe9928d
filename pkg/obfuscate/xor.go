// Package obfuscate implements the symmetric byte transform applied to
// search patterns and returned windows so raw signature bytes never travel
// the wire in the clear. The transform is its own inverse.
package obfuscate

// Xor returns a copy of data with every byte xored with key. A zero key is
// the identity. The input is never modified.
func Xor(data []byte, key byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key
	}
	return out
}
