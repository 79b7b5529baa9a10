// Package codec converts typed values to and from the bytes a cachers Store
// holds. Pick one per Typed view; all of them are safe for concurrent use.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
