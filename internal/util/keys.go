package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// maxPlainKey bounds keys that are used verbatim in storage keys.
const maxPlainKey = 128

// StorageKey maps a binary lookup key into the provider's string keyspace.
// Short printable keys are kept readable (prefix:key); anything else is
// replaced by a sha256 prefix (prefix#hex). The separators differ, so the two
// forms never collide.
func StorageKey(prefix string, key []byte) string {
	if len(key) <= maxPlainKey && printable(key) {
		return prefix + ":" + string(key)
	}
	sum := sha256.Sum256(key)
	return prefix + "#" + hex.EncodeToString(sum[:16])
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
