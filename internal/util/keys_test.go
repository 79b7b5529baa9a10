package util

import (
	"strings"
	"testing"
)

func TestStorageKeyPlain(t *testing.T) {
	if got := StorageKey("single:ns", []byte("user:42")); got != "single:ns:user:42" {
		t.Fatalf("got %q", got)
	}
}

func TestStorageKeyHashesBinaryAndLong(t *testing.T) {
	bin := StorageKey("single:ns", []byte{0, 1, 2})
	if !strings.HasPrefix(bin, "single:ns#") || len(bin) != len("single:ns#")+32 {
		t.Fatalf("binary key not hashed: %q", bin)
	}
	long := StorageKey("single:ns", []byte(strings.Repeat("a", maxPlainKey+1)))
	if !strings.HasPrefix(long, "single:ns#") {
		t.Fatalf("long key not hashed: %q", long)
	}
	if StorageKey("single:ns", []byte{0, 1, 2}) != bin {
		t.Fatalf("hashing is not deterministic")
	}
}

func TestStorageKeySpaceIsNotAmbiguous(t *testing.T) {
	// a printable key that looks like a hash must not land on the hashed form
	h := StorageKey("p", []byte{0xff})
	plain := StorageKey("p", []byte(strings.TrimPrefix(h, "p#")))
	if plain == h {
		t.Fatalf("plain and hashed keys collide: %q", h)
	}
}
