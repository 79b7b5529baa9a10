package wire

import (
	"encoding/binary"
	"errors"
)

const (
	version    byte = 1
	kindSingle byte = 1

	headerLen = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("cachers: corrupt entry")
	magic4     = [...]byte{'C', 'C', 'H', 'R'}
)

// EncodeSingle frames payload for storage in a provider:
//
//	magic(4) | ver(1) | kind(1) | gen(u64 be) | vlen(u32 be) | payload(vlen)
func EncodeSingle(gen uint64, payload []byte) []byte {
	b := make([]byte, 0, headerLen+len(payload))
	b = append(b, magic4[:]...)
	b = append(b, version, kindSingle)
	b = binary.BigEndian.AppendUint64(b, gen)
	b = binary.BigEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

// DecodeSingle parses a frame written by EncodeSingle. The payload aliases b.
// Trailing bytes are treated as corruption.
func DecodeSingle(b []byte) (gen uint64, payload []byte, err error) {
	if len(b) < headerLen ||
		[4]byte(b[:4]) != magic4 ||
		b[4] != version ||
		b[5] != kindSingle {
		return 0, nil, ErrCorrupt
	}
	gen = binary.BigEndian.Uint64(b[6:14])
	vlen := binary.BigEndian.Uint32(b[14:18])
	if uint64(vlen) != uint64(len(b)-headerLen) {
		return 0, nil, ErrCorrupt
	}
	return gen, b[headerLen:], nil
}
