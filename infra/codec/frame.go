package codec

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

var ErrCorrupt = errors.New("codec: frame checksum mismatch")

// Frame prefixes payload with its CRC32 (IEEE): [crc:4][payload].
func Frame(payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], crc32.ChecksumIEEE(payload))
	copy(buf[4:], payload)
	return buf
}

// Unframe verifies and strips the checksum written by Frame. The returned
// slice aliases b.
func Unframe(b []byte) ([]byte, error) {
	if len(b) < 4 {
		return nil, errors.Wrapf(ErrCorrupt, "frame too short: %d bytes", len(b))
	}
	payload := b[4:]
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(b[:4]) {
		return nil, ErrCorrupt
	}
	return payload, nil
}
