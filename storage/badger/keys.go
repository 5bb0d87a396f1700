package badger

import (
	"encoding/binary"
)

// Key prefixes for snapshot data
const (
	snapshotPrefix     = "snap"
	snapshotCurrentKey = "snap:current"
	chunkSeparator     = ":chunk:"
)

// makeManifestKey generates the key holding a snapshot's chunk count.
// Format: snap:<fingerprint>
func makeManifestKey(fingerprint string) []byte {
	return []byte(snapshotPrefix + ":" + fingerprint)
}

// makeChunkKey generates the key for one chunk of a snapshot blob.
// Format: snap:<fingerprint>:chunk:<index>
func makeChunkKey(fingerprint string, index uint32) []byte {
	prefix := snapshotPrefix + ":" + fingerprint + chunkSeparator
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	// Write in BigEndian order so chunks iterate in blob order
	binary.BigEndian.PutUint32(buf[offset:], index)
	return buf
}

func encodeChunkCount(count uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, count)
	return buf
}

func decodeChunkCount(val []byte) (uint32, bool) {
	if len(val) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(val), true
}
