package ocr

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// sha256Hex is the "deterministic digest of the pixel buffer" spec
// §4.7.2 calls for when composing an image OCR cache key.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashParts composes a cache key from a sorted-independent ordered list
// of parts: the call sites here already control ordering (hash/path,
// size, mtime, backend, config fields) so this just joins and hashes,
// matching the "(hash_or_info, backend, sorted_config_items)" key shape
// from spec §4.7.2.
func hashParts(parts ...string) string {
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])[:32]
}
