package embedding

import "github.com/zeebo/xxh3"

// Key computes the cache key for the UTF-8 canonicalized text (spec §4.5
// step 1, spec §6 "keys are 8-byte xxh3 hashes").
func Key(canonicalText string) [8]byte {
	var b [8]byte
	h := xxh3.HashString(canonicalText)
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (8 * i))
	}
	return b
}
