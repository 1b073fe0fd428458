// Package cache provides embedding caches keyed by embedding space and text.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Key builds the cache key for text embedded in space.
// Texts are hashed so keys stay short whatever the chunk size.
func Key(space, text string) string {
	sum := sha256.Sum256([]byte(text))
	return space + ":" + hex.EncodeToString(sum[:])
}

// encode packs a vector as little-endian float32s.
func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("cache: corrupt vector of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
