package posts

import (
	"encoding/binary"
	"math"

	"github.com/voclabs/vocd/internal/domain"
)

// buildHashFields converts a domain Post into a flat map[string]string for HSET.
func buildHashFields(post *domain.Post) map[string]string {
	return map[string]string{
		"title":    post.Title,
		"body":     post.Body,
		"__vector": vectorToBytes(post.Embedding),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
