package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// vectorPrecision is the number of decimals kept when serializing embeddings.
const vectorPrecision = 6

// EncodeVector renders an embedding as a fixed-precision JSON array string.
// A nil or empty vector encodes to "".
func EncodeVector(v []float32) string {
	if len(v) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(v) * (vectorPrecision + 4))
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', vectorPrecision, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// DecodeVector parses the output of EncodeVector. Blank input decodes to nil.
func DecodeVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}
