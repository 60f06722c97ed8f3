package routing

import "unicode/utf16"

// HashString is the 32-bit string hash used for bucketing: h = h*31 + c over the
// UTF-16 code units, wrapped to int32, then made non-negative.
func HashString(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Bucket maps a session id to 0..99.
func Bucket(sessionID string) int {
	return int(HashString(sessionID) % 100)
}
