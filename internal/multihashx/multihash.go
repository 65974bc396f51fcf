// Package multihashx computes the content address of report payloads: a
// self-describing multihash (algorithm code, digest length, digest) rendered
// as lowercase hex.
package multihashx

import (
	"bytes"
	"fmt"

	mh "github.com/multiformats/go-multihash"
)

// Code is the hash function used for report payloads.
const Code = mh.SHA2_256

// Sum returns the hex multihash of payload, e.g. "1220" followed by the
// 64-character SHA-256 digest.
func Sum(payload []byte) (string, error) {
	sum, err := mh.Sum(payload, Code, -1)
	if err != nil {
		return "", fmt.Errorf("multihash: %w", err)
	}
	return sum.HexString(), nil
}

// Verify reports whether digest is the multihash of payload. The algorithm is
// taken from digest itself, so older digests keep verifying if Code changes.
func Verify(payload []byte, digest string) (bool, error) {
	want, err := mh.FromHexString(digest)
	if err != nil {
		return false, fmt.Errorf("multihash: %w", err)
	}
	decoded, err := mh.Decode(want)
	if err != nil {
		return false, fmt.Errorf("multihash: %w", err)
	}
	got, err := mh.Sum(payload, decoded.Code, decoded.Length)
	if err != nil {
		return false, fmt.Errorf("multihash: %w", err)
	}
	return bytes.Equal(got, want), nil
}
