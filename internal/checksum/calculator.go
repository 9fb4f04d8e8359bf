package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"strings"
)

// Algorithm names a digest algorithm.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	CRC32C Algorithm = "crc32c"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Algorithms lists the supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, CRC32C}
}

// ParseAlgorithm accepts an algorithm name in any case.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(name))
	for _, known := range Algorithms() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown checksum algorithm %q", name)
}

// New returns a fresh hash for a.
func (a Algorithm) New() hash.Hash {
	switch a {
	case CRC32C:
		return crc32.New(castagnoli)
	default:
		return sha256.New()
	}
}

// Label is the algorithm name as printed next to a digest.
func (a Algorithm) Label() string {
	return strings.ToUpper(string(a))
}

// Digest is the result of hashing one stream.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
	Length    int64
}

// String returns the lowercase hex form of the sum.
func (d Digest) String() string {
	return hex.EncodeToString(d.Sum)
}

// Writer hashes everything written to it.
type Writer struct {
	algorithm Algorithm
	h         hash.Hash
	n         int64
}

// NewWriter returns a Writer for a.
func NewWriter(a Algorithm) (*Writer, error) {
	if _, err := ParseAlgorithm(string(a)); err != nil {
		return nil, err
	}
	return &Writer{algorithm: a, h: a.New()}, nil
}

// Write never fails.
func (w *Writer) Write(p []byte) (int, error) {
	n, _ := w.h.Write(p)
	w.n += int64(n)
	return n, nil
}

// Digest returns the digest of the bytes written so far.
func (w *Writer) Digest() Digest {
	return Digest{Algorithm: w.algorithm, Sum: w.h.Sum(nil), Length: w.n}
}

// Sum hashes content in one call.
func Sum(a Algorithm, content []byte) Digest {
	h := a.New()
	h.Write(content)
	return Digest{Algorithm: a, Sum: h.Sum(nil), Length: int64(len(content))}
}
