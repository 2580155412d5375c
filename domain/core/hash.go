package core

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Hash represents a hex-encoded SHA-256 digest
type Hash string

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex digits for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Fingerprint hashes a stream while it is being read, e.g. through io.TeeReader
type Fingerprint struct {
	h hash.Hash
}

// NewFingerprint starts an empty SHA-256 fingerprint
func NewFingerprint() *Fingerprint {
	return &Fingerprint{h: sha256.New()}
}

// Write feeds bytes into the digest
func (f *Fingerprint) Write(p []byte) (int, error) {
	return f.h.Write(p)
}

// Sum returns the digest of everything written so far
func (f *Fingerprint) Sum() Hash {
	return Hash(hex.EncodeToString(f.h.Sum(nil)))
}
