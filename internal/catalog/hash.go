package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCatalog is the domain prefix for catalog hashes. The version suffix
// allows the snapshot shape to change without colliding with old hashes.
const DomainCatalog = "reflex/catalog/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of c's canonical JSON.
func Hash(c Catalog) (string, error) {
	data, err := MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("hash catalog: %w", err)
	}
	return hashWithDomain(DomainCatalog, data), nil
}

// MustHash is like Hash but panics on error.
func MustHash(c Catalog) string {
	h, err := Hash(c)
	if err != nil {
		panic(err)
	}
	return h
}
