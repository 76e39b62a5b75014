package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainProject = "calliope/project/v1"
	DomainBranch  = "calliope/branch/v1"
	DomainVersion = "calliope/version/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a domain-separated, content-addressed fingerprint of
// a document. The fingerprint is stable across restarts and replays given
// the same document contents.
//
// Lineage fingerprints deliberately hash the document, not the live state:
// a branch's parent fingerprint remains valid even after the parent project
// is edited further.
func Fingerprint(domain string, doc map[string]any) (string, error) {
	canonical, err := Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(domain string, doc map[string]any) string {
	fp, err := Fingerprint(domain, doc)
	if err != nil {
		panic(err)
	}
	return fp
}
