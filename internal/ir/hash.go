package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainOutcome = "verdict/outcome/v1"
	DomainCase    = "verdict/case/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OutcomeID computes the content-addressed id of one case's outcome within a run.
// The id is stable across rewrites of the same run.
func OutcomeID(runID string, seq int64, caseName string) (string, error) {
	obj := Object{
		"run_id": String(runID),
		"seq":    Int(seq),
		"case":   String(caseName),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("OutcomeID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainOutcome, canonical), nil
}

// CaseHash fingerprints a test case's identity (reference id, name, summary)
// so the run log can group outcomes of the same case across runs.
func CaseHash(id, name, summary string) (string, error) {
	obj := Object{
		"id":      String(id),
		"name":    String(name),
		"summary": String(summary),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CaseHash: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainCase, canonical), nil
}

// MustOutcomeID is like OutcomeID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustOutcomeID(runID string, seq int64, caseName string) string {
	id, err := OutcomeID(runID, seq, caseName)
	if err != nil {
		panic(err)
	}
	return id
}
