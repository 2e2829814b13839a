package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot = "isolate/snapshot/v1"
	DomainStep     = "isolate/step/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StepID computes the journal identity of a step. Re-recording the same
// question for the same session yields the same ID, which makes journal
// writes idempotent on resume.
func StepID(sessionID string, index int, firstHalf []string) (string, error) {
	half := make([]any, len(firstHalf))
	for i, id := range firstHalf {
		half[i] = id
	}
	canonical, err := MarshalCanonical(map[string]any{
		"session_id": sessionID,
		"index":      index,
		"first_half": half,
	})
	if err != nil {
		return "", fmt.Errorf("StepID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStep, canonical), nil
}
