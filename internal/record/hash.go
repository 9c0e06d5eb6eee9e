package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for content-addressed record identity. Version suffix
// enables future algorithm migration.
const domainRecord = "cairn/record/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID computes the content-addressed identity of a record from the fields
// that define it: target change ID, operation, author, and per-author
// sequence. Payload fields are deliberately excluded — a resynchronized
// copy of a record is the same record, and replay deduplicates on this ID.
func ID(changeID string, op Op, author string, seq int64) (string, error) {
	obj := map[string]any{
		"change_id": changeID,
		"op":        string(op),
		"author":    author,
		"seq":       seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("record ID: %w", err)
	}
	return hashWithDomain(domainRecord, canonical), nil
}

// MustID is like ID but panics on error. Use only in tests.
func MustID(changeID string, op Op, author string, seq int64) string {
	id, err := ID(changeID, op, author, seq)
	if err != nil {
		panic(err)
	}
	return id
}
