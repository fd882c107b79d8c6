package fixer

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 of content. Audit entries and rollback
// verification compare content exclusively through this.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
