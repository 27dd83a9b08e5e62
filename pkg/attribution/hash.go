package attribution

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	hashPrefix = "sha256:"
	hashLength = 16
)

// NormalizeContent converts all line endings to a single newline so the
// same code hashes identically regardless of the platform that wrote it.
func NormalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// HashLines joins lines with a newline and returns the content hash token
// for the block.
func HashLines(lines []string) string {
	return HashContent(strings.Join(lines, "\n"))
}

// HashContent returns "sha256:" plus the first 16 hex characters of the
// SHA-256 digest of the normalized content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(NormalizeContent(content)))
	return hashPrefix + hex.EncodeToString(sum[:])[:hashLength]
}

// HashesMatch compares two hash tokens over their shared prefix length, so
// an 8-char digest stored by an older client still matches its 16-char
// form. Either side empty after stripping the prefix never matches.
func HashesMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimPrefix(a, hashPrefix))
	b = strings.ToLower(strings.TrimPrefix(b, hashPrefix))
	n := min(len(a), len(b))
	if n == 0 {
		return false
	}
	return a[:n] == b[:n]
}
