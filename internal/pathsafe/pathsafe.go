// Package pathsafe validates untrusted identifiers used to build
// filesystem paths (user ids, dump ids, file names) and mints new random
// ids, centralizing the path-traversal defenses required across the
// storage layers in spec.md §4.1 and §4.2.
package pathsafe

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// ValidateComponent rejects empty strings, path separators, ".." segments
// and NUL bytes so a caller-supplied identifier can never escape its
// intended directory.
func ValidateComponent(s string) error {
	if s == "" {
		return fmt.Errorf("component must not be empty")
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return fmt.Errorf("component must not contain path separators or NUL bytes")
	}
	if s == "." || s == ".." || strings.Contains(s, "..") {
		return fmt.Errorf("component must not contain \"..\"")
	}
	return nil
}

// NewRandomID mints a 128-bit random hex id, following the crypto/rand id
// scheme used throughout the dump, symbol and session stores.
func NewRandomID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("pathsafe: system randomness unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
