// Package ident generates and recognizes the identifiers used as the key of
// every entity: items, fields, and the ids referenced by filters.
package ident

import (
	"regexp"

	"github.com/google/uuid"
)

// Identifier is a canonical 8-4-4-4-12 hyphenated hexadecimal UUID string.
type Identifier = string

// pattern enforces the version nibble (1-5) and the RFC 4122 variant nibble.
var pattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Generate returns a new random version 4 identifier.
func Generate() Identifier {
	return uuid.New().String()
}

// IsIdentifier reports whether v is a string in canonical identifier form.
func IsIdentifier(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return pattern.MatchString(s)
}

// AllIdentifiers reports whether every element of ids is an identifier.
// An empty slice is considered valid.
func AllIdentifiers(ids []string) bool {
	for _, id := range ids {
		if !pattern.MatchString(id) {
			return false
		}
	}
	return true
}
