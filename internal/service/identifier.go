package service

import "strings"

// DefaultAdminIdentifier is the administrative login used when none is configured.
const DefaultAdminIdentifier = "+963980453436"

// IdentifierNormalizer maps a typed login identifier to its canonical form.
// The only rewrite it performs is for the administrative identifier, which
// users type both with and without the leading "+".
type IdentifierNormalizer struct {
	admin  string // "+963980453436"
	digits string // "963980453436"
}

// NewIdentifierNormalizer accepts the admin identifier in either form.
func NewIdentifierNormalizer(adminIdentifier string) IdentifierNormalizer {
	digits := strings.TrimPrefix(strings.TrimSpace(adminIdentifier), "+")
	if digits == "" {
		digits = strings.TrimPrefix(DefaultAdminIdentifier, "+")
	}
	return IdentifierNormalizer{admin: "+" + digits, digits: digits}
}

// Normalize trims s and returns the canonical admin identifier when s is
// the admin in plus or digits-only form; otherwise the trimmed input.
func (n IdentifierNormalizer) Normalize(s string) string {
	t := strings.TrimSpace(s)
	if t == n.admin || t == n.digits {
		return n.admin
	}
	return t
}

// IsAdmin reports whether s normalizes to the admin identifier.
func (n IdentifierNormalizer) IsAdmin(s string) bool { return n.Normalize(s) == n.admin }

// Admin returns the canonical admin identifier.
func (n IdentifierNormalizer) Admin() string { return n.admin }

var defaultNormalizer = NewIdentifierNormalizer(DefaultAdminIdentifier)

// NormalizeIdentifier normalizes s against the default admin identifier.
func NormalizeIdentifier(s string) string { return defaultNormalizer.Normalize(s) }

// StripLeadingPlus removes one leading "+". It is a login submission
// policy applied after normalization, not part of it.
func StripLeadingPlus(s string) string { return strings.TrimPrefix(s, "+") }
