// Package contact implements the identity-resolution and merge engine for
// bulk contact imports: duplicate detection by email, same-name grouping,
// field-level merge rules, and the commit orchestrator.
package contact

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// NormalizeName canonicalizes a (first, last) name pair into a single
// matching key. Unicode NFC + case folding + whitespace collapsing, nothing
// fuzzier: two names normalize equal only when they are the same written
// name. This is the single source of truth for "same name" everywhere in
// the engine.
func NormalizeName(firstName, lastName string) string {
	s := norm.NFC.String(firstName + " " + lastName)
	s = foldCaser.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// normalizeEmail canonicalizes an email for identity comparison and storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone reduces a phone number to a comparison key: digits plus a
// leading "+" survive, formatting is dropped.
func normalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
