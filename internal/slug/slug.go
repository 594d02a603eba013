// Package slug derives human-readable, URL-safe public identifiers from
// free-text names. Slugs are not unique by construction: the random suffix
// makes collisions unlikely, the caller's retry loop makes them rarer, and
// the storage uniqueness constraint is the final authority.
package slug

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	// suffixAlphabet is base-36: lower-case letters plus digits. The slug is
	// part of a shareable link, so the alphabet stays unambiguous in URLs.
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength   = 5
)

// Generate builds a slug from a display name: lower-case, strip anything
// outside [a-z0-9 space -], collapse whitespace runs to single hyphens, trim
// leading/trailing hyphens, then append a 5-character random suffix.
//
// A name with no usable characters yields the suffix alone.
func Generate(name string) string {
	base := normalize(name)
	suffix := randomSuffix()

	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// normalize reduces a free-text name to its hyphenated slug base.
func normalize(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteRune(' ')
		}
	}

	// Collapse each whitespace run to a single hyphen.
	fields := strings.Fields(b.String())
	joined := strings.Join(fields, "-")

	return strings.Trim(joined, "-")
}

// randomSuffix returns suffixLength characters of crypto/rand base-36.
func randomSuffix() string {
	var b strings.Builder
	b.Grow(suffixLength)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for range suffixLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform source is broken;
			// there is no meaningful recovery for slug generation.
			panic("slug: crypto/rand unavailable: " + err.Error())
		}
		b.WriteByte(suffixAlphabet[n.Int64()])
	}
	return b.String()
}
