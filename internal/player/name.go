package player

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxNameRunes bounds the display name a client may announce in Hello.
const MaxNameRunes = 24

// NormalizeName canonicalises a client-supplied display name: NFC form,
// control and format characters stripped, surrounding space trimmed, and at
// most MaxNameRunes runes kept. An empty result falls back to fallback.
func NormalizeName(name, fallback string) string {
	name = norm.NFC.String(name)
	var b strings.Builder
	n := 0
	for _, r := range name {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		if n == MaxNameRunes {
			break
		}
		b.WriteRune(r)
		n++
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return fallback
	}
	return out
}
