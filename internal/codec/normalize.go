package codec

import "strings"

// NormalizeLocation canonicalizes a raw scanned slot label so that visually
// equivalent labels compare equal: literal '.' characters are removed and
// surrounding whitespace trimmed. Empty input stays empty. Every location
// identifier must pass through here before it is compared, stored or used
// as a lookup key.
func NormalizeLocation(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, ".", ""))
}
