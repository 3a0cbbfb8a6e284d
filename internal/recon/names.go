// Package recon reconciles freshly fetched exchange odds, racecards and
// results against stored race documents. Each pass mutates stored races
// field by field and never discards already-confirmed data.
package recon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// countrySuffix matches the "(IRE)", "(FR)", "(USA)" style suffix the
// racing feeds append to horse names.
var countrySuffix = regexp.MustCompile(`\s*\([A-Z]{2,3}\)\s*$`)

// diacriticStripper decomposes and drops combining marks, so "Étoile"
// and "Etoile" compare equal across providers.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeRunner folds a horse name into its comparison form: country
// suffix stripped, diacritics removed, trimmed, lower-cased.
func NormalizeRunner(name string) string {
	name = countrySuffix.ReplaceAllString(name, "")
	if stripped, _, err := transform.String(diacriticStripper, name); err == nil {
		name = stripped
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// AdjustRaceTime maps a stored race time to the odds-map bucket.
// Stored times came from a 12-hour clock without a PM marker, so hours
// 1 through 9 are afternoon races and shift to 13 through 21. A
// malformed time falls back to 00:00 rather than failing the pass.
func AdjustRaceTime(stored string) string {
	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 {
		return "00:00"
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return "00:00"
	}
	if h >= 1 && h <= 9 {
		h += 12
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
