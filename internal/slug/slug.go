// Package slug derives URL-safe identifiers from display names and resolves
// collisions against the set of slugs already stored for the same kind of
// entity.  Slug assignment runs only when a name is set or changed; saving a
// record with an unchanged name must never touch its slug.
package slug

import (
	"strconv"
	"strings"
)

// asciiFold maps the accented latin letters we expect in place names to
// their plain ASCII equivalents.  Anything not covered here and not
// alphanumeric becomes a separator.
var asciiFold = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ç': "c", 'ñ': "n", 'ý': "y", 'ß': "ss",
	'æ': "ae", 'œ': "oe",
}

// Make lowercases the name, transliterates accented latin letters and
// fullwidth alphanumerics to ASCII, collapses every run of other characters
// into a single '-' and trims leading/trailing separators.  The result
// matches ^[a-z0-9-]*$ and is empty only when the name contains no usable
// characters at all.  Digits outside those forms (Arabic-Indic, Thai, ...)
// are treated as separators so a non-ASCII rune can never leak into a slug.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		var part string
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			part = string(r)
		case r >= '０' && r <= '９':
			part = string('0' + (r - '０'))
		case r >= 'ａ' && r <= 'ｚ':
			part = string('a' + (r - 'ａ'))
		default:
			if folded, ok := asciiFold[r]; ok {
				part = folded
			}
		}
		if part == "" {
			// separator territory; emit at most one '-' between parts
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteString(part)
	}
	return b.String()
}

// MatchPattern returns the case-insensitive regular expression used to count
// existing slugs that collide with base: the base itself or the base with a
// numeric suffix ("-", "-0", "-17", ...).  The base is expected to come from
// Make, so it needs no escaping beyond the '-' characters it may contain,
// which are not regex metacharacters inside this pattern.
func MatchPattern(base string) string {
	return "^(" + base + ")(-[0-9]*)?$"
}

// Resolve applies the collision policy: with no colliding slugs the base is
// used unmodified; with n colliding slugs the suffix is the collision count
// minus one.  The first duplicate of "taco-town" therefore becomes
// "taco-town-0" and the next one "taco-town-1".  Existing URLs depend on
// this numbering, off-by-one included; see DESIGN.md before changing it.
func Resolve(base string, collisions int) string {
	if collisions == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(collisions-1)
}
