package keys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Prefix namespaces every response cache key.
const Prefix = "landuse:v1:"

const (
	KindList   = "list"
	KindFilter = "filter"
	KindArea   = "area"
)

// Key builds a cache key for one query. Categories are matched
// case-insensitively, so they are lower-cased before hashing.
func Key(kind, category string, limit, offset int) string {
	cat := strings.ToLower(strings.TrimSpace(category))
	safe := sanitizeForKey(cat)

	const maxCategoryTextLen = 64
	if len(safe) > maxCategoryTextLen {
		safe = safe[:maxCategoryTextLen]
	}

	sum := xxhash.Sum64String(cat)
	return fmt.Sprintf("%s%s:c=%s:h=%016x:l=%d:o=%d", Prefix, kind, safe, sum, limit, offset)
}

// WithGeneration scopes key to a cache generation. Entries written under an
// older generation are never read again once the generation moves on.
func WithGeneration(key string, gen uint64) string {
	rest, ok := strings.CutPrefix(key, Prefix)
	if !ok {
		return key
	}
	return Prefix + "g" + strconv.FormatUint(gen, 10) + ":" + rest
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
