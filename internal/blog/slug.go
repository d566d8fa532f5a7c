package blog

import (
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// Slugify lowercases title, keeps letters and digits of any script and
// collapses everything else into single dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// slugSuffix returns 8 random lowercase characters from a fresh ULID
func slugSuffix() string {
	id := strings.ToLower(ulid.Make().String())
	return id[len(id)-8:]
}
