package crawler

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// documentFilename derives a stable, filesystem-safe PDF name from the title.
// The URL hash suffix keeps two documents with the same title apart.
func documentFilename(title, rawURL string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = defaultMaxTitleChars
	}
	base := strings.Trim(invalidFilenameChars.ReplaceAllString(title, "_"), "_.")
	base = truncateRunes(base, maxChars)
	if base == "" {
		base = "document"
	}
	return base + "_" + hashURL(rawURL)[:8] + ".pdf"
}

func blobPath(prefix, filename string) string {
	if prefix == "" {
		return filename
	}
	return path.Join(prefix, filename)
}

// claimPath returns p, or p with a -N counter before the extension when an
// earlier document of the run already owns it. The result is recorded in taken.
func claimPath(p string, taken map[string]struct{}) string {
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	candidate := p
	for n := 2; ; n++ {
		if _, ok := taken[candidate]; !ok {
			taken[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
}

func hashURL(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	out := []rune(s)[:limit]
	return string(out)
}
