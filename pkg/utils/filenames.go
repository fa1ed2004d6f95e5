package utils

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

const maxSlugLength = 48

// SanitizeFilename turns an arbitrary string into a file-name-safe slug.
// Runs of unsafe characters collapse into a single '-'.
func SanitizeFilename(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-.")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-.")
	}
	return slug
}

// CallerReportFilename derives the artifact name for one find-callers query.
// The hash suffix keeps queries that share a slug apart.
func CallerReportFilename(query, ext string) string {
	slug := SanitizeFilename(query)
	if slug == "" {
		slug = "target"
	}
	return fmt.Sprintf("callers-%s-%08x.%s", slug, uint32(xxh3.HashString(query)>>32), strings.TrimPrefix(ext, "."))
}
