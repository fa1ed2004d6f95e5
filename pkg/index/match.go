package index

import "strings"

// TypeArgOpen starts a type-argument segment in a display path.
const TypeArgOpen = "["

// StripTypeArgs removes every balanced [...] segment from a display path, so
// "shop.DataStore[shop.Electronics].TotalValue" becomes "shop.DataStore.TotalValue".
// An unbalanced closing bracket is kept as-is.
func StripTypeArgs(name string) string {
	if !strings.Contains(name, TypeArgOpen) {
		return name
	}

	var b strings.Builder
	b.Grow(len(name))
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches applies the path matching rule to one candidate display name.
//
// A query that carries type arguments matches when it is a substring of either
// the full name or its stripped form. A query without type arguments is
// compared against the stripped name only, so it matches every instantiation.
func Matches(query, name string) bool {
	if query == "" {
		return false
	}
	base := StripTypeArgs(name)
	if strings.Contains(query, TypeArgOpen) {
		return strings.Contains(name, query) || strings.Contains(base, query)
	}
	return strings.Contains(base, query)
}
