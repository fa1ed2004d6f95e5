package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

// Identity computes the structural identity of a definition at the given type
// arguments. The result depends only on its inputs, so collecting the same
// instantiation twice always yields the same identity.
func Identity(path string, typeArgs []string) models.ID {
	key := path + "\x00" + strings.Join(typeArgs, ", ")
	h := xxh3.HashString128(key)
	return models.ID{Hi: h.Hi, Lo: h.Lo}
}

// ParseID parses the 32 hex digit form produced by models.ID.String.
func ParseID(s string) (models.ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 32 {
		return models.ID{}, fmt.Errorf("invalid identity %q: expected 32 hex digits, got %d", s, len(s))
	}
	hi, err := strconv.ParseUint(s[:16], 16, 64)
	if err != nil {
		return models.ID{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	lo, err := strconv.ParseUint(s[16:], 16, 64)
	if err != nil {
		return models.ID{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return models.ID{Hi: hi, Lo: lo}, nil
}
