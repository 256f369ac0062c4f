package store

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("record not found")

// likePattern turns a free-text search into a lower-cased LIKE pattern.
// LIKE wildcards typed by the user are dropped.
func likePattern(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ""
	}
	q = strings.NewReplacer("%", "", "_", "").Replace(q)
	if q == "" {
		return ""
	}
	return "%" + q + "%"
}
