// Package sanitize enforces the sanitize-at-write invariant: rich-text fields
// are cleaned once, before storage, so every consumer reads safe markup.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// HTML strips everything the UGC policy does not allow.
func HTML(s string) string {
	return policy.Sanitize(s)
}

// HTMLPtr sanitizes through a nullable field, preserving nil.
func HTMLPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := policy.Sanitize(*s)
	return &clean
}
