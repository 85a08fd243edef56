package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans rich-text content to prevent XSS attacks while keeping a
// safe subset of user-generated markup.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// StripTags removes all markup, for plain fields like titles and names.
func StripTags(input string) string {
	return strictPolicy.Sanitize(input)
}
