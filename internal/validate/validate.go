package validate

import (
	"fmt"
	"unicode/utf8"
)

// Text field length limits, shared with the upload form in the browser.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxDisplayNameLength = 100
)

func checkLen(value string, max int, field string) string {
	if utf8.RuneCountInString(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Title(s string) string       { return checkLen(s, MaxTitleLength, "title") }
func Description(s string) string { return checkLen(s, MaxDescriptionLength, "description") }
func DisplayName(s string) string { return checkLen(s, MaxDisplayNameLength, "name") }

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"titulo":      MaxTitleLength,
		"descripcion": MaxDescriptionLength,
		"nombre":      MaxDisplayNameLength,
	}
}
