package assessment

import "strings"

// ParseAuthors splits comma-separated input into trimmed, non-empty names.
func ParseAuthors(input string) []string {
	parts := strings.Split(input, ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// FormatAuthors is the inverse of ParseAuthors for display in an input field.
func FormatAuthors(authors []string) string {
	return strings.Join(authors, ", ")
}
