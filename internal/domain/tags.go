package domain

import "strings"

// Tags is the tag input variant: either a preformatted line stored verbatim,
// or a list normalized before storage. A nil Tags stores as the empty string.
type Tags interface {
	format() string
}

// TagLine is a raw tag string stored exactly as given.
type TagLine string

func (t TagLine) format() string { return string(t) }

// TagList is an ordered list of tags. Internal spaces become underscores, the
// tags are joined with single spaces, and the whole string is wrapped in one
// leading and one trailing space so the consuming application can run
// substring containment queries.
type TagList []string

func (t TagList) format() string {
	parts := make([]string, len(t))
	for i, tag := range t {
		parts[i] = strings.ReplaceAll(tag, " ", "_")
	}
	return " " + strings.Join(parts, " ") + " "
}

// FormatTags renders any tag variant into the stored notes.tags string.
func FormatTags(t Tags) string {
	if t == nil {
		return ""
	}
	return t.format()
}
