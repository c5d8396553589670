package store

import (
	"strings"
	"unicode/utf8"
)

// titleWords is how many leading words of a turn make up a derived title.
const titleWords = 5

// DeriveTitle builds a conversation title from the first five words of
// content. Titles of 10 characters or fewer are rejected in favor of
// DefaultTitle, so trivially short openers ("سلام", "hi") never become
// titles.
func DeriveTitle(content string) string {
	words := strings.Fields(content)
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	title := strings.Join(words, " ")
	if utf8.RuneCountInString(title) <= 10 {
		return DefaultTitle
	}
	return title
}
