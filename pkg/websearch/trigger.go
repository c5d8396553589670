package websearch

import "strings"

// DefaultKeywords are the phrases that mark a message as a search request.
// The list mixes explicit commands with news and freshness cues in both
// Persian and English.
var DefaultKeywords = []string{
	"جستجو کن",
	"سرچ کن",
	"search",
	"اینترنت",
	"آخرین اخبار",
	"اخبار",
	"خبر",
	"قیمت",
	"آب و هوا",
	"هوا چطوره",
	"چند شد",
	"latest news",
	"weather",
	"price of",
	"look up",
	"google",
}

// TriggerDetector decides whether a message should be answered with the
// help of a live web search.
type TriggerDetector struct {
	keywords []string
}

// NewTriggerDetector creates a detector. With no keywords given the
// default list is used.
func NewTriggerDetector(keywords []string) *TriggerDetector {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &TriggerDetector{keywords: lowered}
}

// ShouldSearch reports whether the message contains any trigger keyword.
// Matching is case-insensitive substring matching.
func (d *TriggerDetector) ShouldSearch(message string) bool {
	lowered := strings.ToLower(message)
	for _, k := range d.keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}
