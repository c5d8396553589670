package users

import (
	"strings"
	"unicode/utf8"
)

// Phrases that introduce a name. The word right after the phrase is the
// candidate name.
var introPhrases = []string{
	"my name is",
	"call me",
	"i am",
	"i'm",
	"اسم من",
	"نامم",
	"اسمم",
	"من",
}

// Words that follow an intro phrase without being names. Keeps "i am
// tired" or "من خوبم" from registering a user called "tired".
var nameStoplist = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "not": {}, "so": {}, "very": {},
	"fine": {}, "good": {}, "ok": {}, "okay": {}, "tired": {},
	"happy": {}, "sad": {}, "sorry": {}, "sure": {}, "here": {},
	"back": {}, "new": {}, "just": {}, "really": {}, "going": {},
	"خوبم": {}, "خوب": {}, "خسته": {}, "اینجا": {}, "چطور": {},
	"کی": {}, "چی": {}, "یه": {}, "یک": {}, "هم": {}, "که": {},
}

// DetectIdentity scans a message for a self-introduction and returns the
// name it finds. It is a heuristic; callers should confirm with the user
// before switching profiles.
func DetectIdentity(message string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(message))
	if lowered == "" {
		return "", false
	}

	for _, phrase := range introPhrases {
		idx := strings.Index(lowered, phrase)
		if idx < 0 {
			continue
		}
		// The phrase must sit on a word boundary. The preceding rune may
		// be multi-byte (Persian comma), so decode it instead of indexing.
		if idx > 0 {
			prev, _ := utf8.DecodeLastRuneInString(lowered[:idx])
			if !isBoundary(prev) {
				continue
			}
		}

		rest := strings.TrimSpace(message[idx+len(phrase):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}

		name := strings.Trim(fields[0], "،,.!?\"'")
		if len([]rune(name)) < 2 {
			continue
		}
		if _, stopped := nameStoplist[strings.ToLower(name)]; stopped {
			continue
		}
		// Persian "من X هستم" confirms the candidate with a trailing verb.
		if phrase == "من" && !(len(fields) > 1 && strings.Trim(fields[1], "،,.") == "هستم") {
			continue
		}
		return name, true
	}

	return "", false
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '،' || r == ',' || r == '.'
}
