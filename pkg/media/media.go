package media

import "strings"

// Code identifies what kind of media an item is.
type Code string

const (
	Game  Code = "game"
	Book  Code = "book"
	Movie Code = "movie"
	TV    Code = "tv"
	Music Code = "music"
)

// AllCodes returns all known media codes in display order.
func AllCodes() []Code {
	return []Code{Game, Book, Movie, TV, Music}
}

// ValidCode reports whether s is a known media code.
func ValidCode(s string) bool {
	switch Code(s) {
	case Game, Book, Movie, TV, Music:
		return true
	}
	return false
}

// platformSynonyms maps free-text platform labels, as they show up in
// itch.io exports and feeds, to the canonical platform codes.
var platformSynonyms = map[string]string{
	"web":                 "web",
	"html5":               "web",
	"browser":             "web",
	"playable in browser": "web",
	"win":                 "windows",
	"windows":             "windows",
	"linux":               "linux",
	"gnu/linux":           "linux",
	"mac":                 "mac",
	"macos":               "mac",
	"osx":                 "mac",
	"android":             "android",
	"ios":                 "ios",
}

// NormalizePlatform maps a free-text platform label to its canonical code.
// Unrecognized labels return ok=false and are expected to be dropped.
func NormalizePlatform(raw string) (string, bool) {
	code, ok := platformSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return code, ok
}

// NormalizePlatforms maps a list of free-text labels to deduplicated
// canonical codes, silently dropping anything unrecognized.
func NormalizePlatforms(raws []string) []string {
	seen := make(map[string]bool, len(raws))
	var codes []string
	for _, raw := range raws {
		code, ok := NormalizePlatform(raw)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// CleanTag trims and lowercases a tag name. Empty tags are rejected.
func CleanTag(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "", false
	}
	return name, true
}
