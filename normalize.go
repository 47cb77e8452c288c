package sentiment

import (
	"regexp"
	"strings"
)

var (
	urlRE     = regexp.MustCompile(`(?:http|www)[^\s\p{Z}]+`)
	mentionRE = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	hashtagRE = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

// Normalize canonicalizes a raw comment into lower-case words made of
// [a-z0-9] separated by single spaces.
//
// The steps run in order: lower-case, fold accents ("café" becomes "cafe"),
// drop URLs, drop @mentions, unwrap #hashtags, replace every other character
// with a space, collapse whitespace. URLs end at any Unicode space.
// Unwrapping a hashtag can expose a new URL-like token ("#httpx"), so the
// steps are repeated until the text stops changing. Normalize never fails:
// the empty string normalizes to itself.
func Normalize(raw string) string {
	text := cleanPass(raw)
	for {
		next := cleanPass(text)
		if next == text {
			return text
		}
		text = next
	}
}

// NormalizeAll normalizes every text in order.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = Normalize(text)
	}
	return out
}

func cleanPass(text string) string {
	if text == "" {
		return ""
	}

	text = foldAccents(strings.ToLower(text))
	text = urlRE.ReplaceAllString(text, "")
	text = mentionRE.ReplaceAllString(text, "")
	text = hashtagRE.ReplaceAllString(text, "${1}")

	// Replace rather than delete so that "good.bad" stays two words.
	text = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return ' '
		}
	}, text)

	return strings.Join(strings.Fields(text), " ")
}
