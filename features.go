package sentiment

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenRE matches words of two or more letters, digits or underscores.
var tokenRE = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// analyzer turns a document into the n-gram terms counted by a Vectorizer.
type analyzer struct {
	ngramMin     int
	ngramMax     int
	stripAccents bool
	stopWords    string // ISO 639-1 code, empty to keep stop words
}

func newAnalyzer(config VectorizerConfig) analyzer {
	return analyzer{
		ngramMin:     config.NGramMin,
		ngramMax:     config.NGramMax,
		stripAccents: config.StripAccents,
		stopWords:    config.StopWords,
	}
}

// terms returns the n-grams of text in document order, duplicates included.
func (a analyzer) terms(text string) []string {
	text = strings.ToLower(text)
	if a.stripAccents {
		text = foldAccents(text)
	}
	if a.stopWords != "" {
		text = removeStopWords(text, a.stopWords)
	}

	tokens := tokenRE.FindAllString(text, -1)
	return extractNGrams(tokens, a.ngramMin, a.ngramMax)
}

// extractNGrams joins every run of n consecutive tokens, for n in [min, max],
// with a single space.
func extractNGrams(tokens []string, min, max int) []string {
	if len(tokens) == 0 {
		return nil
	}

	grams := make([]string, 0, len(tokens)*(max-min+1))

	// Unigrams are the tokens themselves
	if min == 1 {
		grams = append(grams, tokens...)
		min = 2
	}

	for n := min; n <= max; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}

	return grams
}

// foldAccents decomposes text and drops combining marks, so "café" becomes
// "cafe". A new transformer is built per call since they are stateful.
func foldAccents(text string) string {
	isASCII := true
	for i := 0; i < len(text); i++ {
		if text[i] >= 0x80 {
			isASCII = false
			break
		}
	}
	if isASCII {
		return text
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}
