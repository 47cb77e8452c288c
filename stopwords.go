package sentiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bbalet/stopwords"
)

// stopWordLanguages lists the ISO 639-1 codes accepted by VectorizerConfig.StopWords.
var stopWordLanguages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
}

// IsStopWordLanguageSupported reports whether stop words can be removed for lang.
func IsStopWordLanguageSupported(lang string) bool {
	_, ok := stopWordLanguages[lang]
	return ok
}

// SupportedStopWordLanguages returns the accepted language codes.
func SupportedStopWordLanguages() []string {
	langs := make([]string, 0, len(stopWordLanguages))
	for code := range stopWordLanguages {
		langs = append(langs, code)
	}
	sort.Strings(langs)
	return langs
}

// removeStopWords drops the most frequent words of lang from text. The
// stopwords library also drops digits and punctuation, which is acceptable
// here since the analyzer only keeps word tokens afterwards.
func removeStopWords(text, lang string) string {
	return strings.TrimSpace(stopwords.CleanString(text, lang, false))
}

func formatStopWordLanguageError(lang string) error {
	return fmt.Errorf("stop word language %q is not supported", lang)
}
