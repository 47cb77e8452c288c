package sentiment

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"
)

// VectorizerConfig configures TF-IDF feature extraction.
type VectorizerConfig struct {
	MaxFeatures  int     // Vocabulary size cap, 0 for no cap
	NGramMin     int     // Smallest n-gram length
	NGramMax     int     // Largest n-gram length
	MinDF        int     // Terms in fewer documents are dropped
	MaxDF        float64 // Terms in more than this fraction of documents are dropped
	SublinearTF  bool    // Use 1+ln(tf) instead of raw counts
	StripAccents bool    // Fold accented letters to their base letter
	StopWords    string  // ISO 639-1 code of stop words to remove, empty to keep them
}

// DefaultVectorizerConfig returns the unigram+bigram configuration used for
// comment classification.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxFeatures:  5000,
		NGramMin:     1,
		NGramMax:     2,
		MinDF:        2,
		MaxDF:        0.95,
		SublinearTF:  false,
		StripAccents: true,
	}
}

func (c VectorizerConfig) validate() error {
	if c.NGramMin < 1 || c.NGramMax < c.NGramMin {
		return fmt.Errorf("invalid n-gram range (%d, %d)", c.NGramMin, c.NGramMax)
	}
	if c.MinDF < 1 {
		return fmt.Errorf("min_df must be at least 1, got %d", c.MinDF)
	}
	if c.MaxDF <= 0 || c.MaxDF > 1 {
		return fmt.Errorf("max_df must be in (0, 1], got %g", c.MaxDF)
	}
	if c.MaxFeatures < 0 {
		return fmt.Errorf("max_features must not be negative, got %d", c.MaxFeatures)
	}
	if c.StopWords != "" && !IsStopWordLanguageSupported(c.StopWords) {
		return formatStopWordLanguageError(c.StopWords)
	}
	return nil
}

// ErrEmptyVocabulary is returned by FitVectorizer when document-frequency
// pruning leaves no terms.
var ErrEmptyVocabulary = errors.New("after pruning, no terms remain")

// A Vectorizer maps documents to TF-IDF vectors over a frozen vocabulary.
//
// A Vectorizer is immutable once fitted and is safe for concurrent use.
type Vectorizer struct {
	config     VectorizerConfig
	analyzer   analyzer
	vocabulary map[string]int
	terms      []string
	idf        []float64
}

// FitVectorizer learns the vocabulary and inverse document frequencies of
// corpus.
//
// Terms found in fewer than MinDF documents or in more than MaxDF of them are
// discarded. If more than MaxFeatures terms remain, the most frequent terms
// across the corpus are kept (ties broken alphabetically). Indices are then
// assigned in alphabetical order of the terms.
func FitVectorizer(corpus []string, config VectorizerConfig) (*Vectorizer, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, errors.New("cannot fit a vectorizer on an empty corpus")
	}

	a := newAnalyzer(config)
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)

	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range a.terms(doc) {
			termFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	n := len(corpus)
	maxDocCount := config.MaxDF * float64(n)
	if maxDocCount < float64(config.MinDF) {
		return nil, fmt.Errorf("max_df corresponds to < documents than min_df (%g < %d)", maxDocCount, config.MinDF)
	}

	kept := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= config.MinDF && float64(df) <= maxDocCount {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyVocabulary
	}

	if config.MaxFeatures > 0 && len(kept) > config.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			fi, fj := termFreq[kept[i]], termFreq[kept[j]]
			if fi != fj {
				return fi > fj
			}
			return kept[i] < kept[j]
		})
		kept = kept[:config.MaxFeatures]
	}
	sort.Strings(kept)

	idf := make([]float64, len(kept))
	for i, term := range kept {
		idf[i] = smoothIDF(n, docFreq[term])
	}

	return newVectorizer(config, kept, idf), nil
}

// FitTransform fits a vectorizer on corpus and returns the corpus vectors.
func FitTransform(corpus []string, config VectorizerConfig) (*Vectorizer, []FeatureVector, error) {
	v, err := FitVectorizer(corpus, config)
	if err != nil {
		return nil, nil, err
	}
	return v, v.Transform(corpus), nil
}

func newVectorizer(config VectorizerConfig, terms []string, idf []float64) *Vectorizer {
	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		vocabulary[term] = i
	}
	return &Vectorizer{
		config:     config,
		analyzer:   newAnalyzer(config),
		vocabulary: vocabulary,
		terms:      terms,
		idf:        idf,
	}
}

// smoothIDF is ln((1+n)/(1+df)) + 1, as if one extra document contained
// every term once.
func smoothIDF(n, df int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

// Transform maps each document to an L2-normalized TF-IDF vector of
// dimension Len(). Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(docs []string) []FeatureVector {
	out := make([]FeatureVector, len(docs))
	for i, doc := range docs {
		out[i] = v.transformOne(doc)
	}
	return out
}

func (v *Vectorizer) transformOne(doc string) FeatureVector {
	counts := make(map[int]float64)
	for _, term := range v.analyzer.terms(doc) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, tf := range counts {
		if v.config.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * v.idf[idx]
		counts[idx] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}

	return newFeatureVector(counts, len(v.terms))
}

// Len returns the vocabulary size, which is the dimension of every vector.
func (v *Vectorizer) Len() int {
	return len(v.terms)
}

// Config returns the configuration the vectorizer was fitted with.
func (v *Vectorizer) Config() VectorizerConfig {
	return v.config
}

// Vocabulary returns a copy of the term to index mapping.
func (v *Vectorizer) Vocabulary() map[string]int {
	out := make(map[string]int, len(v.vocabulary))
	for term, idx := range v.vocabulary {
		out[term] = idx
	}
	return out
}

// Terms returns the vocabulary terms in index order.
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// IDF returns the inverse document frequency of every term in index order.
func (v *Vectorizer) IDF() []float64 {
	return append([]float64(nil), v.idf...)
}

type vectorizerState struct {
	Config VectorizerConfig
	Terms  []string
	IDF    []float64
}

// GobEncode implements gob.GobEncoder.
func (v *Vectorizer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(vectorizerState{
		Config: v.config,
		Terms:  v.terms,
		IDF:    v.idf,
	})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (v *Vectorizer) GobDecode(data []byte) error {
	var state vectorizerState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	if len(state.Terms) != len(state.IDF) {
		return fmt.Errorf("corrupt vectorizer: %d terms but %d idf weights", len(state.Terms), len(state.IDF))
	}
	*v = *newVectorizer(state.Config, state.Terms, state.IDF)
	return nil
}
