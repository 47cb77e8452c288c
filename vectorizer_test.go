package sentiment

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
)

func unigramConfig() VectorizerConfig {
	config := DefaultVectorizerConfig()
	config.NGramMax = 1
	return config
}

func TestFitVectorizerVocabulary(t *testing.T) {
	tests := []struct {
		corpus   []string
		config   func(*VectorizerConfig)
		expected map[string]int
		desc     string
	}{
		{
			[]string{"good movie", "good film", "bad movie"},
			nil,
			map[string]int{"good": 0, "movie": 1},
			"Terms below min_df dropped",
		},
		{
			[]string{"the cat", "the dog", "the cat", "the dog"},
			func(c *VectorizerConfig) { c.MaxDF = 0.9 },
			map[string]int{"cat": 0, "dog": 1},
			"Terms above max_df dropped",
		},
		{
			[]string{"zz yy xx", "zz yy xx", "zz yy", "zz ww"},
			func(c *VectorizerConfig) { c.MinDF = 1; c.MaxDF = 1; c.MaxFeatures = 2 },
			map[string]int{"yy": 0, "zz": 1},
			"Most frequent terms kept, indexed alphabetically",
		},
		{
			[]string{"aa bb", "cc dd"},
			func(c *VectorizerConfig) { c.MinDF = 1; c.MaxDF = 1; c.MaxFeatures = 3 },
			map[string]int{"aa": 0, "bb": 1, "cc": 2},
			"Frequency ties broken alphabetically",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			config := unigramConfig()
			if tt.config != nil {
				tt.config(&config)
			}
			v, err := FitVectorizer(tt.corpus, config)
			if err != nil {
				t.Fatalf("FitVectorizer: %v", err)
			}
			if got := v.Vocabulary(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Corpus: %q\nExpected: %v\nGot: %v", tt.corpus, tt.expected, got)
			}
		})
	}
}

func TestFitVectorizerBigrams(t *testing.T) {
	v, err := FitVectorizer([]string{"not good at all", "not good really", "something different"}, DefaultVectorizerConfig())
	if err != nil {
		t.Fatalf("FitVectorizer: %v", err)
	}
	expected := []string{"good", "not", "not good"}
	if got := v.Terms(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected terms %q, got %q", expected, got)
	}
}

func TestFitVectorizerErrors(t *testing.T) {
	if _, err := FitVectorizer(nil, DefaultVectorizerConfig()); err == nil {
		t.Error("Expected an error for an empty corpus")
	}

	_, err := FitVectorizer([]string{"only once", "something else", "third one"}, DefaultVectorizerConfig())
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("Expected ErrEmptyVocabulary, got %v", err)
	}

	// Single letters are never tokens.
	_, err = FitVectorizer([]string{"a b c", "a b c", "a b c"}, DefaultVectorizerConfig())
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("Expected ErrEmptyVocabulary, got %v", err)
	}

	// max_df of two documents is below min_df.
	if _, err := FitVectorizer([]string{"aa bb", "aa bb"}, DefaultVectorizerConfig()); err == nil {
		t.Error("Expected an error when max_df leaves fewer documents than min_df")
	}

	bad := []func(*VectorizerConfig){
		func(c *VectorizerConfig) { c.NGramMin = 0 },
		func(c *VectorizerConfig) { c.NGramMax = 0 },
		func(c *VectorizerConfig) { c.MinDF = 0 },
		func(c *VectorizerConfig) { c.MaxDF = 1.5 },
		func(c *VectorizerConfig) { c.MaxFeatures = -1 },
		func(c *VectorizerConfig) { c.StopWords = "klingon" },
	}
	for i, mutate := range bad {
		config := DefaultVectorizerConfig()
		mutate(&config)
		if _, err := FitVectorizer([]string{"aa bb", "aa bb"}, config); err == nil {
			t.Errorf("config %d: expected a validation error", i)
		}
	}
}

func TestSmoothIDF(t *testing.T) {
	v, err := FitVectorizer([]string{"good movie", "good film", "bad movie"}, unigramConfig())
	if err != nil {
		t.Fatalf("FitVectorizer: %v", err)
	}
	expected := math.Log(4.0/3.0) + 1
	for i, idf := range v.IDF() {
		if math.Abs(idf-expected) > 1e-12 {
			t.Errorf("term %q: expected idf %.6f, got %.6f", v.Terms()[i], expected, idf)
		}
	}
}

func TestTransform(t *testing.T) {
	v, err := FitVectorizer([]string{"good movie", "good film", "bad movie", "good good"}, unigramConfig())
	if err != nil {
		t.Fatalf("FitVectorizer: %v", err)
	}

	vectors := v.Transform([]string{"good movie", "good good good", "unknown words only", ""})

	for i, vec := range vectors {
		if vec.Dim != v.Len() {
			t.Errorf("vector %d: Dim %d, want %d", i, vec.Dim, v.Len())
		}
	}

	if n := vectors[0].Norm(); math.Abs(n-1) > 1e-12 {
		t.Errorf("Expected unit norm, got %.12f", n)
	}
	if vectors[1].NNZ() != 1 || math.Abs(vectors[1].Values[0]-1) > 1e-12 {
		t.Errorf("Repeated single term should normalize to 1: %+v", vectors[1])
	}
	if vectors[2].NNZ() != 0 || vectors[3].NNZ() != 0 {
		t.Errorf("Unknown and empty texts should give zero vectors: %+v %+v", vectors[2], vectors[3])
	}

	// "good" has df 3 and "movie" df 2, so "movie" weighs more.
	vocab := v.Vocabulary()
	if vectors[0].At(vocab["movie"]) <= vectors[0].At(vocab["good"]) {
		t.Errorf("Rarer term should weigh more: %+v", vectors[0])
	}
}

func TestTransformSublinearTF(t *testing.T) {
	corpus := []string{"good movie", "good film", "bad movie", "good bad"}
	config := unigramConfig()
	config.SublinearTF = true
	v, err := FitVectorizer(corpus, config)
	if err != nil {
		t.Fatalf("FitVectorizer: %v", err)
	}

	vocab := v.Vocabulary()
	vec := v.Transform([]string{"good good good good movie"})[0]
	idf := v.IDF()
	good := (1 + math.Log(4)) * idf[vocab["good"]]
	movie := idf[vocab["movie"]]
	expected := good / math.Hypot(good, movie)
	if got := vec.At(vocab["good"]); math.Abs(got-expected) > 1e-12 {
		t.Errorf("Expected %.6f, got %.6f", expected, got)
	}
}

func TestTransformDimensionInvariance(t *testing.T) {
	v, _, _ := fixtureVectors(t, 10)
	texts := []string{
		"", "x", "amazing", "completely unrelated words here",
		"terrible terrible terrible", "okay video", "🙂",
	}
	for _, vec := range v.Transform(texts) {
		if vec.Dim != v.Len() {
			t.Errorf("Expected Dim %d, got %d", v.Len(), vec.Dim)
		}
		for k := 1; k < len(vec.Indices); k++ {
			if vec.Indices[k-1] >= vec.Indices[k] {
				t.Errorf("indices not strictly increasing: %v", vec.Indices)
			}
		}
	}
}

func TestVocabularyIsCopy(t *testing.T) {
	v, _, _ := fixtureVectors(t, 5)
	vocab := v.Vocabulary()
	for term := range vocab {
		delete(vocab, term)
	}
	if len(v.Vocabulary()) != v.Len() {
		t.Error("mutating the returned vocabulary changed the vectorizer")
	}
}

func TestVectorizerGobRoundTrip(t *testing.T) {
	v, _, _ := fixtureVectors(t, 10)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	loaded := &Vectorizer{}
	if err := gob.NewDecoder(&buf).Decode(loaded); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	texts := []string{"amazing video love", "terrible upload", "okay fine"}
	if !reflect.DeepEqual(v.Transform(texts), loaded.Transform(texts)) {
		t.Error("decoded vectorizer transforms differently")
	}
	if loaded.Config() != v.Config() {
		t.Errorf("config mismatch: %+v vs %+v", loaded.Config(), v.Config())
	}
}

func TestTransformConcurrent(t *testing.T) {
	v, _, _ := fixtureVectors(t, 10)
	want := v.Transform([]string{"amazing content", "worst upload"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := v.Transform([]string{"amazing content", "worst upload"})
			if !reflect.DeepEqual(got, want) {
				t.Error("concurrent transform differs")
			}
		}()
	}
	wg.Wait()
}

func BenchmarkTransform(b *testing.B) {
	v, _, _ := fixtureVectors(b, 50)
	texts := []string{"best video ever subscribed", "it s okay nothing special", "terrible waste of time"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Transform(texts)
	}
}
