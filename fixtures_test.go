package sentiment

import (
	"fmt"
	"testing"

	"gonum.org/v1/gonum/mat"
)

var (
	positiveCues = []string{"amazing", "best", "love", "great", "awesome", "subscribed", "excellent"}
	negativeCues = []string{"terrible", "worst", "hate", "awful", "boring", "waste", "horrible"}
	neutralCues  = []string{"okay", "nothing", "special", "average", "fine", "normal", "whatever"}
	fillerWords  = []string{"video", "this channel", "the episode", "content", "upload"}
)

// fixtureExamples returns perClass normalized comments for every class,
// each carrying two cue words of its class.
func fixtureExamples(perClass int) []LabeledExample {
	cues := [NumClasses][]string{negativeCues, neutralCues, positiveCues}
	var out []LabeledExample
	for i := 0; i < perClass; i++ {
		for _, label := range Labels {
			words := cues[label]
			text := fmt.Sprintf("%s %s %s", words[i%len(words)], fillerWords[i%len(fillerWords)], words[(i+3)%len(words)])
			out = append(out, LabeledExample{Text: text, Label: label})
		}
	}
	return out
}

func fixtureVectors(t testing.TB, perClass int) (*Vectorizer, []FeatureVector, []Label) {
	t.Helper()
	texts, labels := splitExamples(fixtureExamples(perClass))
	v, x, err := FitTransform(texts, DefaultVectorizerConfig())
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	return v, x, labels
}

// cuedArtifact builds a logistic regression by hand in which every positive
// and negative cue adds 3 to its class score and every neutral cue adds 1.
func cuedArtifact(t testing.TB) *Artifact {
	t.Helper()

	corpus := []string{
		"amazing best love subscribed great",
		"terrible worst hate awful",
		"okay nothing special fine",
		"video ever channel",
	}
	config := DefaultVectorizerConfig()
	config.MinDF = 1
	config.MaxDF = 1
	config.NGramMax = 1
	v, err := FitVectorizer(corpus, config)
	if err != nil {
		t.Fatalf("FitVectorizer: %v", err)
	}

	weights := mat.NewDense(NumClasses, v.Len(), nil)
	set := func(label Label, words []string, w float64) {
		vocab := v.Vocabulary()
		for _, word := range words {
			if idx, ok := vocab[word]; ok {
				weights.Set(int(label), idx, w)
			}
		}
	}
	set(Positive, positiveCues, 3)
	set(Negative, negativeCues, 3)
	set(Neutral, neutralCues, 1)

	clf := &LogisticRegression{
		params:  Params{C: 1, Solver: SolverLBFGS, MaxIter: 200},
		dim:     v.Len(),
		weights: weights,
		bias:    mat.NewVecDense(NumClasses, nil),
	}
	return &Artifact{
		Vectorizer: v,
		Classifier: clf,
		Metadata: Metadata{
			ModelType: string(FamilyLogisticRegression),
			NFeatures: v.Len(),
			Classes:   ClassNames(),
		},
	}
}

func rawDocuments(texts ...string) []RawDocument {
	docs := make([]RawDocument, len(texts))
	for i, text := range texts {
		docs[i] = RawDocument{Text: text}
	}
	return docs
}
