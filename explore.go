package sentiment

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

// ImbalanceThreshold is the largest-to-smallest class ratio above which a
// corpus is reported as imbalanced.
const ImbalanceThreshold = 1.5

// LengthSummary describes the character lengths of a corpus.
type LengthSummary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// CorpusReport is the exploratory summary of a labeled corpus.
type CorpusReport struct {
	Total          int
	ClassCounts    [NumClasses]int
	ClassPercent   [NumClasses]float64
	ImbalanceRatio float64
	Imbalanced     bool
	Length         LengthSummary
	MeanSentences  float64
}

var (
	sentenceTokenizer     *sentences.DefaultSentenceTokenizer
	sentenceTokenizerErr  error
	sentenceTokenizerOnce sync.Once
)

func englishSentenceTokenizer() (*sentences.DefaultSentenceTokenizer, error) {
	sentenceTokenizerOnce.Do(func() {
		sentenceTokenizer, sentenceTokenizerErr = english.NewSentenceTokenizer(nil)
	})
	return sentenceTokenizer, sentenceTokenizerErr
}

// countSentences returns the number of non-empty sentences in text.
func countSentences(tokenizer *sentences.DefaultSentenceTokenizer, text string) int {
	n := 0
	for _, s := range tokenizer.Tokenize(text) {
		if strings.TrimSpace(s.Text) != "" {
			n++
		}
	}
	return n
}

// ExploreCorpus reports class balance, text length statistics and the mean
// number of sentences per comment.
func ExploreCorpus(examples []LabeledExample) (CorpusReport, error) {
	if len(examples) == 0 {
		return CorpusReport{}, errors.New("empty corpus")
	}
	tokenizer, err := englishSentenceTokenizer()
	if err != nil {
		return CorpusReport{}, err
	}

	report := CorpusReport{Total: len(examples)}
	lengths := make([]float64, len(examples))
	var sentenceTotal int
	for i, ex := range examples {
		if !ex.Label.Valid() {
			return CorpusReport{}, errors.New("corpus contains an invalid label")
		}
		report.ClassCounts[ex.Label]++
		lengths[i] = float64(utf8.RuneCountInString(ex.Text))
		sentenceTotal += countSentences(tokenizer, ex.Text)
	}

	largest, smallest := 0, len(examples)
	for k, n := range report.ClassCounts {
		report.ClassPercent[k] = float64(n) / float64(len(examples)) * 100
		largest = max(largest, n)
		smallest = min(smallest, n)
	}
	if smallest > 0 {
		report.ImbalanceRatio = float64(largest) / float64(smallest)
		report.Imbalanced = report.ImbalanceRatio > ImbalanceThreshold
	} else {
		// A missing class is the extreme case of imbalance.
		report.Imbalanced = true
	}

	report.Length = summarizeLengths(lengths)
	report.MeanSentences = float64(sentenceTotal) / float64(len(examples))
	return report, nil
}

func summarizeLengths(lengths []float64) LengthSummary {
	sorted := append([]float64(nil), lengths...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	return LengthSummary{
		Count:  len(sorted),
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}
