package sentiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Column names of the raw and prepared corpora.
const (
	RawTextColumn  = "clean_comment"
	RawLabelColumn = "category"
	TextColumn     = "text"
	LabelColumn    = "label"
)

// MinTextLength is the cleaned length a comment must exceed to be kept in
// a training corpus.
const MinTextLength = 5

// CorpusStats summarizes what BuildCorpus kept and dropped.
type CorpusStats struct {
	Rows         int // Data rows read
	Kept         int
	DroppedShort int // Cleaned text of MinTextLength characters or fewer
	DroppedLabel int // Missing or unknown category
}

// ReadRawCorpus reads the raw comment CSV, whose category column holds
// -1, 0 or 1. Texts are returned as written. Rows with an unknown category
// are skipped and counted in the returned stats.
func ReadRawCorpus(r io.Reader) ([]LabeledExample, CorpusStats, error) {
	var stats CorpusStats
	var examples []LabeledExample

	err := readCSV(r, RawTextColumn, RawLabelColumn, func(text, category string) error {
		stats.Rows++
		raw, err := strconv.ParseFloat(strings.TrimSpace(category), 64)
		if err != nil || raw != math.Trunc(raw) {
			stats.DroppedLabel++
			return nil
		}
		label, ok := MapRawLabel(int(raw))
		if !ok {
			stats.DroppedLabel++
			return nil
		}
		examples = append(examples, LabeledExample{Text: text, Label: label})
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	stats.Kept = len(examples)
	return examples, stats, nil
}

// BuildCorpus reads the raw comment CSV, normalizes every comment, maps
// categories -1/0/1 to Negative/Neutral/Positive and drops comments whose
// cleaned text is MinTextLength characters or shorter.
func BuildCorpus(r io.Reader) ([]LabeledExample, CorpusStats, error) {
	raw, stats, err := ReadRawCorpus(r)
	if err != nil {
		return nil, stats, err
	}

	corpus := make([]LabeledExample, 0, len(raw))
	for _, ex := range raw {
		text := Normalize(ex.Text)
		if len(text) <= MinTextLength {
			stats.DroppedShort++
			continue
		}
		corpus = append(corpus, LabeledExample{Text: text, Label: ex.Label})
	}
	stats.Kept = len(corpus)
	return corpus, stats, nil
}

// ReadLabeledCSV reads a prepared corpus with text and label (0, 1 or 2)
// columns.
func ReadLabeledCSV(r io.Reader) ([]LabeledExample, error) {
	var examples []LabeledExample
	line := 1
	err := readCSV(r, TextColumn, LabelColumn, func(text, value string) error {
		line++
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || !Label(n).Valid() {
			return fmt.Errorf("record %d: invalid label %q", line, value)
		}
		examples = append(examples, LabeledExample{Text: text, Label: Label(n)})
		return nil
	})
	return examples, err
}

// WriteLabeledCSV writes examples in the format read by ReadLabeledCSV.
func WriteLabeledCSV(w io.Writer, examples []LabeledExample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{TextColumn, LabelColumn}); err != nil {
		return err
	}
	for _, ex := range examples {
		if err := cw.Write([]string{ex.Text, strconv.Itoa(int(ex.Label))}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readCSV calls fn with the two named columns of every record.
func readCSV(r io.Reader, textColumn, labelColumn string, fn func(text, label string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return errors.New("empty CSV: missing header")
	}
	if err != nil {
		return err
	}

	textIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case textColumn:
			textIdx = i
		case labelColumn:
			labelIdx = i
		}
	}
	if textIdx < 0 || labelIdx < 0 {
		return fmt.Errorf("CSV header must contain %q and %q columns", textColumn, labelColumn)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var text, label string
		if textIdx < len(record) {
			text = record[textIdx]
		}
		if labelIdx < len(record) {
			label = record[labelIdx]
		}
		if err := fn(text, label); err != nil {
			return err
		}
	}
}

// StratifiedSplit shuffles examples with seed and holds out testSize of
// them, keeping the class proportions of both parts as close as possible to
// those of the whole.
func StratifiedSplit(examples []LabeledExample, testSize float64, seed int64) (train, test []LabeledExample, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %g", testSize)
	}

	var byClass [NumClasses][]int
	for i, ex := range examples {
		if !ex.Label.Valid() {
			return nil, nil, fmt.Errorf("example %d has invalid label %d", i, int(ex.Label))
		}
		byClass[ex.Label] = append(byClass[ex.Label], i)
	}

	nTest := int(math.Ceil(testSize * float64(len(examples))))
	if nTest < 1 || nTest >= len(examples) {
		return nil, nil, fmt.Errorf("cannot hold out %d of %d examples", nTest, len(examples))
	}

	// Allocate test slots by the largest remainder.
	alloc := make([]int, NumClasses)
	remainders := make([]int, 0, NumClasses)
	assigned := 0
	for k, idx := range byClass {
		share := testSize * float64(len(idx))
		alloc[k] = int(math.Floor(share))
		assigned += alloc[k]
		remainders = append(remainders, k)
	}
	sort.SliceStable(remainders, func(i, j int) bool {
		ki, kj := remainders[i], remainders[j]
		fi := testSize*float64(len(byClass[ki])) - float64(alloc[ki])
		fj := testSize*float64(len(byClass[kj])) - float64(alloc[kj])
		return fi > fj
	})
	for i := 0; assigned < nTest; i = (i + 1) % NumClasses {
		k := remainders[i]
		if alloc[k] < len(byClass[k]) {
			alloc[k]++
			assigned++
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for k, idx := range byClass {
		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		testIdx = append(testIdx, shuffled[:alloc[k]]...)
		trainIdx = append(trainIdx, shuffled[alloc[k]:]...)
	}
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })

	for _, i := range trainIdx {
		train = append(train, examples[i])
	}
	for _, i := range testIdx {
		test = append(test, examples[i])
	}
	return train, test, nil
}
