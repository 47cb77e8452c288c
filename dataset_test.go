package sentiment

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

const rawCorpusCSV = "\ufeffclean_comment,category\n" +
	"\"This video is AMAZING!!! https://youtu.be/x\",1\n" +
	"\"worst. upload. ever. @channel\",-1.0\n" +
	"\"it's fine I guess\",0\n" +
	"\"ok\",1\n" +
	"\"no label here\",\n" +
	"\"strange label\",2\n" +
	"\"half label\",0.5\n"

func TestBuildCorpus(t *testing.T) {
	corpus, stats, err := BuildCorpus(strings.NewReader(rawCorpusCSV))
	if err != nil {
		t.Fatalf("BuildCorpus: %v", err)
	}

	expected := []LabeledExample{
		{Text: "this video is amazing", Label: Positive},
		{Text: "worst upload ever", Label: Negative},
		{Text: "it s fine i guess", Label: Neutral},
	}
	if !reflect.DeepEqual(corpus, expected) {
		t.Errorf("Expected %+v\nGot %+v", expected, corpus)
	}

	want := CorpusStats{Rows: 7, Kept: 3, DroppedShort: 1, DroppedLabel: 3}
	if stats != want {
		t.Errorf("Expected stats %+v, got %+v", want, stats)
	}
}

func TestReadRawCorpusKeepsText(t *testing.T) {
	raw, stats, err := ReadRawCorpus(strings.NewReader(rawCorpusCSV))
	if err != nil {
		t.Fatalf("ReadRawCorpus: %v", err)
	}
	if stats.Kept != 4 || len(raw) != 4 {
		t.Fatalf("Expected 4 rows, got %d (%+v)", len(raw), stats)
	}
	if raw[0].Text != "This video is AMAZING!!! https://youtu.be/x" {
		t.Errorf("Raw text was modified: %q", raw[0].Text)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		input string
		desc  string
	}{
		{"", "Empty input"},
		{"text,score\nhello,1\n", "Missing label column"},
		{"comment,category\nhello,1\n", "Missing text column"},
		{"clean_comment,category\n\"unterminated,1\n", "Malformed quoting"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, _, err := BuildCorpus(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLabeledCSVRoundTrip(t *testing.T) {
	examples := []LabeledExample{
		{Text: "great video", Label: Positive},
		{Text: "with, a comma", Label: Neutral},
		{Text: "with \"quotes\"", Label: Negative},
	}

	var buf bytes.Buffer
	if err := WriteLabeledCSV(&buf, examples); err != nil {
		t.Fatalf("WriteLabeledCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "text,label\n") {
		t.Errorf("Unexpected header in %q", buf.String())
	}

	got, err := ReadLabeledCSV(&buf)
	if err != nil {
		t.Fatalf("ReadLabeledCSV: %v", err)
	}
	if !reflect.DeepEqual(got, examples) {
		t.Errorf("Expected %+v, got %+v", examples, got)
	}
}

func TestReadLabeledCSVInvalidLabel(t *testing.T) {
	for _, input := range []string{
		"text,label\ngood,2\nbad,3\n",
		"text,label\ngood,positive\n",
		"label,text\n-1,bad\n",
	} {
		if _, err := ReadLabeledCSV(strings.NewReader(input)); err == nil {
			t.Errorf("%q: expected an error", input)
		}
	}
}

func TestStratifiedSplit(t *testing.T) {
	var examples []LabeledExample
	counts := map[Label]int{Negative: 20, Neutral: 30, Positive: 50}
	for _, label := range Labels {
		for i := 0; i < counts[label]; i++ {
			examples = append(examples, LabeledExample{Text: strings.Repeat("x", i+1), Label: label})
		}
	}

	train, test, err := StratifiedSplit(examples, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit: %v", err)
	}
	if len(train) != 80 || len(test) != 20 {
		t.Fatalf("Expected 80/20, got %d/%d", len(train), len(test))
	}

	testCounts := map[Label]int{}
	for _, ex := range test {
		testCounts[ex.Label]++
	}
	expected := map[Label]int{Negative: 4, Neutral: 6, Positive: 10}
	if !reflect.DeepEqual(testCounts, expected) {
		t.Errorf("Expected test counts %v, got %v", expected, testCounts)
	}

	seen := map[LabeledExample]int{}
	for _, ex := range append(append([]LabeledExample(nil), train...), test...) {
		seen[ex]++
	}
	for _, ex := range examples {
		if seen[ex] != 1 {
			t.Errorf("%+v appears %d times", ex, seen[ex])
		}
	}

	train2, test2, err := StratifiedSplit(examples, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit: %v", err)
	}
	if !reflect.DeepEqual(train, train2) || !reflect.DeepEqual(test, test2) {
		t.Error("split is not deterministic for a fixed seed")
	}
}

func TestStratifiedSplitRounding(t *testing.T) {
	examples := fixtureExamples(3) // 9 examples, 3 per class
	_, test, err := StratifiedSplit(examples, 0.2, 1)
	if err != nil {
		t.Fatalf("StratifiedSplit: %v", err)
	}
	// ceil(0.2 * 9) = 2 comments, taken from two different classes.
	if len(test) != 2 {
		t.Fatalf("Expected 2 held-out examples, got %d", len(test))
	}
	if test[0].Label == test[1].Label {
		t.Errorf("Expected two classes in %+v", test)
	}
}

func TestStratifiedSplitErrors(t *testing.T) {
	examples := fixtureExamples(2)
	for _, size := range []float64{0, 1, -0.5, 1.5} {
		if _, _, err := StratifiedSplit(examples, size, 0); err == nil {
			t.Errorf("test size %v: expected an error", size)
		}
	}
	if _, _, err := StratifiedSplit(examples[:1], 0.5, 0); err == nil {
		t.Error("Expected an error for a single example")
	}
	bad := append([]LabeledExample{{Text: "x", Label: Label(-1)}}, examples...)
	if _, _, err := StratifiedSplit(bad, 0.2, 0); err == nil {
		t.Error("Expected an error for an invalid label")
	}
}
