package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tsawler/sentiment"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func renderCorpusStats(w io.Writer, stats sentiment.CorpusStats) {
	t := newTable(w, "Corpus")
	t.AppendHeader(table.Row{"Rows", "Kept", "Dropped (short)", "Dropped (label)"})
	t.AppendRow(table.Row{stats.Rows, stats.Kept, stats.DroppedShort, stats.DroppedLabel})
	t.Render()
}

func renderSplit(w io.Writer, train, test []sentiment.LabeledExample) {
	count := func(examples []sentiment.LabeledExample) [sentiment.NumClasses]int {
		var counts [sentiment.NumClasses]int
		for _, ex := range examples {
			counts[ex.Label]++
		}
		return counts
	}
	trainCounts, testCounts := count(train), count(test)

	t := newTable(w, "Split")
	t.AppendHeader(table.Row{"Class", "Train", "Test"})
	for _, label := range sentiment.Labels {
		t.AppendRow(table.Row{label.String(), trainCounts[label], testCounts[label]})
	}
	t.AppendFooter(table.Row{"Total", len(train), len(test)})
	t.Render()
}

func renderCorpusReport(w io.Writer, report sentiment.CorpusReport) {
	classes := newTable(w, "Class distribution")
	classes.AppendHeader(table.Row{"Class", "Comments", "Share"})
	for _, label := range sentiment.Labels {
		classes.AppendRow(table.Row{
			label.String(),
			report.ClassCounts[label],
			fmt.Sprintf("%.2f%%", report.ClassPercent[label]),
		})
	}
	balance := "balanced"
	if report.Imbalanced {
		balance = "imbalanced"
	}
	classes.AppendFooter(table.Row{"Total", report.Total, fmt.Sprintf("ratio %.2f (%s)", report.ImbalanceRatio, balance)})
	classes.Render()

	l := report.Length
	lengths := newTable(w, "Comment length (characters)")
	lengths.AppendHeader(table.Row{"Mean", "Std", "Min", "25%", "Median", "75%", "Max", "Sentences"})
	lengths.AppendRow(table.Row{
		fmt.Sprintf("%.1f", l.Mean),
		fmt.Sprintf("%.1f", l.Std),
		l.Min, l.Q25, l.Median, l.Q75, l.Max,
		fmt.Sprintf("%.2f", report.MeanSentences),
	})
	lengths.Render()
}

func renderEvaluation(w io.Writer, r sentiment.EvaluationResult) {
	scores := newTable(w, fmt.Sprintf("%s %s", r.Family, r.Params))
	scores.AppendHeader(table.Row{"Class", "Precision", "Recall", "F1", "Support"})
	for _, c := range r.Report {
		scores.AppendRow(table.Row{
			c.Label.String(),
			fmt.Sprintf("%.4f", c.Precision),
			fmt.Sprintf("%.4f", c.Recall),
			fmt.Sprintf("%.4f", c.F1),
			c.Support,
		})
	}
	scores.AppendFooter(table.Row{"Weighted", "", fmt.Sprintf("acc %.4f", r.Accuracy), fmt.Sprintf("%.4f", r.F1), ""})
	scores.Render()

	if r.Confusion == nil {
		return
	}
	confusion := newTable(w, "Confusion (rows true, columns predicted)")
	header := table.Row{""}
	for _, label := range sentiment.Labels {
		header = append(header, label.String())
	}
	confusion.AppendHeader(header)
	for i, label := range sentiment.Labels {
		row := table.Row{label.String()}
		for j := range sentiment.Labels {
			row = append(row, int(r.Confusion.At(i, j)))
		}
		confusion.AppendRow(row)
	}
	confusion.Render()
}

func renderComparison(w io.Writer, results []sentiment.EvaluationResult, selected string) {
	t := newTable(w, "Model comparison")
	t.AppendHeader(table.Row{"Model", "Params", "CV F1", "Accuracy", "F1", "Latency (ms)", ""})
	for _, r := range results {
		mark := ""
		if string(r.Family) == selected {
			mark = "selected"
		}
		t.AppendRow(table.Row{
			string(r.Family),
			r.Params.String(),
			fmt.Sprintf("%.4f", r.CVScore),
			fmt.Sprintf("%.4f", r.Accuracy),
			fmt.Sprintf("%.4f", r.F1),
			fmt.Sprintf("%.3f", r.LatencyMs()),
			mark,
		})
	}
	t.Render()
}
