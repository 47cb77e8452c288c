package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/sentiment"
)

func readLabeledFile(path string) ([]sentiment.LabeledExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	examples, err := sentiment.ReadLabeledCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}

func writeLabeledFile(path string, examples []sentiment.LabeledExample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sentiment.WriteLabeledCSV(f, examples); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
