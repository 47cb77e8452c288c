package sentiment

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Files making up a saved artifact.
const (
	VectorizerFile = "vectorizer.gob"
	ClassifierFile = "classifier.gob"
	MetadataFile   = "model_metadata.json"
)

// Metadata describes a trained artifact. It is written for humans and
// health reporting; prediction never depends on it.
type Metadata struct {
	ModelType          string         `json:"model_type"`
	Accuracy           float64        `json:"accuracy"`
	F1Score            float64        `json:"f1_score"`
	NFeatures          int            `json:"n_features"`
	Classes            map[int]string `json:"classes"`
	RunID              string         `json:"run_id,omitempty"`
	TrainedAt          time.Time      `json:"trained_at"`
	Params             Params         `json:"params"`
	ConfusionMatrix    [][]float64    `json:"confusion_matrix,omitempty"`
	InferenceLatencyMs float64        `json:"inference_latency_ms"`
}

// An Artifact bundles a fitted vectorizer and classifier with their
// metadata. It is never modified after training.
type Artifact struct {
	Vectorizer *Vectorizer
	Classifier Classifier
	Metadata   Metadata
}

// Validate checks that the parts of a exist and agree on the feature
// dimension.
func (a *Artifact) Validate() error {
	switch {
	case a == nil:
		return errors.New("nil artifact")
	case a.Vectorizer == nil:
		return errors.New("artifact has no vectorizer")
	case a.Classifier == nil:
		return errors.New("artifact has no classifier")
	}
	if a.Classifier.NumFeatures() != a.Vectorizer.Len() {
		return fmt.Errorf("classifier expects %d features but the vocabulary has %d",
			a.Classifier.NumFeatures(), a.Vectorizer.Len())
	}
	return nil
}

// classifierEnvelope tags a classifier payload with its family.
type classifierEnvelope struct {
	Family  Family
	Payload []byte
}

type classifierEncoder interface {
	encode() ([]byte, error)
}

// Save writes a to dir, replacing any artifact already there. The files are
// written to a staging directory beside dir which is then renamed over it,
// so a failed Save never leaves files from two different runs in dir.
func Save(dir string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	enc, ok := a.Classifier.(classifierEncoder)
	if !ok {
		return fmt.Errorf("classifier family %q cannot be saved", a.Classifier.Family())
	}

	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(parent, filepath.Base(dir)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	if err := writeArtifact(staging, a, enc); err != nil {
		return err
	}
	if err := os.Chmod(staging, 0o755); err != nil {
		return err
	}
	return replaceDir(staging, dir)
}

func writeArtifact(dir string, a *Artifact, enc classifierEncoder) error {
	var vec bytes.Buffer
	if err := gob.NewEncoder(&vec).Encode(a.Vectorizer); err != nil {
		return fmt.Errorf("encoding vectorizer: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, VectorizerFile), vec.Bytes(), 0o644); err != nil {
		return err
	}

	payload, err := enc.encode()
	if err != nil {
		return fmt.Errorf("encoding classifier: %w", err)
	}
	var clf bytes.Buffer
	if err := gob.NewEncoder(&clf).Encode(classifierEnvelope{Family: a.Classifier.Family(), Payload: payload}); err != nil {
		return fmt.Errorf("encoding classifier: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ClassifierFile), clf.Bytes(), 0o644); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(a.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, MetadataFile), append(meta, '\n'), 0o644)
}

// replaceDir renames src to dst. An existing dst is moved aside first and
// restored if the rename fails.
func replaceDir(src, dst string) error {
	backup := src + ".old"
	if err := os.Rename(dst, backup); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		backup = ""
	}

	if err := os.Rename(src, dst); err != nil {
		if backup != "" {
			_ = os.Rename(backup, dst)
		}
		return err
	}
	if backup != "" {
		return os.RemoveAll(backup)
	}
	return nil
}

// Load reads an artifact saved by Save from dir.
func Load(dir string) (*Artifact, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads an artifact from the root of fsys, which allows models to be
// embedded in a binary.
func LoadFS(fsys fs.FS) (*Artifact, error) {
	vectorizer := &Vectorizer{}
	if err := decodeFile(fsys, VectorizerFile, vectorizer); err != nil {
		return nil, err
	}

	var envelope classifierEnvelope
	if err := decodeFile(fsys, ClassifierFile, &envelope); err != nil {
		return nil, err
	}
	decode, ok := classifierDecoders[envelope.Family]
	if !ok {
		return nil, fmt.Errorf("%s: unknown classifier family %q", ClassifierFile, envelope.Family)
	}
	classifier, err := decode(envelope.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ClassifierFile, err)
	}

	var meta Metadata
	data, err := fs.ReadFile(fsys, MetadataFile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", MetadataFile, err)
	}

	a := &Artifact{Vectorizer: vectorizer, Classifier: classifier, Metadata: meta}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadNamedFS locates the directory called name within fsys and loads the
// artifact stored there.
func LoadNamedFS(name string, fsys fs.FS) (*Artifact, error) {
	var modelFS fs.FS
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Model located. Exit tree traversal
		if d.IsDir() && d.Name() == name {
			modelFS, err = fs.Sub(fsys, path)
			if err != nil {
				return err
			}
			return io.EOF
		}

		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}
	if modelFS == nil {
		return nil, fmt.Errorf("model %q not found", name)
	}
	return LoadFS(modelFS)
}

func decodeFile(fsys fs.FS, name string, v any) error {
	file, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := getDiskAsset(file).Decode(v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func getDiskAsset(file io.Reader) *gob.Decoder {
	return gob.NewDecoder(file)
}
