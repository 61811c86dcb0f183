// Package model хранит обученный классификатор на диске.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/BetterCallFirewall/PhishGuard/internal/features"
	"github.com/BetterCallFirewall/PhishGuard/internal/forest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotFound is returned when the artifact file does not exist.
	ErrNotFound = errors.New("model artifact not found")
	// ErrFeatureMismatch is returned when the artifact was trained on a
	// different feature layout than the running extractor produces.
	ErrFeatureMismatch = errors.New("model feature layout does not match extractor")
)

// Artifact - сериализуемая обученная модель вместе с метаданными обучения
type Artifact struct {
	FeatureNames []string       `json:"feature_names"`
	Classes      []int          `json:"classes"`
	Params       forest.Params  `json:"params"`
	TrainedAt    time.Time      `json:"trained_at"`
	Accuracy     float64        `json:"accuracy"`
	Forest       *forest.Forest `json:"forest"`
}

// New wraps a fitted forest with the current feature layout.
func New(f *forest.Forest, accuracy float64) *Artifact {
	return &Artifact{
		FeatureNames: features.Names(),
		Classes:      f.Classes,
		Params:       f.Params,
		TrainedAt:    time.Now().UTC(),
		Accuracy:     accuracy,
		Forest:       f,
	}
}

// Save writes the artifact to path, creating parent directories.
func (a *Artifact) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create model directory: %w", err)
		}
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	// пишем во временный файл и переименовываем, чтобы не оставить полузаписанную модель
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads and validates an artifact.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run `phishguard train` first)", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read model: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &a, nil
}

// Validate checks the feature layout and the forest structure.
func (a *Artifact) Validate() error {
	want := features.Names()
	if len(a.FeatureNames) != len(want) {
		return fmt.Errorf("%w: model has %d features, extractor has %d", ErrFeatureMismatch, len(a.FeatureNames), len(want))
	}
	for i, name := range want {
		if a.FeatureNames[i] != name {
			return fmt.Errorf("%w: position %d is %q, expected %q", ErrFeatureMismatch, i, a.FeatureNames[i], name)
		}
	}
	if a.Forest == nil {
		return errors.New("artifact has no forest")
	}
	if a.Forest.NFeatures != len(want) {
		return fmt.Errorf("%w: forest expects %d features", ErrFeatureMismatch, a.Forest.NFeatures)
	}
	return a.Forest.Validate()
}
