package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/BetterCallFirewall/PhishGuard/internal/dataset"
	"github.com/BetterCallFirewall/PhishGuard/internal/features"
	"github.com/BetterCallFirewall/PhishGuard/internal/forest"
	"github.com/BetterCallFirewall/PhishGuard/internal/metrics"
	"github.com/BetterCallFirewall/PhishGuard/internal/model"
)

const (
	// DefaultTestSize is the held-out share of the dataset.
	DefaultTestSize = 0.2
	// DefaultSplitSeed makes the train/test split reproducible.
	DefaultSplitSeed int64 = 42

	// topFeatures - сколько самых важных признаков печатать после обучения
	topFeatures = 5
)

// ErrUnsupportedModel is returned when the learner produces a model that
// cannot be persisted.
var ErrUnsupportedModel = errors.New("learner returned a model that cannot be saved")

// SanityURLs are classified after every training run as a smoke test.
var SanityURLs = []string{
	"https://openai.com/",
	"http://paypal.com-security-login.com",
	"http://198.51.100.42/login",
	"https://google.com",
}

// ReportNames maps class labels to report row names.
var ReportNames = map[int]string{
	int(Safe):     Safe.String(),
	int(Phishing): Phishing.String(),
}

// TrainerConfig описывает входы и выходы обучения
type TrainerConfig struct {
	DatasetPath string
	ModelPath   string
	TestSize    float64
	SplitSeed   int64
	// Learner обучает модель; сохранить можно только *forest.Forest
	Learner forest.Learner
	// Out receives the human-readable report, os.Stdout when nil.
	Out io.Writer
}

// DefaultTrainerConfig returns the standard 80/20 split and forest params.
func DefaultTrainerConfig(datasetPath, modelPath string) TrainerConfig {
	return TrainerConfig{
		DatasetPath: datasetPath,
		ModelPath:   modelPath,
		TestSize:    DefaultTestSize,
		SplitSeed:   DefaultSplitSeed,
		Learner:     forest.NewLearner(forest.DefaultParams()),
	}
}

// SanityResult is one line of the post-training smoke test.
type SanityResult struct {
	URL   string
	Label Label
}

// FeatureImportance is the share of impurity decrease attributed to a feature.
type FeatureImportance struct {
	Name       string
	Importance float64
}

// TrainingResult summarizes a finished training run.
type TrainingResult struct {
	ModelPath string
	Report    *metrics.Report
	Dropped   int
	TrainSize int
	TestSize  int
	// Importances are sorted by descending importance, at most topFeatures long
	Importances []FeatureImportance
	MaxDepth    int
	Sanity      []SanityResult
	Duration    time.Duration
}

// Trainer runs the offline training pipeline.
type Trainer struct {
	cfg TrainerConfig
	out io.Writer
}

// NewTrainer creates a trainer. It does not touch the filesystem.
func NewTrainer(cfg TrainerConfig) *Trainer {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Trainer{cfg: cfg, out: out}
}

// Run loads the dataset, fits a model through the configured Learner, evaluates it on the held-out part,
// saves the artifact and prints a sanity check.
func (t *Trainer) Run(ctx context.Context) (*TrainingResult, error) {
	start := time.Now()

	ds, err := dataset.Load(t.cfg.DatasetPath)
	if err != nil {
		return nil, err
	}
	if ds.Dropped > 0 {
		log.Warnf("Dropped %d rows with missing url or label", ds.Dropped)
	}
	log.WithFields(log.Fields{
		"path":    t.cfg.DatasetPath,
		"samples": len(ds.Samples),
		"classes": ds.ClassCounts(),
	}).Info("📄 Dataset loaded")

	split, err := dataset.StratifiedSplit(ds.Samples, t.cfg.TestSize, t.cfg.SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	XTrain, yTrain := matrix(split.Train)
	XTest, yTest := matrix(split.Test)

	log.Infof("🌲 Fitting model on %d samples", len(yTrain))
	predictor, err := t.cfg.Learner.Fit(ctx, XTrain, yTrain)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}
	f, ok := predictor.(*forest.Forest)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedModel, predictor)
	}

	report, err := metrics.NewReport(yTest, f.Predict(XTest))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	fmt.Fprintln(t.out, "\n=== Evaluation ===")
	fmt.Fprintf(t.out, "Accuracy: %.*f\n", metrics.Digits, report.Accuracy)
	fmt.Fprintln(t.out, "\nClassification report:")
	report.Render(t.out, ReportNames)

	importances := topImportances(f, topFeatures)
	fmt.Fprintln(t.out, "\nTop features:")
	for _, fi := range importances {
		fmt.Fprintf(t.out, "  %-22s %.*f\n", fi.Name, metrics.Digits, fi.Importance)
	}
	log.WithField("max_depth", f.MaxDepth()).Debug("Forest grown")

	if err := model.New(f, report.Accuracy).Save(t.cfg.ModelPath); err != nil {
		return nil, err
	}
	fmt.Fprintf(t.out, "\nModel saved to: %s\n", t.cfg.ModelPath)

	sanity := t.sanityCheck(NewService(f))

	return &TrainingResult{
		ModelPath:   t.cfg.ModelPath,
		Report:      report,
		Dropped:     ds.Dropped,
		TrainSize:   len(split.Train),
		TestSize:    len(split.Test),
		Importances: importances,
		MaxDepth:    f.MaxDepth(),
		Sanity:      sanity,
		Duration:    time.Since(start),
	}, nil
}

func (t *Trainer) sanityCheck(s *Service) []SanityResult {
	labels := s.Predict(features.ExtractBatch(SanityURLs))

	fmt.Fprintln(t.out, "\n=== Quick sanity check ===")
	out := make([]SanityResult, len(SanityURLs))
	for i, u := range SanityURLs {
		out[i] = SanityResult{URL: u, Label: labels[i]}
		tag := "SAFE "
		if labels[i] == Phishing {
			tag = "PHISH"
		}
		fmt.Fprintf(t.out, "%s  -  %s\n", tag, u)
	}
	return out
}

// topImportances returns the n most important features, ties in column order.
func topImportances(f *forest.Forest, n int) []FeatureImportance {
	names := features.Names()
	out := make([]FeatureImportance, 0, len(f.Importances))
	for i, imp := range f.Importances {
		name := fmt.Sprintf("feature_%d", i)
		if i < len(names) {
			name = names[i]
		}
		out = append(out, FeatureImportance{Name: name, Importance: imp})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func matrix(samples []dataset.Sample) ([][]float64, []int) {
	urls := make([]string, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		urls[i] = s.URL
		y[i] = s.Label
	}
	return features.Matrix(features.ExtractBatch(urls)), y
}
