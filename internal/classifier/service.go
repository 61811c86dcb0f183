// Package classifier связывает извлечение признаков с обученным лесом:
// обучение модели и классификация URL.
package classifier

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/BetterCallFirewall/PhishGuard/internal/features"
	"github.com/BetterCallFirewall/PhishGuard/internal/forest"
	"github.com/BetterCallFirewall/PhishGuard/internal/model"
)

// Service classifies URLs with a loaded model. It holds no mutable state
// and is safe for concurrent use.
type Service struct {
	predictor forest.Predictor
	artifact  *model.Artifact
}

// NewService wraps any predictor that takes rows in canonical feature order.
func NewService(p forest.Predictor) *Service {
	return &Service{predictor: p}
}

// Load reads the model artifact once. A missing file wraps model.ErrNotFound.
func Load(path string) (*Service, error) {
	a, err := model.Load(path)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"path":       path,
		"trees":      len(a.Forest.Trees),
		"accuracy":   fmt.Sprintf("%.4f", a.Accuracy),
		"trained_at": a.TrainedAt.Format(time.RFC3339),
	}).Info("🌲 Model loaded")

	return &Service{predictor: a.Forest, artifact: a}, nil
}

// Artifact returns the loaded artifact, nil for services built with NewService.
func (s *Service) Artifact() *model.Artifact {
	return s.artifact
}

// Predict labels a batch of feature vectors.
func (s *Service) Predict(vectors []features.Vector) []Label {
	raw := s.predictor.Predict(features.Matrix(vectors))
	out := make([]Label, len(raw))
	for i, v := range raw {
		out[i] = Label(v)
	}
	return out
}

// Classify extracts features from rawURL and predicts its label.
func (s *Service) Classify(rawURL string) Verdict {
	v := features.Extract(rawURL)
	return Verdict{
		ID:        uuid.NewString(),
		URL:       rawURL,
		Label:     s.Predict([]features.Vector{v})[0],
		Features:  v,
		CheckedAt: time.Now().UTC(),
	}
}
