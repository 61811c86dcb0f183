package forest

import (
	"fmt"
	"math"
)

// Class weighting modes.
const (
	ClassWeightNone     = ""
	ClassWeightBalanced = "balanced"
)

// Params определяет гиперпараметры леса
type Params struct {
	NTrees          int    `json:"n_trees"`
	MaxFeatures     int    `json:"max_features"` // 0 = sqrt(n_features)
	MaxDepth        int    `json:"max_depth"`    // 0 = без ограничения
	MinSamplesSplit int    `json:"min_samples_split"`
	MinSamplesLeaf  int    `json:"min_samples_leaf"`
	Bootstrap       bool   `json:"bootstrap"`
	ClassWeight     string `json:"class_weight"`
	Seed            int64  `json:"seed"`

	// Workers limits concurrent tree fitting, 0 means GOMAXPROCS.
	Workers int `json:"-"`
}

// DefaultParams возвращает параметры по умолчанию: 200 деревьев,
// сбалансированные веса классов, фиксированный seed
func DefaultParams() Params {
	return Params{
		NTrees:          200,
		MaxFeatures:     0,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		ClassWeight:     ClassWeightBalanced,
		Seed:            42,
	}
}

// Validate проверяет валидность параметров
func (p Params) Validate() error {
	if p.NTrees <= 0 {
		return fmt.Errorf("NTrees must be positive")
	}
	if p.MaxFeatures < 0 {
		return fmt.Errorf("MaxFeatures must not be negative")
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("MaxDepth must not be negative")
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("MinSamplesSplit must be at least 2")
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("MinSamplesLeaf must be positive")
	}
	if p.Workers < 0 {
		return fmt.Errorf("Workers must not be negative")
	}
	switch p.ClassWeight {
	case ClassWeightNone, ClassWeightBalanced:
	default:
		return fmt.Errorf("unknown ClassWeight %q", p.ClassWeight)
	}
	return nil
}

// featuresPerSplit returns how many candidate features a split examines.
func (p Params) featuresPerSplit(nFeatures int) int {
	if p.MaxFeatures > 0 {
		if p.MaxFeatures > nFeatures {
			return nFeatures
		}
		return p.MaxFeatures
	}
	k := int(math.Sqrt(float64(nFeatures)))
	if k < 1 {
		k = 1
	}
	return k
}
