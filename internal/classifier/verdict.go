package classifier

import (
	"time"

	"github.com/BetterCallFirewall/PhishGuard/internal/features"
)

// Label - результат классификации URL
type Label int

const (
	Safe     Label = 0
	Phishing Label = 1
)

func (l Label) String() string {
	if l == Phishing {
		return "phishing"
	}
	return "safe"
}

// MarshalText keeps labels readable in JSON payloads.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Verdict is the outcome of classifying one URL.
type Verdict struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	Label     Label           `json:"label"`
	Features  features.Vector `json:"features"`
	CheckedAt time.Time       `json:"checked_at"`
}

// IsPhishing reports whether the verdict flags the URL.
func (v Verdict) IsPhishing() bool {
	return v.Label == Phishing
}
