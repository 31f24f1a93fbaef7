// Package assessment produces stand-in damage reports and default reconstruction plans.
// Outputs come from a seeded source, so a given seed always yields the same sequence.
package assessment

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
)

const ProducerVersion = "tfjs-stub-1.0"

// Producer turns uploaded imagery into a damage report draft.
type Producer interface {
	Assess(ctx context.Context, images []string) (lifecycle.DamageReportInput, error)
}

var severityIssues = map[string][]string{
	"Low":      {"Minor cracking", "Surface damage"},
	"Medium":   {"Wall cracking", "Water intrusion", "Electrical safety risk"},
	"High":     {"Partial structural failure", "Roof instability", "Foundation concerns"},
	"Critical": {"Major collapse risk", "Unsafe occupancy", "Immediate stabilization required"},
}

var extraIssues = []string{"Masonry failure", "Stairwell damage", "HVAC failure", "Plumbing rupture", "Hazardous debris"}

var extraIssueCount = map[string]int{"Medium": 1, "High": 2, "Critical": 3}

var debrisBase = map[string]float64{"Low": 8, "Medium": 35, "High": 85, "Critical": 140}

var debrisMargin = map[string]float64{"Low": 25, "Medium": 18, "High": 14, "Critical": 12}

type recoverableCandidate struct {
	Type    string
	Unit    string
	Base    float64
	Quality float64
}

var recoverableCandidates = []recoverableCandidate{
	{"Bricks", "units", 5000, 0.72},
	{"Concrete", "m³", 22, 0.64},
	{"Steel", "tons", 3.2, 0.66},
	{"Timber", "m³", 18, 0.58},
}

var recoverableMultiplier = map[string]float64{"Low": 0.35, "Medium": 0.7, "High": 1.0, "Critical": 1.25}

var recoverableMargin = map[string]float64{"Low": 22, "Medium": 15, "High": 13, "Critical": 12}

var severities = []string{"Low", "Medium", "High", "Critical"}

// Stub is the stand-in producer. Severity leans on the image count: more evidence,
// more weight on the upper classes.
type Stub struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewStub(seed int64) *Stub {
	return &Stub{rnd: rand.New(rand.NewSource(seed))}
}

func (s *Stub) float() float64 { return s.rnd.Float64() }

func (s *Stub) Assess(ctx context.Context, images []string) (lifecycle.DamageReportInput, error) {
	if err := ctx.Err(); err != nil {
		return lifecycle.DamageReportInput{}, apperr.Transient(err, "Assessment cancelled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	severity := s.pickSeverity(len(images))
	base := s.float()*0.25 + 0.62
	return lifecycle.DamageReportInput{
		Images:       append([]string{}, images...),
		Severity:     severity,
		Issues:       s.issues(severity),
		DebrisVolume: s.debris(severity),
		Recoverables: s.recoverables(severity),
		ConfidenceScores: map[string]float64{
			"severity":     round2(clamp(base+(s.float()-0.5)*0.12, 0.45, 0.95)),
			"issues":       round2(clamp(base+(s.float()-0.5)*0.14, 0.45, 0.92)),
			"debris":       round2(clamp(base-0.06+(s.float()-0.5)*0.12, 0.35, 0.90)),
			"recoverables": round2(clamp(base-0.03+(s.float()-0.5)*0.12, 0.40, 0.92)),
		},
		ProducerVersion: ProducerVersion,
	}, nil
}

func (s *Stub) pickSeverity(imageCount int) string {
	weights := []float64{4, 3, 2, 1}
	bias := math.Min(float64(imageCount), 6) / 6
	weights[2] += 2 * bias
	weights[3] += 2 * bias
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := s.float() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if roll < acc {
			return severities[i]
		}
	}
	return "Medium"
}

func (s *Stub) issues(severity string) []string {
	out := append([]string{}, severityIssues[severity]...)
	seen := map[string]bool{}
	for _, i := range out {
		seen[i] = true
	}
	for n := 0; n < extraIssueCount[severity]; n++ {
		extra := extraIssues[s.rnd.Intn(len(extraIssues))]
		if !seen[extra] {
			seen[extra] = true
			out = append(out, extra)
		}
	}
	return out
}

func (s *Stub) debris(severity string) domain.DebrisVolume {
	jitter := (s.float() - 0.5) * 0.25
	estimate := math.Round(debrisBase[severity] * (1 + jitter))
	margin := debrisMargin[severity]
	return domain.DebrisVolume{
		EstimateM3: estimate,
		MarginPct:  margin,
		MinM3:      math.Round(estimate * (1 - margin/100)),
		MaxM3:      math.Round(estimate * (1 + margin/100)),
	}
}

func (s *Stub) recoverables(severity string) []domain.Recoverable {
	count := 4
	switch severity {
	case "Low":
		count = 2
	case "Medium":
		count = 3
	}
	margin := recoverableMargin[severity]
	out := make([]domain.Recoverable, 0, count)
	for _, c := range recoverableCandidates[:count] {
		estimate := c.Base * recoverableMultiplier[severity] * (1 + 0.18*(s.float()-0.5))
		qty := roundQty(estimate, c.Unit)
		out = append(out, domain.Recoverable{
			Type:         c.Type,
			Unit:         c.Unit,
			Qty:          qty,
			MarginPct:    margin,
			MinQty:       roundQty(estimate*(1-margin/100), c.Unit),
			MaxQty:       roundQty(estimate*(1+margin/100), c.Unit),
			QualityScore: round2(clamp(c.Quality+(s.float()-0.5)*0.16, 0.35, 0.92)),
		})
	}
	return out
}

// roundQty rounds counted units to integers and everything else to one decimal.
func roundQty(v float64, unit string) float64 {
	if unit == "units" {
		return math.Round(v)
	}
	return math.Round(v*10) / 10
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
