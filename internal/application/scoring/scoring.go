// Package scoring computes a bid's competitiveness relative to its cohort.
package scoring

import "lifelines-backend/internal/domain"

// Fixed weights; they sum to 1.
const (
	WeightCost           = 0.40
	WeightTimeline       = 0.20
	WeightExperience     = 0.20
	WeightSustainability = 0.20
)

// Inputs are the scored attributes of a bid.
type Inputs struct {
	Cost            float64 `json:"cost"`
	TimelineMonths  float64 `json:"timelineMonths"`
	ExperienceCount float64 `json:"experienceCount"`
	RecycledPercent float64 `json:"recycledPercent"`
}

// FromBid extracts scoring inputs from a stored bid.
func FromBid(b domain.Bid) Inputs {
	return Inputs{
		Cost:            b.Cost,
		TimelineMonths:  b.TimelineMonths,
		ExperienceCount: float64(b.ExperienceCount),
		RecycledPercent: b.RecycledPercent,
	}
}

// Baselines are the cohort min/max for each relative attribute.
type Baselines struct {
	MinCost     float64 `json:"minCost"`
	MaxCost     float64 `json:"maxCost"`
	MinTimeline float64 `json:"minTimeline"`
	MaxTimeline float64 `json:"maxTimeline"`
	MinExp      float64 `json:"minExp"`
	MaxExp      float64 `json:"maxExp"`
}

// Breakdown holds each normalized component, all in [0,1].
type Breakdown struct {
	CostScore       float64 `json:"costScore"`
	TimelineScore   float64 `json:"timelineScore"`
	ExperienceScore float64 `json:"expScore"`
	SustainScore    float64 `json:"susScore"`
}

type Result struct {
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// ComputeBaselines returns the cohort min/max. An empty cohort yields zero baselines.
func ComputeBaselines(cohort []Inputs) Baselines {
	if len(cohort) == 0 {
		return Baselines{}
	}
	b := Baselines{
		MinCost: cohort[0].Cost, MaxCost: cohort[0].Cost,
		MinTimeline: cohort[0].TimelineMonths, MaxTimeline: cohort[0].TimelineMonths,
		MinExp: cohort[0].ExperienceCount, MaxExp: cohort[0].ExperienceCount,
	}
	for _, in := range cohort[1:] {
		b.MinCost = min(b.MinCost, in.Cost)
		b.MaxCost = max(b.MaxCost, in.Cost)
		b.MinTimeline = min(b.MinTimeline, in.TimelineMonths)
		b.MaxTimeline = max(b.MaxTimeline, in.TimelineMonths)
		b.MinExp = min(b.MinExp, in.ExperienceCount)
		b.MaxExp = max(b.MaxExp, in.ExperienceCount)
	}
	return b
}

// normalize maps value into [0,1] against [lo,hi]. A degenerate range scores 1.
func normalize(value, lo, hi float64, lowerIsBetter bool) float64 {
	if hi == lo {
		return 1
	}
	t := clamp01((value - lo) / (hi - lo))
	if lowerIsBetter {
		return 1 - t
	}
	return t
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// Score computes the weighted score of in against the cohort baselines.
func Score(in Inputs, b Baselines) Result {
	bd := Breakdown{
		CostScore:       normalize(in.Cost, b.MinCost, b.MaxCost, true),
		TimelineScore:   normalize(in.TimelineMonths, b.MinTimeline, b.MaxTimeline, true),
		ExperienceScore: normalize(in.ExperienceCount, b.MinExp, b.MaxExp, false),
		SustainScore:    clamp01(in.RecycledPercent / 100),
	}
	return Result{
		Score: WeightCost*bd.CostScore +
			WeightTimeline*bd.TimelineScore +
			WeightExperience*bd.ExperienceScore +
			WeightSustainability*bd.SustainScore,
		Breakdown: bd,
	}
}

// Rescore recomputes every bid's score against the baselines of the whole cohort.
// Scores of earlier bids change as the cohort grows.
func Rescore(bids []domain.Bid) []domain.Bid {
	cohort := make([]Inputs, len(bids))
	for i, b := range bids {
		cohort[i] = FromBid(b)
	}
	base := ComputeBaselines(cohort)
	out := make([]domain.Bid, len(bids))
	for i, b := range bids {
		b.Score = Score(cohort[i], base).Score
		out[i] = b
	}
	return out
}

// Preview scores a hypothetical bid as if it joined the cohort, without mutating anything.
func Preview(cohort []domain.Bid, candidate Inputs) Result {
	all := make([]Inputs, 0, len(cohort)+1)
	for _, b := range cohort {
		all = append(all, FromBid(b))
	}
	all = append(all, candidate)
	return Score(candidate, ComputeBaselines(all))
}
