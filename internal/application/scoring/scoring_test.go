package scoring

import (
	"testing"

	"lifelines-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_IdenticalCohortScoresEqual(t *testing.T) {
	bids := []domain.Bid{
		{ID: "a", Cost: 100000, TimelineMonths: 6, ExperienceCount: 4, RecycledPercent: 25},
		{ID: "b", Cost: 100000, TimelineMonths: 6, ExperienceCount: 4, RecycledPercent: 25},
		{ID: "c", Cost: 100000, TimelineMonths: 6, ExperienceCount: 4, RecycledPercent: 25},
	}
	out := Rescore(bids)
	require.Len(t, out, 3)
	for _, b := range out {
		assert.InDelta(t, out[0].Score, b.Score, 1e-12)
	}
	// Degenerate ranges contribute 1: 0.4 + 0.2 + 0.2 + 0.2*0.25
	assert.InDelta(t, 0.85, out[0].Score, 1e-9)
}

func TestScore_LibraryRebuildRanksCheaperBidFirst(t *testing.T) {
	bids := Rescore([]domain.Bid{
		{ID: "A", Cost: 150000, TimelineMonths: 6, ExperienceCount: 8, RecycledPercent: 30},
		{ID: "B", Cost: 170000, TimelineMonths: 5, ExperienceCount: 3, RecycledPercent: 10},
	})
	// A: 0.4*1 + 0.2*0 + 0.2*1 + 0.2*0.3 = 0.66
	// B: 0.4*0 + 0.2*1 + 0.2*0 + 0.2*0.1 = 0.22
	assert.InDelta(t, 0.66, bids[0].Score, 1e-9)
	assert.InDelta(t, 0.22, bids[1].Score, 1e-9)
	assert.Greater(t, bids[0].Score, bids[1].Score)
}

func TestRescore_IsRetroactive(t *testing.T) {
	first := Rescore([]domain.Bid{{ID: "a", Cost: 100, TimelineMonths: 4, ExperienceCount: 2, RecycledPercent: 0}})
	assert.InDelta(t, 0.8, first[0].Score, 1e-9)

	second := Rescore([]domain.Bid{first[0], {ID: "b", Cost: 50, TimelineMonths: 4, ExperienceCount: 2}})
	// a is now the most expensive bid and loses the whole cost component.
	assert.InDelta(t, 0.4, second[0].Score, 1e-9)
	assert.InDelta(t, 0.8, second[1].Score, 1e-9)
}

func TestScore_SustainabilityClamped(t *testing.T) {
	b := Baselines{MinCost: 1, MaxCost: 1, MinTimeline: 1, MaxTimeline: 1}
	assert.InDelta(t, 1.0, Score(Inputs{RecycledPercent: 250}, b).Breakdown.SustainScore, 1e-12)
	assert.InDelta(t, 0.0, Score(Inputs{RecycledPercent: -5}, b).Breakdown.SustainScore, 1e-12)
}

func TestScore_StaysInUnitInterval(t *testing.T) {
	b := Baselines{MinCost: 10, MaxCost: 20, MinTimeline: 2, MaxTimeline: 4, MinExp: 0, MaxExp: 10}
	for _, in := range []Inputs{
		{Cost: 5, TimelineMonths: 1, ExperienceCount: 20, RecycledPercent: 100},
		{Cost: 50, TimelineMonths: 9, ExperienceCount: -1, RecycledPercent: 0},
	} {
		r := Score(in, b)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestComputeBaselines_Empty(t *testing.T) {
	assert.Equal(t, Baselines{}, ComputeBaselines(nil))
}

func TestPreview_IncludesCandidateInCohort(t *testing.T) {
	cohort := []domain.Bid{{Cost: 200, TimelineMonths: 6, ExperienceCount: 1}}
	r := Preview(cohort, Inputs{Cost: 100, TimelineMonths: 6, ExperienceCount: 5, RecycledPercent: 50})
	assert.InDelta(t, 1.0, r.Breakdown.CostScore, 1e-12)
	assert.InDelta(t, 1.0, r.Breakdown.ExperienceScore, 1e-12)
	assert.InDelta(t, 0.4+0.2+0.2+0.1, r.Score, 1e-9)
}
