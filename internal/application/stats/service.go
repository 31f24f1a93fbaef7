// Package stats summarizes the store for the dashboard views.
package stats

import (
	"context"
	"math"
	"sort"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/store"
	"lifelines-backend/internal/domain"
	"lifelines-backend/internal/pkg/apperr"
	roles "lifelines-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type ContractorStat struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Awarded  int     `json:"awarded"`
	Total    int     `json:"total"`
	WinRate  float64 `json:"winRate"`
	AvgScore float64 `json:"avgScore"`
}

type MaterialStat struct {
	Type      string  `json:"type"`
	Unit      string  `json:"unit"`
	Available float64 `json:"available"`
	Reserved  float64 `json:"reserved"`
	Total     float64 `json:"total"`
	Count     int     `json:"count"`
}

type DamageStat struct {
	Reports        int            `json:"reportsCount"`
	SeverityCounts map[string]int `json:"severityCounts"`
	DebrisMinM3    float64        `json:"debrisMinM3"`
	DebrisMaxM3    float64        `json:"debrisMaxM3"`
	DebrisTotalM3  float64        `json:"debrisTotalM3"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// readableIDs lists the projects actor may read.
func (s *Service) readableIDs(db *gorm.DB, actor access.Actor) ([]string, error) {
	projects, err := store.Projects(db)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(projects))
	for i := range projects {
		if access.CanRead(actor, &projects[i]) {
			ids = append(ids, projects[i].ID)
		}
	}
	return ids, nil
}

// Contractors reports bid counts, wins and mean score per contractor over the
// projects actor can read. Sorted by wins, then mean score, both descending.
func (s *Service) Contractors(ctx context.Context, actor access.Actor) ([]ContractorStat, error) {
	db := s.DB.WithContext(ctx)
	ids, err := s.readableIDs(db, actor)
	if err != nil {
		return nil, err
	}
	var contractors []domain.Actor
	if err := db.Where("role = ?", roles.Contractor).Order("id").Find(&contractors).Error; err != nil {
		return nil, apperr.Internal(err, "failed to load contractors")
	}
	var bids []domain.Bid
	if len(ids) > 0 {
		if err := db.Where("project_id IN ?", ids).Find(&bids).Error; err != nil {
			return nil, apperr.Internal(err, "failed to load bids")
		}
	}

	byID := make(map[string]*ContractorStat, len(contractors))
	out := make([]ContractorStat, len(contractors))
	for i, c := range contractors {
		out[i] = ContractorStat{ID: c.ID, Name: c.Name}
		byID[c.ID] = &out[i]
	}
	sums := map[string]float64{}
	for _, b := range bids {
		st, ok := byID[b.ContractorID]
		if !ok {
			continue
		}
		st.Total++
		if b.Status == roles.BidAwarded {
			st.Awarded++
		}
		sums[b.ContractorID] += b.Score
	}
	for i := range out {
		if out[i].Total > 0 {
			out[i].WinRate = round2(float64(out[i].Awarded) / float64(out[i].Total) * 100)
			out[i].AvgScore = round2(sums[out[i].ID] / float64(out[i].Total))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Awarded != out[j].Awarded {
			return out[i].Awarded > out[j].Awarded
		}
		return out[i].AvgScore > out[j].AvgScore
	})
	return out, nil
}

// Materials groups the inventory by type and unit.
func (s *Service) Materials(ctx context.Context) ([]MaterialStat, error) {
	resources, err := store.Resources(s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	groups := map[[2]string]*MaterialStat{}
	for _, r := range resources {
		key := [2]string{r.Type, r.Unit}
		g, ok := groups[key]
		if !ok {
			g = &MaterialStat{Type: r.Type, Unit: r.Unit}
			groups[key] = g
		}
		g.Count++
		g.Total += r.Qty
		if r.ReservedForProjectID == nil {
			g.Available += r.Qty
		} else {
			g.Reserved += r.Qty
		}
	}
	out := make([]MaterialStat, 0, len(groups))
	for _, g := range groups {
		g.Available, g.Reserved, g.Total = round2(g.Available), round2(g.Reserved), round2(g.Total)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Unit < out[j].Unit
	})
	return out, nil
}

// Damage summarizes the latest report of every project actor can read.
func (s *Service) Damage(ctx context.Context, actor access.Actor) (*DamageStat, error) {
	db := s.DB.WithContext(ctx)
	ids, err := s.readableIDs(db, actor)
	if err != nil {
		return nil, err
	}
	out := &DamageStat{SeverityCounts: map[string]int{}}
	for _, sev := range roles.Severities {
		out.SeverityCounts[sev] = 0
	}
	for _, id := range ids {
		r, err := store.LatestReport(db, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		if out.Reports == 0 || r.DebrisVolume.MinM3 < out.DebrisMinM3 {
			out.DebrisMinM3 = r.DebrisVolume.MinM3
		}
		if r.DebrisVolume.MaxM3 > out.DebrisMaxM3 {
			out.DebrisMaxM3 = r.DebrisVolume.MaxM3
		}
		out.Reports++
		out.SeverityCounts[r.Severity]++
		out.DebrisTotalM3 += r.DebrisVolume.EstimateM3
	}
	out.DebrisTotalM3 = round2(out.DebrisTotalM3)
	return out, nil
}
