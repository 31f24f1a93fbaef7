package sync

import (
	"context"
	"net/http"

	"lifelines-backend/internal/application/access"
	"lifelines-backend/internal/application/assessment"
	"lifelines-backend/internal/application/lifecycle"
)

// Applier runs a mutation against the local store. It returns the value to
// hand back to the caller and the id of any entity it created.
type Applier func(ctx context.Context, l *Local, actor access.Actor) (out interface{}, created string, err error)

// Local is the client's own copy of the lifecycle core over the local snapshot.
type Local struct {
	Core     *lifecycle.Service
	Assessor *assessment.Assessor
}

// Mutation is one lifecycle write, described both as its HTTP request and as
// the equivalent local operation.
type Mutation struct {
	Method string
	Path   string
	Body   interface{}
	Apply  Applier
}

func projectPath(id string, tail string) string {
	return "/projects/" + id + tail
}

func CreateProject(in lifecycle.CreateProjectInput) Mutation {
	return Mutation{Method: http.MethodPost, Path: "/projects", Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			p, err := l.Core.CreateProject(ctx, a, in)
			if err != nil {
				return nil, "", err
			}
			return p, p.ID, nil
		}}
}

func UpdateProject(id string, in lifecycle.UpdateProjectInput) Mutation {
	return Mutation{Method: http.MethodPut, Path: projectPath(id, ""), Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			p, err := l.Core.UpdateProject(ctx, a, id, in)
			return p, "", err
		}}
}

func DeleteProject(id string) Mutation {
	return Mutation{Method: http.MethodDelete, Path: projectPath(id, ""),
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			return map[string]string{"id": id}, "", l.Core.DeleteProject(ctx, a, id)
		}}
}

func Publish(id string) Mutation {
	return Mutation{Method: http.MethodPost, Path: projectPath(id, "/publish"),
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			p, err := l.Core.Publish(ctx, a, id)
			return p, "", err
		}}
}

func Complete(id string) Mutation {
	return Mutation{Method: http.MethodPost, Path: projectPath(id, "/complete"),
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			p, err := l.Core.Complete(ctx, a, id)
			return p, "", err
		}}
}

func SaveDamageReport(projectID string, in lifecycle.DamageReportInput) Mutation {
	return Mutation{Method: http.MethodPost, Path: projectPath(projectID, "/damage-report"), Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			r, err := l.Assessor.SaveDamageReport(ctx, a, projectID, in)
			if err != nil {
				return nil, "", err
			}
			return r, r.ID, nil
		}}
}

func SavePlan(projectID string, in lifecycle.PlanInput) Mutation {
	return Mutation{Method: http.MethodPost, Path: projectPath(projectID, "/plan"), Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			p, err := l.Assessor.SavePlan(ctx, a, projectID, in)
			if err != nil {
				return nil, "", err
			}
			return p, p.ID, nil
		}}
}

func AddCommunityInput(projectID string, in lifecycle.CommunityInputInput) Mutation {
	return Mutation{Method: http.MethodPost, Path: projectPath(projectID, "/community-input"), Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			p, err := l.Core.AddCommunityInput(ctx, a, projectID, in)
			return p, "", err
		}}
}

func SubmitBid(projectID string, in lifecycle.BidInput) Mutation {
	return Mutation{Method: http.MethodPost, Path: projectPath(projectID, "/bids"), Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			b, err := l.Core.SubmitBid(ctx, a, projectID, in)
			if err != nil {
				return nil, "", err
			}
			return b, b.ID, nil
		}}
}

func Award(projectID, bidID string) Mutation {
	in := lifecycle.AwardInput{BidID: bidID}
	return Mutation{Method: http.MethodPost, Path: projectPath(projectID, "/award"), Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			res, err := l.Core.Award(ctx, a, projectID, in)
			return res, "", err
		}}
}

func IssueLicense(projectID string, in lifecycle.LicenseInput) Mutation {
	return Mutation{Method: http.MethodPost, Path: projectPath(projectID, "/license"), Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			lic, err := l.Core.IssueLicense(ctx, a, projectID, in)
			if err != nil {
				return nil, "", err
			}
			return lic, lic.ID, nil
		}}
}

func Reserve(resourceID, projectID string) Mutation {
	in := lifecycle.ReserveInput{ProjectID: projectID}
	return Mutation{Method: http.MethodPost, Path: "/resources/" + resourceID + "/reserve", Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			r, err := l.Core.Reserve(ctx, a, resourceID, in)
			return r, "", err
		}}
}

func Release(resourceID string) Mutation {
	return Mutation{Method: http.MethodPost, Path: "/resources/" + resourceID + "/release",
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			r, err := l.Core.Release(ctx, a, resourceID)
			return r, "", err
		}}
}

func UpdateRegion(actorID string, in lifecycle.RegionInput) Mutation {
	return Mutation{Method: http.MethodPut, Path: "/users/" + actorID + "/region", Body: in,
		Apply: func(ctx context.Context, l *Local, a access.Actor) (interface{}, string, error) {
			u, err := l.Core.UpdateRegion(ctx, a, actorID, in)
			return u, "", err
		}}
}
