package audit

import (
	"bytes"
	"strconv"
	"time"

	auditsvc "lifelines-backend/internal/application/audit"
	"lifelines-backend/internal/pkg/apperr"
	"lifelines-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the audit ledger. Routes are gated by ViewAudit.
type Handlers struct {
	Audit *auditsvc.Service
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func parseTime(c *fiber.Ctx, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperr.Validation("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

// filter reads entityType, entityId, actorId, action, since, until, before and limit.
func filter(c *fiber.Ctx) (auditsvc.Filter, error) {
	f := auditsvc.Filter{
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		ActorID:    c.Query("actorId"),
		Action:     c.Query("action"),
		Limit:      c.QueryInt("limit"),
	}
	var err error
	if f.Since, err = parseTime(c, "since"); err != nil {
		return f, err
	}
	if f.Until, err = parseTime(c, "until"); err != nil {
		return f, err
	}
	if v := c.Query("before"); v != "" {
		seq, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, apperr.Validation("before must be a sequence number")
		}
		f.BeforeSeq = seq
	}
	return f, nil
}

// List returns the newest matching records first. metadata.nextBefore is the
// cursor for the next page, absent on the last page.
func (h *Handlers) List(c *fiber.Ctx) error {
	f, err := filter(c)
	if err != nil {
		return response.Failure(c, err)
	}
	out, err := h.Audit.Latest(c.UserContext(), f)
	if err != nil {
		return response.Failure(c, err)
	}
	meta := fiber.Map{"count": len(out), "limit": auditsvc.ClampLimit(f.Limit)}
	if len(out) == auditsvc.ClampLimit(f.Limit) && len(out) > 0 {
		meta["nextBefore"] = out[len(out)-1].Seq
	}
	return response.Success(c, "Audit records", out, meta)
}

// Export writes the matching records as an XLSX workbook.
func (h *Handlers) Export(c *fiber.Ctx) error {
	f, err := filter(c)
	if err != nil {
		return response.Failure(c, err)
	}
	if f.Limit == 0 {
		f.Limit = auditsvc.MaxLimit
	}
	out, err := h.Audit.Latest(c.UserContext(), f)
	if err != nil {
		return response.Failure(c, err)
	}
	var buf bytes.Buffer
	if err := auditsvc.WriteXLSX(&buf, out); err != nil {
		return response.Failure(c, apperr.Internal(err, "failed to build export"))
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="audit-`+time.Now().UTC().Format("20060102")+`.xlsx"`)
	return c.Send(buf.Bytes())
}
