package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lifelines-backend/internal/pkg/apperr"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DrainReport summarizes one drain.
type DrainReport struct {
	Committed int   `json:"committed"`
	Rejected  int   `json:"rejected"`
	Remaining int64 `json:"remaining"`
	// Skipped is set when another drain was already running.
	Skipped bool `json:"skipped,omitempty"`
	// Refreshed is set when the local snapshot was replaced afterwards.
	Refreshed bool `json:"refreshed,omitempty"`
}

// Drain replays the queue in FIFO order. A transient failure stops it and keeps
// the item for the next attempt; a final rejection moves the item to the
// dead-letter list and draining continues. A full drain replaces the local
// snapshot with server truth.
func (e *Engine) Drain(ctx context.Context) (*DrainReport, error) {
	if !e.draining.TryLock() {
		return &DrainReport{Skipped: true}, nil
	}
	defer e.draining.Unlock()

	report, err := e.drain(ctx)
	if n, cerr := e.pendingCount(ctx); cerr == nil {
		report.Remaining = n
		e.metrics.SetQueueDepth(int(n))
	}
	if err != nil {
		if apperr.IsTransient(err) {
			e.markOffline(err)
		} else {
			e.noteError(err)
		}
		return report, err
	}
	log.Info().Int("committed", report.Committed).Int("rejected", report.Rejected).Msg("sync drain complete")
	return report, nil
}

func (e *Engine) drain(ctx context.Context) (*DrainReport, error) {
	report := &DrainReport{}
	if e.Session() == nil {
		return report, ErrNoSession
	}
	if err := e.upgradeSession(ctx); err != nil {
		return report, err
	}
	db := e.db.WithContext(ctx)
	for {
		var m PendingMutation
		err := db.Where("state = ?", StateQueued).Order("seq").First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return report, apperr.Internal(err, "failed to read sync queue")
		}

		path, payload, err := e.rewrite(ctx, m.Path, m.Payload)
		if err != nil {
			return report, err
		}
		m.Attempts++
		if err := db.Model(&m).Updates(map[string]interface{}{"state": StateInFlight, "attempts": m.Attempts}).Error; err != nil {
			return report, apperr.Internal(err, "failed to update sync queue")
		}

		data, rerr := e.remote.Do(ctx, m.Method, path, payload, m.ID)
		switch {
		case rerr == nil:
			if err := e.commit(ctx, &m, data); err != nil {
				return report, err
			}
			report.Committed++
			e.metrics.Drained("committed")

		case apperr.IsTransient(rerr) || apperr.HTTPStatus(rerr) == http.StatusUnauthorized || errors.Is(rerr, context.Canceled):
			// Retrying can succeed later; keep the item at the head of the queue.
			db.Model(&m).Updates(map[string]interface{}{"state": StateQueued, "last_error": apperr.Message(rerr)})
			e.metrics.Drained("retry")
			return report, rerr

		default:
			dependents, err := e.reject(ctx, &m, rerr)
			if err != nil {
				return report, err
			}
			report.Rejected += 1 + dependents
			e.metrics.Drained("rejected")
			log.Warn().Str("mutation_id", m.ID).Str("path", path).Str("kind", string(apperr.KindOf(rerr))).
				Str("error", apperr.Message(rerr)).Int("dependents", dependents).Msg("mutation rejected by server")
		}
	}

	if err := e.refresh(ctx); err != nil {
		return report, err
	}
	report.Refreshed = true
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&IDMapping{}).Error; err != nil {
		return report, apperr.Internal(err, "failed to clear id map")
	}
	return report, nil
}

// commit records the server id behind a local_ id and removes the item.
func (e *Engine) commit(ctx context.Context, m *PendingMutation, data json.RawMessage) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if strings.HasPrefix(m.LocalRef, LocalIDPrefix) {
			var created struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(data, &created) == nil && created.ID != "" {
				if err := tx.Save(&IDMapping{LocalID: m.LocalRef, ServerID: created.ID}).Error; err != nil {
					return apperr.Internal(err, "failed to record id mapping")
				}
			}
		}
		if err := tx.Delete(&PendingMutation{}, "seq = ?", m.Seq).Error; err != nil {
			return apperr.Internal(err, "failed to update sync queue")
		}
		return nil
	})
}

// reject moves m to the dead-letter list. When m created a local_ entity, every
// queued mutation that refers to it (directly or through another entity created
// on top of it) can never succeed and is dead-lettered with it, unsent. It
// returns how many dependents were moved.
func (e *Engine) reject(ctx context.Context, m *PendingMutation, cause error) (int, error) {
	moved := 0
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.deadLetter(tx, m, string(apperr.KindOf(cause)), apperr.Message(cause)); err != nil {
			return err
		}
		if !strings.HasPrefix(m.LocalRef, LocalIDPrefix) {
			return nil
		}
		var queued []PendingMutation
		if err := tx.Where("state = ? AND seq > ?", StateQueued, m.Seq).Order("seq").Find(&queued).Error; err != nil {
			return apperr.Internal(err, "failed to read sync queue")
		}
		orphaned := []string{m.LocalRef}
		reason := "Depends on rejected mutation " + m.ID
		for i := range queued {
			d := &queued[i]
			if !refersTo(d, orphaned) {
				continue
			}
			if err := e.deadLetter(tx, d, KindDependencyRejected, reason); err != nil {
				return err
			}
			moved++
			if strings.HasPrefix(d.LocalRef, LocalIDPrefix) {
				orphaned = append(orphaned, d.LocalRef)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

func refersTo(m *PendingMutation, ids []string) bool {
	for _, id := range ids {
		if strings.Contains(m.Path, id) || strings.Contains(string(m.Payload), id) {
			return true
		}
	}
	return false
}

func (e *Engine) deadLetter(tx *gorm.DB, m *PendingMutation, kind, message string) error {
	dead := RejectedMutation{
		ID:         m.ID,
		Method:     m.Method,
		Path:       m.Path,
		Payload:    m.Payload,
		Kind:       kind,
		Error:      message,
		Attempts:   m.Attempts,
		RejectedAt: e.now().UTC(),
	}
	if err := tx.Create(&dead).Error; err != nil {
		return apperr.Internal(err, "failed to record rejected mutation")
	}
	if err := tx.Delete(&PendingMutation{}, "seq = ?", m.Seq).Error; err != nil {
		return apperr.Internal(err, "failed to update sync queue")
	}
	return nil
}

// rewrite swaps every known local_ id in path and payload for its server id.
func (e *Engine) rewrite(ctx context.Context, path string, payload []byte) (string, json.RawMessage, error) {
	var maps []IDMapping
	if err := e.db.WithContext(ctx).Find(&maps).Error; err != nil {
		return "", nil, apperr.Internal(err, "failed to read id map")
	}
	body := string(payload)
	for _, m := range maps {
		path = strings.ReplaceAll(path, m.LocalID, m.ServerID)
		body = strings.ReplaceAll(body, m.LocalID, m.ServerID)
	}
	if body == "" {
		return path, nil, nil
	}
	return path, json.RawMessage(body), nil
}
