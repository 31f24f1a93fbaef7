package sync

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"lifelines-backend/internal/application/snapshot"
	"lifelines-backend/internal/pkg/apperr"

	"gorm.io/gorm"
)

// PackVersion is bumped when the pack layout changes.
const PackVersion = 1

// Pack carries a device's local state to another device: its snapshot and the
// mutations it has not synced yet.
type Pack struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exportedAt"`
	Snapshot   *snapshot.Snapshot `json:"snapshot"`
	Queue      []PendingMutation  `json:"queue"`
}

func (e *Engine) ExportPack(ctx context.Context, w io.Writer) error {
	snap, err := snapshot.Dump(ctx, e.db)
	if err != nil {
		return err
	}
	queue, err := e.Pending(ctx)
	if err != nil {
		return apperr.Internal(err, "failed to read sync queue")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Pack{Version: PackVersion, ExportedAt: e.now().UTC(), Snapshot: snap, Queue: queue})
}

// ImportPack replaces the local snapshot with the pack's and appends its queued
// mutations behind any already queued here. Mutations already present by id
// are skipped, so importing the same pack twice is harmless.
func (e *Engine) ImportPack(ctx context.Context, r io.Reader) (int, error) {
	var p Pack
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return 0, apperr.Validation("Invalid offline pack")
	}
	if p.Version != PackVersion {
		return 0, apperr.Validation("Unsupported offline pack version %d", p.Version)
	}
	if !e.draining.TryLock() {
		return 0, apperr.Conflict("Sync in progress")
	}
	defer e.draining.Unlock()

	if p.Snapshot != nil {
		if err := snapshot.Restore(ctx, e.db, p.Snapshot); err != nil {
			return 0, err
		}
	}
	added := 0
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range p.Queue {
			var n int64
			if err := tx.Model(&PendingMutation{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			m.Seq = 0
			m.State = StateQueued
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Internal(err, "failed to import queue")
	}
	e.updateDepth(ctx)
	return added, nil
}
