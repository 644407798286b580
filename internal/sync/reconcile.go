package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/pkg/common"
	"github.com/equipview/equipview/pkg/metrics"
)

// Report summarizes one reconcile pass.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Synced     int       `json:"synced"`
	Conflicts  int       `json:"conflicts"`
	Failed     int       `json:"failed"`
	Errors     []string  `json:"errors,omitempty"`
}

// Reconcile replays every pending local operation against the remote
// store. Conflicts resolve last-write-wins by record timestamp with the
// losing version written to the audit log. The pass is serialized (a
// concurrent call gets ErrReconcileBusy) and idempotent: only entries
// still pending are re-attempted, and a synced entry is never replayed.
func (m *Manager) Reconcile(ctx context.Context) (*Report, error) {
	if !m.reconcileMu.TryLock() {
		return nil, ErrReconcileBusy
	}
	defer m.reconcileMu.Unlock()

	if m.remote == nil || !m.monitor.Online() {
		return nil, ErrOffline
	}

	report := &Report{StartedAt: time.Now()}

	var items []domain.SyncQueue
	if err := m.local.WithContext(ctx).
		Where("synced = ?", false).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	report.Total = len(items)

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		item := &items[i]
		rctx, cancel := m.remoteCtx(ctx)
		conflict, err := m.applyQueued(rctx, item)
		cancel()
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s %s #%d: %v", item.Operation, item.EntityTable, item.RecordID, err))
			m.markAttempt(item, err)
			continue
		}
		if conflict {
			report.Conflicts++
		}
		report.Synced++
		m.markSynced(item)
	}

	report.FinishedAt = time.Now()
	m.mu.Lock()
	m.lastReconcile = report.FinishedAt
	m.lastReport = report
	m.mu.Unlock()

	metrics.IncrCounter("sync_reconciled", int64(report.Synced))
	metrics.IncrCounter("sync_conflicts", int64(report.Conflicts))
	zap.L().Info("reconcile pass finished",
		zap.Int("total", report.Total),
		zap.Int("synced", report.Synced),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("failed", report.Failed))
	return report, nil
}

// applyQueued replays one queue entry against the remote store. The
// returned flag reports a resolved conflict (in either direction).
func (m *Manager) applyQueued(ctx context.Context, item *domain.SyncQueue) (bool, error) {
	switch item.Operation {
	case domain.SyncOpUpsert:
		return m.applyUpsert(ctx, item)
	case domain.SyncOpDelete:
		return m.applyDelete(ctx, item)
	case domain.SyncOpClear:
		return false, m.applyClear(ctx, item)
	default:
		return false, fmt.Errorf("unknown sync operation %q", item.Operation)
	}
}

func (m *Manager) applyUpsert(ctx context.Context, item *domain.SyncQueue) (bool, error) {
	rec := domain.NewRecord(item.EntityTable)
	if rec == nil {
		return false, fmt.Errorf("no record prototype for table %q", item.EntityTable)
	}
	if err := json.UnmarshalFromString(item.Payload, rec); err != nil {
		return false, err
	}

	current := domain.NewRecord(item.EntityTable)
	err := m.remote.WithContext(ctx).Unscoped().
		Where("id = ?", rec.RecordID()).First(current).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if exists && current.RecordUpdatedAt().After(rec.RecordUpdatedAt()) {
		// remote version is newer: it wins, local copy is overwritten
		if err := m.local.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
			Create(current).Error; err != nil {
			return false, err
		}
		m.audit(item, "remote", item.Payload, "remote record carried a newer timestamp")
		return true, nil
	}

	if err := m.remote.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(rec).Error; err != nil {
		return false, err
	}

	if exists && !current.RecordUpdatedAt().Equal(rec.RecordUpdatedAt()) {
		discarded, _ := json.MarshalToString(current)
		m.audit(item, "local", discarded, "older remote version overwritten")
		return true, nil
	}
	return false, nil
}

func (m *Manager) applyDelete(ctx context.Context, item *domain.SyncQueue) (bool, error) {
	rec := domain.NewRecord(item.EntityTable)
	if rec == nil {
		return false, fmt.Errorf("no record prototype for table %q", item.EntityTable)
	}
	if err := json.UnmarshalFromString(item.Payload, rec); err != nil {
		return false, err
	}

	current := domain.NewRecord(item.EntityTable)
	err := m.remote.WithContext(ctx).
		Where("id = ?", rec.RecordID()).First(current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// already gone remotely, nothing to do
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// The tombstone timestamp is the queue entry's creation time, not
	// the record's last edit. A remote edit made before the local delete
	// must still lose to it.
	if current.RecordUpdatedAt().After(item.CreatedAt) {
		// the record was modified remotely after the local delete: the
		// newer write wins and the deletion is discarded
		if err := m.local.WithContext(ctx).Unscoped().
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
			Create(current).Error; err != nil {
			return false, err
		}
		m.audit(item, "remote", item.Payload, "delete discarded, remote record is newer")
		return true, nil
	}

	if err := m.remote.WithContext(ctx).Delete(rec).Error; err != nil {
		return false, err
	}
	return false, nil
}

func (m *Manager) applyClear(ctx context.Context, item *domain.SyncQueue) error {
	var spec clearSpec
	if err := json.UnmarshalFromString(item.Payload, &spec); err != nil {
		return err
	}
	proto := domain.NewRecord(item.EntityTable)
	if proto == nil {
		return fmt.Errorf("no record prototype for table %q", item.EntityTable)
	}
	tx := m.remote.WithContext(ctx).Where("user_id = ?", spec.UserID)
	if spec.ClientID > 0 {
		tx = tx.Where("client_id = ?", spec.ClientID)
	}
	return tx.Delete(proto).Error
}

func (m *Manager) markSynced(item *domain.SyncQueue) {
	updates := map[string]interface{}{
		"synced":     true,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": "",
		"updated_at": time.Now(),
	}
	if err := m.local.Model(&domain.SyncQueue{}).
		Where("id = ?", item.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to clear pending flag", zap.Int64("queue_id", item.ID), zap.Error(err))
	}
}

func (m *Manager) markAttempt(item *domain.SyncQueue, cause error) {
	if err := m.local.Model(&domain.SyncQueue{}).
		Where("id = ?", item.ID).Updates(map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": cause.Error(),
		"updated_at": time.Now(),
	}).Error; err != nil {
		zap.L().Error("failed to record sync attempt", zap.Int64("queue_id", item.ID), zap.Error(err))
	}
}

func (m *Manager) audit(item *domain.SyncQueue, winner, discardedPayload, detail string) {
	entry := &domain.SyncAudit{
		ID:               common.UUIDint64(),
		EntityTable:      item.EntityTable,
		RecordID:         item.RecordID,
		Action:           item.Operation,
		Winner:           winner,
		DiscardedPayload: discardedPayload,
		Detail:           detail,
		CreatedAt:        time.Now(),
	}
	if err := m.local.Create(entry).Error; err != nil {
		zap.L().Error("failed to write sync audit entry", zap.Error(err))
	}
	zap.L().Info("sync conflict resolved",
		zap.String("table", item.EntityTable),
		zap.Int64("record_id", item.RecordID),
		zap.String("winner", winner))
}

// PurgeSynced drops confirmed queue entries older than age.
func (m *Manager) PurgeSynced(ctx context.Context, age time.Duration) error {
	return m.local.WithContext(ctx).
		Where("synced = ? AND updated_at < ?", true, time.Now().Add(-age)).
		Delete(&domain.SyncQueue{}).Error
}

// PullCatalog refreshes the local copies of the shared, centrally
// managed tables (products and user profiles) from the remote store.
func (m *Manager) PullCatalog(ctx context.Context) error {
	if m.remote == nil || !m.monitor.Online() {
		return ErrOffline
	}

	rctx, cancel := m.remoteCtx(ctx)
	defer cancel()

	var products []domain.Product
	if err := m.remote.WithContext(rctx).Find(&products).Error; err != nil {
		m.monitor.MarkOffline()
		return err
	}
	var users []domain.SysUser
	if err := m.remote.WithContext(rctx).Find(&users).Error; err != nil {
		m.monitor.MarkOffline()
		return err
	}

	return m.local.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		if len(products) > 0 {
			if err := tx.CreateInBatches(products, 200).Error; err != nil {
				return err
			}
		}
		for i := range users {
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
				Create(&users[i]).Error; err != nil {
				return err
			}
		}
		zap.L().Info("catalog pulled from remote store",
			zap.Int("products", len(products)), zap.Int("users", len(users)))
		return nil
	})
}
