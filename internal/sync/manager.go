package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/pkg/common"
	"github.com/equipview/equipview/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Manager routes every read and write between the local and remote
// stores. The application layer never touches either store directly.
//
// Reads go remote-first when online with a transparent local fallback;
// writes land in the local store first and replicate behind a queue, so
// remote unavailability is never fatal to a user operation.
type Manager struct {
	local         *gorm.DB
	remote        *gorm.DB
	monitor       *Monitor
	remoteTimeout time.Duration

	reconcileMu stdsync.Mutex

	mu            stdsync.Mutex
	lastReconcile time.Time
	lastReport    *Report
}

func NewManager(local, remote *gorm.DB, monitor *Monitor, remoteTimeout time.Duration) *Manager {
	if remoteTimeout <= 0 {
		remoteTimeout = 5 * time.Second
	}
	return &Manager{
		local:         local,
		remote:        remote,
		monitor:       monitor,
		remoteTimeout: remoteTimeout,
	}
}

// Local exposes the local store handle for queue/audit inspection only.
func (m *Manager) Local() *gorm.DB { return m.local }

// Monitor returns the connectivity monitor.
func (m *Manager) Monitor() *Monitor { return m.monitor }

func (m *Manager) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.remoteTimeout)
}

// Read fills dest (a *[]T of a domain model) from the remote store when
// online, falling back to the local store on any remote failure. The
// returned flag reports a possibly-stale local fallback result.
func (m *Manager) Read(ctx context.Context, dest interface{}, f Filter) (bool, error) {
	if m.remote != nil && m.monitor.Online() {
		rctx, cancel := m.remoteCtx(ctx)
		err := f.apply(m.remote.WithContext(rctx)).Find(dest).Error
		cancel()
		if err == nil {
			return false, nil
		}
		zap.L().Warn("remote read failed, falling back to local store", zap.Error(err))
		m.monitor.MarkOffline()
		if lerr := f.apply(m.local.WithContext(ctx)).Find(dest).Error; lerr != nil {
			return false, lerr
		}
		return true, nil
	}
	return false, f.apply(m.local.WithContext(ctx)).Find(dest).Error
}

// First fills dest with a single record, mapping a miss to ErrNotFound.
func (m *Manager) First(ctx context.Context, dest interface{}, f Filter) (bool, error) {
	if m.remote != nil && m.monitor.Online() {
		rctx, cancel := m.remoteCtx(ctx)
		err := f.apply(m.remote.WithContext(rctx)).First(dest).Error
		cancel()
		switch {
		case err == nil:
			return false, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return false, ErrNotFound
		}
		zap.L().Warn("remote lookup failed, falling back to local store", zap.Error(err))
		m.monitor.MarkOffline()
		if lerr := f.apply(m.local.WithContext(ctx)).First(dest).Error; lerr != nil {
			if errors.Is(lerr, gorm.ErrRecordNotFound) {
				return true, ErrNotFound
			}
			return false, lerr
		}
		return true, nil
	}
	err := f.apply(m.local.WithContext(ctx)).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrNotFound
	}
	return false, err
}

// Count counts records of model with the same routing as Read.
func (m *Manager) Count(ctx context.Context, model interface{}, f Filter) (int64, error) {
	var total int64
	counting := f
	counting.Order, counting.Limit, counting.Offset = "", 0, 0
	if m.remote != nil && m.monitor.Online() {
		rctx, cancel := m.remoteCtx(ctx)
		err := counting.apply(m.remote.WithContext(rctx).Model(model)).Count(&total).Error
		cancel()
		if err == nil {
			return total, nil
		}
		zap.L().Warn("remote count failed, falling back to local store", zap.Error(err))
		m.monitor.MarkOffline()
	}
	err := counting.apply(m.local.WithContext(ctx).Model(model)).Count(&total).Error
	return total, err
}

func (m *Manager) authorize(ctx context.Context, rec domain.SyncRecord) error {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Invalid("identity", "no caller identity in context")
	}
	if id.Admin() {
		return nil
	}
	owner := rec.RecordOwner()
	if owner == 0 {
		// unowned records (products) are admin-writable only
		return Invalid("role", "administrator role required")
	}
	if owner != id.UserID {
		return Invalid("owner", "record belongs to another user")
	}
	return nil
}

// Write upserts rec into the local store first, then replicates to the
// remote store. A failed or impossible remote write leaves the record
// pending sync instead of failing the operation.
func (m *Manager) Write(ctx context.Context, rec domain.SyncRecord) error {
	if err := m.authorize(ctx, rec); err != nil {
		return err
	}
	if rec.RecordID() == 0 {
		return Invalid("id", "record id must be assigned before write")
	}

	if err := m.local.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(rec).Error; err != nil {
		return err
	}

	item, err := m.enqueue(ctx, rec.TableName(), rec.RecordID(), domain.SyncOpUpsert, rec)
	if err != nil {
		return err
	}
	m.replicateNow(ctx, item)
	return nil
}

// Delete removes rec through the same local-first path. Models with a
// DeletedAt column are soft-deleted so the removal can replicate.
func (m *Manager) Delete(ctx context.Context, rec domain.SyncRecord) error {
	if err := m.authorize(ctx, rec); err != nil {
		return err
	}
	if rec.RecordID() == 0 {
		return Invalid("id", "record id required for delete")
	}

	if err := m.local.WithContext(ctx).Delete(rec).Error; err != nil {
		return err
	}

	item, err := m.enqueue(ctx, rec.TableName(), rec.RecordID(), domain.SyncOpDelete, rec)
	if err != nil {
		return err
	}
	m.replicateNow(ctx, item)
	return nil
}

// clearSpec is the payload of a bulk clear operation.
type clearSpec struct {
	UserID   int64 `json:"user_id,string"`
	ClientID int64 `json:"client_id,string"`
}

// Clear bulk-deletes cart items or search history for a user, optionally
// scoped to one client. Replicated as a single queue entry.
func (m *Manager) Clear(ctx context.Context, table string, userID, clientID int64) error {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Invalid("identity", "no caller identity in context")
	}
	if !id.Admin() && id.UserID != userID {
		return Invalid("owner", "cannot clear another user's records")
	}
	if table != (domain.CartItem{}).TableName() && table != (domain.SearchHistory{}).TableName() {
		return Invalid("table", "clear is only supported for cart items and search history")
	}

	proto := domain.NewRecord(table)
	tx := m.local.WithContext(ctx).Where("user_id = ?", userID)
	if clientID > 0 {
		tx = tx.Where("client_id = ?", clientID)
	}
	if err := tx.Delete(proto).Error; err != nil {
		return err
	}

	item, err := m.enqueue(ctx, table, 0, domain.SyncOpClear, clearSpec{UserID: userID, ClientID: clientID})
	if err != nil {
		return err
	}
	m.replicateNow(ctx, item)
	return nil
}

// enqueue records the pending-sync flag for a record in the local store.
func (m *Manager) enqueue(ctx context.Context, table string, recordID int64, op string, payload interface{}) (*domain.SyncQueue, error) {
	data, err := json.MarshalToString(payload)
	if err != nil {
		return nil, err
	}
	item := &domain.SyncQueue{
		ID:          common.UUIDint64(),
		EntityTable: table,
		RecordID:    recordID,
		Operation:   op,
		Payload:     data,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := m.local.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	metrics.IncrCounter("sync_enqueued", 1)
	return item, nil
}

// replicateNow attempts a synchronous remote write for a fresh queue
// entry. Failure is logged and the entry stays pending for reconcile.
func (m *Manager) replicateNow(ctx context.Context, item *domain.SyncQueue) {
	if m.remote == nil || !m.monitor.Online() {
		return
	}
	rctx, cancel := m.remoteCtx(ctx)
	defer cancel()
	conflict, err := m.applyQueued(rctx, item)
	if err != nil {
		zap.L().Warn("remote write failed, record left pending sync",
			zap.String("table", item.EntityTable),
			zap.Int64("record_id", item.RecordID),
			zap.Error(err))
		m.monitor.MarkOffline()
		m.markAttempt(item, err)
		return
	}
	if conflict {
		metrics.IncrCounter("sync_conflicts", 1)
	}
	m.markSynced(item)
}

// PendingCount reports the number of local operations not yet confirmed
// against the remote store.
func (m *Manager) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := m.local.WithContext(ctx).Model(&domain.SyncQueue{}).
		Where("synced = ?", false).Count(&n).Error
	return n, err
}

// Status summarizes the sync layer for diagnostics endpoints.
type Status struct {
	Online        bool      `json:"online"`
	Pending       int64     `json:"pending"`
	LastReconcile time.Time `json:"last_reconcile"`
	LastReport    *Report   `json:"last_report,omitempty"`
}

func (m *Manager) Status(ctx context.Context) (*Status, error) {
	pending, err := m.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Status{
		Online:        m.monitor.Online(),
		Pending:       pending,
		LastReconcile: m.lastReconcile,
		LastReport:    m.lastReport,
	}, nil
}
