package sync

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/equipview/equipview/internal/domain"
)

// fakeLink is a controllable connectivity probe.
type fakeLink struct {
	up atomic.Bool
}

func (l *fakeLink) probe(ctx context.Context) error {
	if l.up.Load() {
		return nil
	}
	return errors.New("link down")
}

func openStore(t *testing.T, path string, withQueue bool) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	if withQueue {
		require.NoError(t, db.AutoMigrate(domain.LocalTables...))
	}
	return db
}

// newTestManager builds a manager over two throwaway sqlite stores with
// a controllable link. The probe verdict is cached generously; tests
// flip the link and call Invalidate for a deterministic re-probe.
func newTestManager(t *testing.T) (*Manager, *fakeLink) {
	t.Helper()
	dir := t.TempDir()
	local := openStore(t, filepath.Join(dir, "local.db"), true)
	remote := openStore(t, filepath.Join(dir, "remote.db"), false)

	link := &fakeLink{}
	mon := NewMonitor(link.probe, time.Minute, time.Second, nil)
	return NewManager(local, remote, mon, time.Second), link
}

func adminCtx() context.Context {
	return WithIdentity(context.Background(), SystemIdentity)
}

func userCtx(userID int64) context.Context {
	return WithIdentity(context.Background(), Identity{UserID: userID, Role: domain.UserRoleSales})
}

func testProduct(id int64, price float64, updatedAt time.Time) *domain.Product {
	return &domain.Product{
		ID:          id,
		Sku:         "TSR-23SD-N6",
		Description: "Super Deluxe Refrigerator",
		Category:    "Refrigeration",
		Price:       price,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
}

func TestWriteOfflineLeavesRecordPending(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := adminCtx()

	p := testProduct(1001, 2999, time.Now())
	require.NoError(t, m.Write(ctx, p))

	var local domain.Product
	require.NoError(t, m.Local().First(&local, "id = ?", p.ID).Error)
	assert.Equal(t, p.Sku, local.Sku)

	var remoteCount int64
	require.NoError(t, m.remote.Model(&domain.Product{}).Count(&remoteCount).Error)
	assert.Zero(t, remoteCount, "offline write must not reach the remote store")

	pending, err := m.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestWriteOnlineReplicatesImmediately(t *testing.T) {
	m, link := newTestManager(t)
	link.up.Store(true)
	ctx := adminCtx()

	p := testProduct(1002, 1850, time.Now())
	require.NoError(t, m.Write(ctx, p))

	var remote domain.Product
	require.NoError(t, m.remote.First(&remote, "id = ?", p.ID).Error)
	assert.Equal(t, p.Sku, remote.Sku)

	pending, err := m.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestReconcileFlushesPendingWrites(t *testing.T) {
	m, link := newTestManager(t)
	ctx := adminCtx()

	p := testProduct(1003, 999, time.Now())
	require.NoError(t, m.Write(ctx, p))

	link.up.Store(true)
	m.Monitor().Invalidate()

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Synced)
	assert.Zero(t, report.Failed)

	var remote domain.Product
	require.NoError(t, m.remote.First(&remote, "id = ?", p.ID).Error)
	assert.Equal(t, p.Price, remote.Price)

	pending, err := m.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending, "pending flag must clear after reconcile")
}

func TestReconcileIsIdempotent(t *testing.T) {
	m, link := newTestManager(t)
	ctx := adminCtx()

	require.NoError(t, m.Write(ctx, testProduct(1004, 500, time.Now())))
	link.up.Store(true)
	m.Monitor().Invalidate()

	first, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Synced)

	second, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Total, "a confirmed entry must never replay")

	var remoteCount int64
	require.NoError(t, m.remote.Model(&domain.Product{}).Count(&remoteCount).Error)
	assert.EqualValues(t, 1, remoteCount)
}

func TestReconcileOfflineReturnsErrOffline(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Reconcile(adminCtx())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestReconcileRemoteNewerWins(t *testing.T) {
	m, link := newTestManager(t)
	ctx := adminCtx()
	base := time.Now().Add(-time.Hour)

	// stale local edit queued while offline
	require.NoError(t, m.Write(ctx, testProduct(1005, 100, base)))

	// the same record was edited remotely afterwards
	newer := testProduct(1005, 200, base.Add(30*time.Minute))
	require.NoError(t, m.remote.Create(newer).Error)

	link.up.Store(true)
	m.Monitor().Invalidate()

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Conflicts)
	assert.Equal(t, 1, report.Synced)

	// remote version must now be in both stores
	var local, remote domain.Product
	require.NoError(t, m.Local().First(&local, "id = ?", int64(1005)).Error)
	require.NoError(t, m.remote.First(&remote, "id = ?", int64(1005)).Error)
	assert.Equal(t, float64(200), local.Price)
	assert.Equal(t, float64(200), remote.Price)

	var audit domain.SyncAudit
	require.NoError(t, m.Local().First(&audit, "record_id = ?", int64(1005)).Error)
	assert.Equal(t, "remote", audit.Winner)
	assert.NotEmpty(t, audit.DiscardedPayload)
}

func TestReconcileLocalNewerWins(t *testing.T) {
	m, link := newTestManager(t)
	ctx := adminCtx()
	base := time.Now().Add(-time.Hour)

	older := testProduct(1006, 100, base)
	require.NoError(t, m.remote.Create(older).Error)

	require.NoError(t, m.Write(ctx, testProduct(1006, 300, base.Add(10*time.Minute))))

	link.up.Store(true)
	m.Monitor().Invalidate()

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Conflicts)

	var remote domain.Product
	require.NoError(t, m.remote.First(&remote, "id = ?", int64(1006)).Error)
	assert.Equal(t, float64(300), remote.Price)

	var audit domain.SyncAudit
	require.NoError(t, m.Local().First(&audit, "record_id = ?", int64(1006)).Error)
	assert.Equal(t, "local", audit.Winner)
}

func TestReconcileDeleteDiscardedWhenRemoteNewer(t *testing.T) {
	m, link := newTestManager(t)
	ctx := userCtx(7)
	base := time.Now().Add(-time.Hour)

	client := &domain.Client{
		ID: 2001, UserID: 7, Company: "Acme Kitchens",
		CreatedAt: base, UpdatedAt: base,
	}
	require.NoError(t, m.Write(ctx, client))

	// offline delete, while the remote copy got updated afterwards
	require.NoError(t, m.Delete(ctx, client))
	updated := &domain.Client{
		ID: 2001, UserID: 7, Company: "Acme Kitchens & Bath",
		CreatedAt: base, UpdatedAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, m.remote.Create(updated).Error)

	link.up.Store(true)
	m.Monitor().Invalidate()

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Conflicts, 1)

	// the delete lost; the remote version is restored locally
	var local domain.Client
	require.NoError(t, m.Local().First(&local, "id = ?", int64(2001)).Error)
	assert.Equal(t, "Acme Kitchens & Bath", local.Company)

	var remote domain.Client
	require.NoError(t, m.remote.First(&remote, "id = ?", int64(2001)).Error)
	assert.Equal(t, "Acme Kitchens & Bath", remote.Company)
}

func TestReconcileDeleteBeatsOlderRemoteEdit(t *testing.T) {
	m, link := newTestManager(t)
	ctx := userCtx(7)
	base := time.Now().Add(-time.Hour)

	// the record exists in both stores; the remote copy carries an edit
	// that is still older than the delete about to happen
	client := &domain.Client{
		ID: 2003, UserID: 7, Company: "Acme Kitchens",
		CreatedAt: base, UpdatedAt: base,
	}
	require.NoError(t, m.Local().Create(client).Error)
	edited := &domain.Client{
		ID: 2003, UserID: 7, Company: "Acme Kitchens & Bath",
		CreatedAt: base, UpdatedAt: base.Add(10 * time.Minute),
	}
	require.NoError(t, m.remote.Create(edited).Error)

	require.NoError(t, m.Delete(ctx, client))

	link.up.Store(true)
	m.Monitor().Invalidate()

	report, err := m.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Conflicts)
	assert.Equal(t, 1, report.Synced)

	// the delete is newer than the remote edit, so it wins
	var remote domain.Client
	err = m.remote.First(&remote, "id = ?", int64(2003)).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReadFallsBackToLocalOnRemoteFailure(t *testing.T) {
	m, link := newTestManager(t)
	link.up.Store(true)
	ctx := adminCtx()

	p := testProduct(1007, 450, time.Now())
	require.NoError(t, m.Write(ctx, p))

	// kill the remote connection; the monitor still says online
	sqlDB, err := m.remote.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	var rows []domain.Product
	stale, err := m.Read(ctx, &rows, Where("id = ?", p.ID))
	require.NoError(t, err)
	assert.True(t, stale, "fallback results must be flagged stale")
	require.Len(t, rows, 1)
	assert.Equal(t, p.Sku, rows[0].Sku)

	assert.False(t, m.Monitor().Online(), "a remote failure must flip the verdict")
}

func TestFirstMapsMissToErrNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	var p domain.Product
	_, err := m.First(adminCtx(), &p, Where("id = ?", int64(424242)))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteRequiresIdentity(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Write(context.Background(), testProduct(1008, 10, time.Now()))
	assert.True(t, IsValidation(err))
}

func TestWriteCatalogRequiresAdmin(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Write(userCtx(5), testProduct(1009, 10, time.Now()))
	assert.True(t, IsValidation(err))
}

func TestWriteRejectsForeignRecord(t *testing.T) {
	m, _ := newTestManager(t)
	client := &domain.Client{ID: 2002, UserID: 9, Company: "Not Yours"}
	err := m.Write(userCtx(5), client)
	assert.True(t, IsValidation(err))

	// the owner can write it
	client.UpdatedAt = time.Now()
	assert.NoError(t, m.Write(userCtx(9), client))
}

func TestClearOnlySupportsTransientTables(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Clear(userCtx(5), (domain.Product{}).TableName(), 5, 0)
	assert.True(t, IsValidation(err))
}

func TestClearRemovesRowsAndReplicates(t *testing.T) {
	m, link := newTestManager(t)
	link.up.Store(true)
	ctx := userCtx(5)
	now := time.Now()

	for i := int64(1); i <= 3; i++ {
		item := &domain.CartItem{
			ID: 3000 + i, UserID: 5, ProductID: i, Quantity: 1,
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, m.Write(ctx, item))
	}
	require.NoError(t, m.Clear(ctx, (domain.CartItem{}).TableName(), 5, 0))

	var localCount, remoteCount int64
	require.NoError(t, m.Local().Model(&domain.CartItem{}).Where("user_id = ?", 5).Count(&localCount).Error)
	require.NoError(t, m.remote.Model(&domain.CartItem{}).Where("user_id = ?", 5).Count(&remoteCount).Error)
	assert.Zero(t, localCount)
	assert.Zero(t, remoteCount)
}

func TestPullCatalogReplacesLocalProducts(t *testing.T) {
	m, link := newTestManager(t)
	ctx := adminCtx()

	// a stale local-only product that no longer exists remotely
	require.NoError(t, m.Write(ctx, testProduct(1010, 75, time.Now())))

	remoteOnly := testProduct(1011, 80, time.Now())
	remoteOnly.Sku = "PST-28-N"
	require.NoError(t, m.remote.Create(remoteOnly).Error)

	assert.ErrorIs(t, m.PullCatalog(ctx), ErrOffline)

	link.up.Store(true)
	m.Monitor().Invalidate()
	require.NoError(t, m.PullCatalog(ctx))

	var skus []string
	require.NoError(t, m.Local().Model(&domain.Product{}).Order("sku").Pluck("sku", &skus).Error)
	assert.Equal(t, []string{"PST-28-N"}, skus, "local catalog must mirror the remote store")
}

func TestStatusReportsPendingAndVerdict(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := adminCtx()
	require.NoError(t, m.Write(ctx, testProduct(1012, 60, time.Now())))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Online)
	assert.EqualValues(t, 1, status.Pending)
	assert.True(t, status.LastReconcile.IsZero())
}

func TestPurgeSyncedDropsOldEntries(t *testing.T) {
	m, link := newTestManager(t)
	link.up.Store(true)
	ctx := adminCtx()

	require.NoError(t, m.Write(ctx, testProduct(1013, 20, time.Now())))
	require.NoError(t, m.Local().Model(&domain.SyncQueue{}).
		Where("synced = ?", true).
		Update("updated_at", time.Now().Add(-48*time.Hour)).Error)

	require.NoError(t, m.PurgeSynced(ctx, 24*time.Hour))

	var n int64
	require.NoError(t, m.Local().Model(&domain.SyncQueue{}).Count(&n).Error)
	assert.Zero(t, n)
}
