package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
		go a.SchedSyncGaugeTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	interval := a.appConfig.Sync.ReconcileInterval
	if interval <= 0 {
		interval = 300
	}
	_, err = a.sched.AddFunc(fmt.Sprintf("@every %ds", interval), a.SchedReconcileTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", a.SchedClearExpireData)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedReconcileTask flushes pending local writes on a timer; the event
// bus also triggers the same pass on reconnect.
func (a *Application) SchedReconcileTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx := sync.WithIdentity(context.Background(), sync.SystemIdentity)
	report, err := a.syncManager.Reconcile(ctx)
	switch err {
	case nil:
		if report.Total > 0 {
			zap.S().Infof("scheduled reconcile: %d synced, %d conflicts, %d failed",
				report.Synced, report.Conflicts, report.Failed)
		}
	case sync.ErrReconcileBusy, sync.ErrOffline:
		// retried on the next window
	default:
		zap.S().Warnf("scheduled reconcile failed: %v", err)
	}
}

// SchedSyncGaugeTask exports the pending-sync backlog size.
func (a *Application) SchedSyncGaugeTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	pending, err := a.syncManager.PendingCount(context.Background())
	if err == nil {
		metrics.SetGauge("sync_pending", pending)
	}
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100))
	}

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}

	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge("equipview_cpuuse", int64(cpuuse*100))
	}

	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge("equipview_memuse", int64(meminfo.RSS/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedClearExpireData trims confirmed queue entries, old audit rows and
// stale search history.
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	keepDays := a.ConfigMgr().GetInt("sync", "queue_keep_days")
	if keepDays == 0 {
		keepDays = 7
	}
	if err := a.syncManager.PurgeSynced(context.Background(),
		time.Hour*24*time.Duration(keepDays)); err != nil {
		zap.S().Warnf("queue purge failed: %v", err)
	}

	auditDays := a.ConfigMgr().GetInt("sync", "audit_keep_days")
	if auditDays == 0 {
		auditDays = 365
	}
	a.localDB.
		Where("created_at < ?", time.Now().Add(-time.Hour*24*time.Duration(auditDays))).
		Delete(&domain.SyncAudit{})

	historyDays := a.ConfigMgr().GetInt("search", "history_days")
	if historyDays == 0 {
		historyDays = 90
	}
	a.localDB.
		Where("created_at < ?", time.Now().Add(-time.Hour*24*time.Duration(historyDays))).
		Delete(&domain.SearchHistory{})
}
