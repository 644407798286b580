package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/equipview/equipview/config"
	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/pkg/metrics"
)

type Application struct {
	appConfig     *config.AppConfig
	localDB       *gorm.DB
	remoteDB      *gorm.DB
	bus           EventBus.Bus
	syncManager   *sync.Manager
	sched         *cron.Cron
	configManager *ConfigManager
}

// Ensure Application implements all interfaces
var (
	_ SyncProvider          = (*Application)(nil)
	_ ConfigProvider        = (*Application)(nil)
	_ SettingsProvider      = (*Application)(nil)
	_ SchedulerProvider     = (*Application)(nil)
	_ ConfigManagerProvider = (*Application)(nil)
	_ AppContext            = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig { return a.appConfig }
func (a *Application) LocalDB() *gorm.DB         { return a.localDB }
func (a *Application) RemoteDB() *gorm.DB        { return a.remoteDB }
func (a *Application) Sync() *sync.Manager       { return a.syncManager }
func (a *Application) Bus() EventBus.Bus         { return a.bus }

// OverrideSync replaces the sync manager (used in tests).
func (a *Application) OverrideSync(m *sync.Manager) {
	a.syncManager = m
	a.localDB = m.Local()
	a.configManager = NewConfigManager(a)
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.OutputPaths = []string{"stdout"}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	// Open both stores. The local store must open; the remote store may
	// be down or disabled, the server still serves from local.
	a.localDB, err = openLocalDatabase(cfg)
	if err != nil {
		panic(err)
	}
	if cfg.Remote.Enabled {
		a.remoteDB, err = openRemoteDatabase(cfg)
		if err != nil {
			zap.S().Warnf("remote store unavailable at startup: %v", err)
			a.remoteDB = nil
		}
	} else {
		zap.S().Info("remote store disabled, running offline-only")
	}

	if err := a.MigrateDB(); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	// Wire the sync layer
	a.bus = EventBus.New()
	probe := sync.ProbeFunc(func(ctx context.Context) error {
		return sync.ErrOffline
	})
	if a.remoteDB != nil {
		probes := []sync.ProbeFunc{sync.DatabaseProbe(a.remoteDB)}
		if cfg.Sync.HealthURL != "" {
			probes = append(probes, sync.HealthProbe(cfg.Sync.HealthURL))
		}
		probe = sync.AllProbes(probes...)
	}
	monitor := sync.NewMonitor(probe,
		time.Duration(cfg.Sync.ProbeTTL)*time.Second,
		time.Duration(cfg.Sync.RemoteTimeout)*time.Second,
		a.bus)
	a.syncManager = sync.NewManager(a.localDB, a.remoteDB, monitor,
		time.Duration(cfg.Sync.RemoteTimeout)*time.Second)

	// Reconcile as soon as connectivity comes back
	if err := a.bus.SubscribeAsync(sync.TopicOnline, a.onOnline, false); err != nil {
		zap.S().Errorf("event subscription failed: %v", err)
	}

	// wait for database initialization to complete
	go func() {
		time.Sleep(3 * time.Second)
		a.SeedData()
	}()

	a.configManager = NewConfigManager(a)

	a.initJob()
}

// onOnline runs when the monitor reports an offline-to-online
// transition: flush pending writes, then refresh the local catalog.
func (a *Application) onOnline() {
	ctx := sync.WithIdentity(context.Background(), sync.SystemIdentity)
	if _, err := a.syncManager.Reconcile(ctx); err != nil {
		zap.S().Warnf("reconcile after reconnect: %v", err)
	}
	if err := a.syncManager.PullCatalog(ctx); err != nil {
		zap.S().Warnf("catalog pull after reconnect: %v", err)
	}
}

func (a *Application) MigrateDB() (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEBUG_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	tables := append(append([]interface{}{}, domain.Tables...), domain.LocalTables...)
	if err := a.localDB.Migrator().AutoMigrate(tables...); err != nil {
		zap.S().Error(err)
	}
	if a.remoteDB != nil {
		if err := a.remoteDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Errorf("remote migration failed: %v", err)
		}
	}
	return nil
}

func (a *Application) DropAll() {
	tables := append(append([]interface{}{}, domain.Tables...), domain.LocalTables...)
	_ = a.localDB.Migrator().DropTable(tables...)
	if a.remoteDB != nil {
		_ = a.remoteDB.Migrator().DropTable(domain.Tables...)
	}
}

func (a *Application) InitDb() {
	a.DropAll()
	if err := a.MigrateDB(); err != nil {
		zap.S().Error(err)
	}
	a.SeedData()
}

// SeedData ensures the superuser, default settings and demo catalog
// entries exist.
func (a *Application) SeedData() {
	a.checkSuper()
	a.checkSettings()
	a.checkProducts()
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	return a.configManager.GetString(category, key)
}

// GetSettingsInt64Value retrieves an int64 configuration value
func (a *Application) GetSettingsInt64Value(category, key string) int64 {
	return a.configManager.GetInt64(category, key)
}

// GetSettingsBoolValue retrieves a boolean configuration value
func (a *Application) GetSettingsBoolValue(category, key string) bool {
	return a.configManager.GetBool(category, key)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
