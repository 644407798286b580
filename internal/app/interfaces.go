package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/equipview/equipview/config"
	"github.com/equipview/equipview/internal/sync"
)

// SyncProvider provides the sync manager, the only data-access path for
// the application layer
type SyncProvider interface {
	Sync() *sync.Manager
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// ConfigManagerProvider provides configuration manager access
type ConfigManagerProvider interface {
	ConfigMgr() *ConfigManager
}

// AppContext combines all provider interfaces for full application context.
// Services should depend on specific providers or this combined interface.
type AppContext interface {
	SyncProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	ConfigManagerProvider

	// LocalDB exposes the local store handle for migration and tests;
	// request paths must go through Sync()
	LocalDB() *gorm.DB
	RemoteDB() *gorm.DB

	MigrateDB() error
	InitDb()
	DropAll()
}
