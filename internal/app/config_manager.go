package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/pkg/common"
)

// ConfigManager caches sys_config rows from the local store. Settings
// are node-level knobs and never flow through the sync queue.
type ConfigManager struct {
	app   *Application
	mu    sync.RWMutex
	cache map[string]string
}

func NewConfigManager(a *Application) *ConfigManager {
	cm := &ConfigManager{app: a, cache: make(map[string]string)}
	cm.Reload()
	return cm
}

func cacheKey(category, name string) string {
	return fmt.Sprintf("%s.%s", category, name)
}

// Reload re-reads every setting from the local store.
func (cm *ConfigManager) Reload() {
	var rows []domain.SysConfig
	if err := cm.app.localDB.Find(&rows).Error; err != nil {
		zap.S().Errorf("failed to load settings: %v", err)
		return
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.cache = make(map[string]string, len(rows))
	for _, row := range rows {
		cm.cache[cacheKey(row.Type, row.Name)] = row.Value
	}
}

func (cm *ConfigManager) GetString(category, name string) string {
	cm.mu.RLock()
	v, ok := cm.cache[cacheKey(category, name)]
	cm.mu.RUnlock()
	if ok {
		return v
	}

	var row domain.SysConfig
	err := cm.app.localDB.Where("type = ? and name = ?", category, name).First(&row).Error
	if err != nil {
		return ""
	}
	cm.mu.Lock()
	cm.cache[cacheKey(category, name)] = row.Value
	cm.mu.Unlock()
	return row.Value
}

func (cm *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(cm.GetString(category, name))
}

func (cm *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(cm.GetString(category, name))
}

func (cm *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(cm.GetString(category, name))
}

// SetValue creates or updates a setting and refreshes the cache.
func (cm *ConfigManager) SetValue(category, name, value string) error {
	var row domain.SysConfig
	err := cm.app.localDB.Where("type = ? and name = ?", category, name).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = domain.SysConfig{
			ID:        common.UUIDint64(),
			Type:      category,
			Name:      name,
			Value:     value,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := cm.app.localDB.Create(&row).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := cm.app.localDB.Model(&domain.SysConfig{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{"value": value, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
	}

	cm.mu.Lock()
	cm.cache[cacheKey(category, name)] = value
	cm.mu.Unlock()
	return nil
}
