package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/pkg/common"
)

func (a *Application) checkSuper() {
	const superEmail = "admin@equipview.local"
	const defaultPassword = "equipview"

	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default password", zap.Error(err))
		return
	}

	ctx := sync.WithIdentity(context.Background(), sync.SystemIdentity)

	var admin domain.SysUser
	err = a.localDB.Where("email = ?", superEmail).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user := &domain.SysUser{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Email:     superEmail,
			Password:  string(hashed),
			Role:      domain.UserRoleAdmin,
			Status:    common.ENABLED,
			LastLogin: time.Now(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := a.syncManager.Write(ctx, user); err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("email", superEmail))
		}
		return
	case err != nil:
		zap.L().Error("failed to query admin account", zap.Error(err))
		return
	}

	if strings.EqualFold(admin.Role, domain.UserRoleAdmin) && admin.Status == common.ENABLED {
		return
	}
	admin.Role = domain.UserRoleAdmin
	admin.Status = common.ENABLED
	admin.UpdatedAt = time.Now()
	if err := a.syncManager.Write(ctx, &admin); err != nil {
		zap.L().Error("failed to repair admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default admin account", zap.String("email", superEmail))
}

type settingSchema struct {
	Key         string
	Default     string
	Description string
}

var defaultSettings = []settingSchema{
	{"quote.number_prefix", "Q", "Prefix for generated quote numbers"},
	{"quote.default_status", domain.QuoteStatusDraft, "Status assigned to newly created quotes"},
	{"search.history_limit", "10", "Number of recent searches returned per user"},
	{"search.history_days", "90", "Days of search history kept before cleanup"},
	{"sync.queue_keep_days", "7", "Days confirmed sync queue entries are kept"},
	{"sync.audit_keep_days", "365", "Days conflict audit entries are kept"},
	{"email.enabled", "true", "Allow sending quotes by email"},
}

func (a *Application) checkSettings() {
	for sortid, schema := range defaultSettings {
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid setting key format", zap.String("key", schema.Key))
			continue
		}
		category, name := parts[0], parts[1]

		var count int64
		a.localDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)
		if count == 0 {
			a.localDB.Create(&domain.SysConfig{
				ID:        common.UUIDint64(),
				Sort:      sortid,
				Type:      category,
				Name:      name,
				Value:     schema.Default,
				Remark:    schema.Description,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
			zap.L().Info("initialized setting",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkProducts seeds a couple of demo catalog entries on first start so
// the UI has something to browse before the first catalog pull.
func (a *Application) checkProducts() {
	defaultProducts := []domain.Product{
		{
			Sku: "TSR-23SD-N6", ProductType: "Reach-In Refrigerator",
			Description: "Super Deluxe one-door reach-in refrigerator",
			Category:    "Refrigeration", Subcategory: "Reach-In",
			Price: 2399.0, Voltage: "115", Refrigerant: "R290", Shelves: "3",
		},
		{
			Sku: "TSF-23SD-N", ProductType: "Reach-In Freezer",
			Description: "Super Deluxe one-door reach-in freezer",
			Category:    "Refrigeration", Subcategory: "Reach-In",
			Price: 2899.0, Voltage: "115", Refrigerant: "R290", Shelves: "3",
		},
		{
			Sku: "PST-28-N", ProductType: "Sandwich Prep Table",
			Description: "Pro series sandwich/salad prep table",
			Category:    "Food Prep", Subcategory: "Prep Tables",
			Price: 1999.0, Voltage: "115", Refrigerant: "R290",
		},
	}

	ctx := sync.WithIdentity(context.Background(), sync.SystemIdentity)
	for _, p := range defaultProducts {
		var count int64
		a.localDB.Model(&domain.Product{}).Where("sku = ?", p.Sku).Count(&count)
		if count > 0 {
			continue
		}
		p.ID = common.UUIDint64()
		p.CreatedAt = time.Now()
		p.UpdatedAt = time.Now()
		if err := a.syncManager.Write(ctx, &p); err != nil {
			zap.L().Error("failed to seed product", zap.String("sku", p.Sku), zap.Error(err))
		} else {
			zap.L().Info("initialized demo product", zap.String("sku", p.Sku))
		}
	}
}
