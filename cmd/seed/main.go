package main

import (
	"github.com/hostara-cloud/internal/config"
	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/repository"
	"github.com/hostara-cloud/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 按内置定价矩阵补齐套餐目录
	planService := service.NewPlanService(repository.NewPlanRepository(models.DB))
	created, err := planService.SyncPlansFromTiers()
	if err != nil {
		stdLog.Fatalf("Failed to sync hosting plans: %v", err)
	}
	stdLog.Printf("Hosting plans synced, created %d", created)

	// 初始化默认设置（已存在的键跳过）
	settingRepo := repository.NewSettingRepository(models.DB)
	settingService := service.NewSettingService(settingRepo)
	defaultSettings := map[string]map[string]interface{}{
		constants.SettingKeySiteConfig: {
			"site_name": "Hostara Cloud",
			"tagline":   "Managed cloud hosting for growing businesses",
			"currency":  constants.SiteCurrencyDefault,
			"languages": constants.SupportedLocales,
		},
		constants.SettingKeyOrderConfig: {
			"payment_expire_minutes": cfg.Order.PaymentExpireMinutes,
		},
		constants.SettingKeyReferralConfig: {
			"enabled":      true,
			"confirm_days": 7,
		},
	}
	for key, value := range defaultSettings {
		existing, err := settingRepo.GetByKey(key)
		if err != nil {
			stdLog.Fatalf("Failed to load setting %s: %v", key, err)
		}
		if existing != nil {
			stdLog.Printf("Setting already exists: %s", key)
			continue
		}
		if _, err := settingService.Update(key, value); err != nil {
			stdLog.Fatalf("Failed to seed setting %s: %v", key, err)
		}
		stdLog.Printf("Seeded setting: %s", key)
	}

	stdLog.Printf("Seed completed")
}
