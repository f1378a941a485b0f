package model

import (
	"fmt"

	"order-gateway/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 初始化数据库连接
func InitDB(cfg *config.DatabaseConfig) error {
	var logLevel logger.LogLevel
	if config.Get().Server.Mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	gormCfg := &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true, // 禁用外键约束检查
	}

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "order-gateway.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
	case "mysql", "":
		db, err = gorm.Open(mysql.Open(cfg.DSN()), gormCfg)
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	DB = db
	return nil
}

// AutoMigrate 自动迁移数据库表
func AutoMigrate() error {
	return DB.AutoMigrate(
		// 组织与门店目录
		&Organization{},
		&Branch{},
		// 平台接入配置
		&PlatformIntegration{},
		// 订单
		&UnifiedOrder{},
		&OrderItem{},
		// Webhook 重试队列
		&WebhookQueueEntry{},
		// 运营账号
		&Operator{},
	)
}
