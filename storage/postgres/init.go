package postgres

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化 PG 连接（只读使用）
// dsn 格式: "host=localhost user=postgres password=root dbname=mydb port=5432 sslmode=disable"
func InitDB(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info // 开发阶段打印 SQL
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get sql.DB")
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	zap.L().Info("postgres: connected")
	return db, nil
}
