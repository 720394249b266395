package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wierzcho/ravacan/internal/bom/archive"
	"github.com/wierzcho/ravacan/internal/bom/repository"
	"github.com/wierzcho/ravacan/internal/bom/service"
	"github.com/wierzcho/ravacan/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// App 子命令共享的运行环境
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Out    io.Writer

	db *gorm.DB
}

func NewApp(cfg *config.Config, verbose bool) (*App, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &App{Config: cfg, Logger: zapLogger, Out: os.Stdout}, nil
}

// Store 连接数据库并返回BOM仓库
func (a *App) Store() (*repository.TreeRepository, error) {
	if a.db == nil {
		db, err := gorm.Open(postgres.Open(a.Config.Database.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.db = db
	}
	return repository.NewTreeRepository(a.db), nil
}

// Services 在给定存储上组装服务，CLI 不使用缓存
func (a *App) Services(store repository.Store, archiver service.Archiver) *service.Services {
	return service.NewServices(store, nil, archiver, a.Logger)
}

// Archive 返回已配置的归档，未配置时返回 nil
func (a *App) Archive(ctx context.Context) service.Archiver {
	arc, err := archive.New(a.Config.MinIO)
	if err != nil {
		return nil
	}
	if err := arc.EnsureBucket(ctx); err != nil {
		a.Logger.Warn("MinIO archive disabled", zap.Error(err))
		return nil
	}
	return arc
}

func (a *App) Close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	a.Logger.Sync()
}
