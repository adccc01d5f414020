package main

import (
	"time"

	"go.uber.org/zap"

	"drawlots/backend/config"
	"drawlots/backend/events"
	"drawlots/backend/logging"
	"drawlots/backend/metrics"
	"drawlots/backend/persist"
	"drawlots/backend/service"
	"drawlots/backend/storage"
)

// app wires the storage subsystem once per process.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	facade  *service.Facade
}

func newApp(cfg config.Config) (*app, error) {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Dev: cfg.Dev})
	if err != nil {
		return nil, err
	}
	startedAt := time.Now()

	// 1. 事件总线 + 指标
	bus := events.NewBus()
	m := metrics.New()
	m.Subscribe(bus)
	bus.SubscribeAll(func(e events.Event) {
		logger.Debug("[Event] " + string(e.Type()))
	})

	// 2. 数据目录定位（进程内只解析一次）
	var preferred []string
	if cfg.Storage.DataDir != "" {
		preferred = append(preferred, cfg.Storage.DataDir)
	}
	locator := storage.NewLocator(storage.Options{
		AppID:         cfg.AppID,
		PreferredDirs: preferred,
		FallbackDir:   cfg.Storage.FallbackDir,
		Logger:        logger,
		Bus:           bus,
	})

	// 3. 历史记录存储 + 门面
	history := persist.NewHistoryStore(locator, logger, bus)
	facade := service.NewFacade(locator, history)
	if cfg.Log.File != "" {
		facade.SetAppLog(cfg.Log.File, startedAt)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		facade:  facade,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
