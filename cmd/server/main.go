package main

import (
	"github.com/blues/fss/internal/config"
	"github.com/blues/fss/internal/database"
	"github.com/blues/fss/internal/ethereum"
	"github.com/blues/fss/internal/ledger"
	"github.com/blues/fss/internal/logger"
	"github.com/blues/fss/internal/monitor"
	"github.com/blues/fss/internal/router"
	"github.com/blues/fss/internal/signing"
	"github.com/blues/fss/internal/task"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	} else {
		l, err := logger.New(level)
		if err != nil {
			logger.Fatal("Failed to initialize logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化以太坊客户端
	ethClient, err := ethereum.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize ethereum client: %v", err)
	}
	logger.Info("Ethereum client ready, chain id %s", ethClient.ChainId().String())
	if addr := ethClient.GetAccountAddress(); addr != (common.Address{}) {
		logger.Info("Transaction account: %s", addr.Hex())
	}

	// 初始化签名器（未配置时投票签名接口不可用，其余功能不受影响）
	var signer signing.Signer
	if s, err := signing.NewKeyedSigner(cfg.Chain.PrivateKey); err != nil {
		logger.Warn("Signer unavailable: %v", err)
	} else {
		signer = s
	}

	// 账本会话
	session := ledger.NewSession()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, ethClient, session, signer, cfg)

	// 启动定时任务
	taskManager := task.Start(db, ethClient, cfg)
	defer taskManager.Stop()

	// 启动事件监控
	eventMonitor, err := monitor.NewEventMonitor(ethClient, db, cfg)
	if err != nil {
		logger.Fatal("Failed to create event monitor: %v", err)
	}
	if err := eventMonitor.Start(); err != nil {
		logger.Fatal("Failed to start event monitor: %v", err)
	}
	defer eventMonitor.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
