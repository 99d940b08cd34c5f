package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/blues/fss/internal/config"
	"github.com/blues/fss/internal/ethereum"
	"github.com/blues/fss/internal/logger"
	"github.com/blues/fss/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// batchSize 单次日志扫描的区块跨度，避免RPC限制
const batchSize = uint64(500)

// poolSize 日志处理协程池大小
const poolSize = 8

// EventMonitor 区块链事件监控器，扫描工厂与各FairSharing实例的事件
type EventMonitor struct {
	ethClient      *ethereum.Client
	db             *gorm.DB
	config         *config.Config
	projectLogic   *logic.ProjectLogic
	eventProcessor *EventProcessor
	pool           *ants.Pool // 协程池

	startBlockNum   uint64
	retryCount      int           // 重试次数
	backoffDuration time.Duration // 退避时间

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex // 保护 startBlockNum 的并发访问
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(ethClient *ethereum.Client, db *gorm.DB, cfg *config.Config) (*EventMonitor, error) {
	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		cancel()
		return nil, err
	}

	return &EventMonitor{
		ethClient:       ethClient,
		db:              db,
		config:          cfg,
		projectLogic:    logic.NewProjectLogic(db),
		eventProcessor:  NewEventProcessor(db),
		pool:            pool,
		startBlockNum:   uint64(cfg.Chain.StartBlock),
		ctx:             ctx,
		cancel:          cancel,
		backoffDuration: time.Second * 5, // 初始退避时间5秒
	}, nil
}

// Start 启动监控
func (m *EventMonitor) Start() error {
	logger.Info("Starting blockchain event monitor")

	// 检查RPC连接
	currentBlock, err := m.ethClient.GetLatestBlock(m.ctx)
	if err != nil {
		return err
	}
	logger.Info("Connected to blockchain, current block: %d", currentBlock)

	m.mu.Lock()
	if m.startBlockNum == 0 {
		m.startBlockNum = currentBlock
	}
	startBlock := m.startBlockNum
	m.mu.Unlock()

	logger.Info("Starting monitor from block %d", startBlock)

	go m.loop()

	return nil
}

// Stop 停止监控
func (m *EventMonitor) Stop() {
	logger.Info("Stopping blockchain event monitor")
	m.cancel()
	m.pool.Release()
}

// loop 监控循环
func (m *EventMonitor) loop() {
	ticker := time.NewTicker(time.Duration(m.config.Task.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Monitor stopped")
			return
		case <-ticker.C:
			currentBlock, err := m.ethClient.GetLatestBlock(m.ctx)
			if err != nil {
				logger.Error("Failed to get current block number: %v", err)
				m.handleError()
				continue
			}

			addresses, err := m.watchedAddresses()
			if err != nil {
				logger.Error("Failed to collect watched addresses: %v", err)
				continue
			}
			if len(addresses) == 0 {
				logger.Debug("No contracts to monitor yet")
				continue
			}

			m.mu.RLock()
			fromBlock := m.startBlockNum
			m.mu.RUnlock()

			if fromBlock > currentBlock {
				continue
			}

			if err := m.processBlocksInBatches(addresses, fromBlock, currentBlock); err != nil {
				logger.Error("Error processing blocks: %v", err)
				m.handleError()
				continue
			}

			m.mu.Lock()
			m.startBlockNum = currentBlock + 1
			m.mu.Unlock()
			m.resetBackoff()
		}
	}
}

// watchedAddresses 需要监控的合约地址：工厂 + 所有已上链项目
func (m *EventMonitor) watchedAddresses() ([]common.Address, error) {
	addresses := []common.Address{common.HexToAddress(m.config.Chain.FactoryAddr)}

	contracts, err := m.projectLogic.ActiveContractAddresses()
	if err != nil {
		return nil, err
	}
	for _, addr := range contracts {
		addresses = append(addresses, common.HexToAddress(addr))
	}

	return addresses, nil
}

// processBlocksInBatches 分批扫描区块日志
func (m *EventMonitor) processBlocksInBatches(addresses []common.Address, fromBlock, toBlock uint64) error {
	factoryAddr := common.HexToAddress(m.config.Chain.FactoryAddr)

	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += batchSize {
		currentTo := currentFrom + batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		logs, err := m.ethClient.GetLogs(m.ctx, currentFrom, currentTo, addresses)
		if err != nil {
			return err
		}

		var wg sync.WaitGroup
		for _, lg := range logs {
			lg := lg
			wg.Add(1)
			err := m.pool.Submit(func() {
				defer wg.Done()
				m.dispatchLog(factoryAddr, lg)
			})
			if err != nil {
				wg.Done()
				logger.Error("Failed to submit log to worker pool: %v", err)
			}
		}
		wg.Wait()
	}

	return nil
}

// dispatchLog 按来源合约分发日志
func (m *EventMonitor) dispatchLog(factoryAddr common.Address, lg types.Log) {
	var err error
	if lg.Address == factoryAddr {
		err = m.eventProcessor.ProcessFactoryLog(lg)
	} else {
		err = m.eventProcessor.ProcessFairSharingLog(lg)
	}
	if err != nil {
		logger.Error("Failed to process log %s/%d: %v", lg.TxHash.Hex(), lg.Index, err)
	}
}

// handleError 指数退避
func (m *EventMonitor) handleError() {
	m.retryCount++
	backoff := m.backoffDuration * time.Duration(1<<uint(m.retryCount-1))
	if backoff > time.Minute*5 {
		backoff = time.Minute * 5
	}
	logger.Warn("Monitor backing off for %s (retry %d)", backoff, m.retryCount)

	select {
	case <-m.ctx.Done():
	case <-time.After(backoff):
	}
}

// resetBackoff 扫描成功后重置退避状态
func (m *EventMonitor) resetBackoff() {
	m.retryCount = 0
}
