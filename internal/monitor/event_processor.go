package monitor

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/blues/fss/internal/contract"
	"github.com/blues/fss/internal/logger"
	"github.com/blues/fss/internal/model"
	"github.com/blues/fss/internal/signing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventProcessor 事件处理器，将链上事件落库并对账
type EventProcessor struct {
	db *gorm.DB
}

// NewEventProcessor 创建事件处理器
func NewEventProcessor(db *gorm.DB) *EventProcessor {
	return &EventProcessor{db: db}
}

// ProcessFactoryLog 处理工厂合约日志
func (p *EventProcessor) ProcessFactoryLog(lg types.Log) error {
	eventName, params, err := contract.ParseFactoryLog(lg)
	if err != nil {
		logger.Debug("Skipping unrecognized factory log %s/%d: %v", lg.TxHash.Hex(), lg.Index, err)
		return nil
	}

	if err := p.saveEvent(lg, eventName, params); err != nil {
		return err
	}

	if eventName == "FairSharingCreated" {
		if addr, ok := params["fairSharing"].(common.Address); ok {
			logger.Info("FairSharing instance created on-chain: %s", addr.Hex())
		}
	}

	return nil
}

// ProcessFairSharingLog 处理FairSharing实例日志
func (p *EventProcessor) ProcessFairSharingLog(lg types.Log) error {
	eventName, params, err := contract.ParseFairSharingLog(lg)
	if err != nil {
		logger.Debug("Skipping unrecognized log %s/%d: %v", lg.TxHash.Hex(), lg.Index, err)
		return nil
	}

	if err := p.saveEvent(lg, eventName, params); err != nil {
		return err
	}

	switch eventName {
	case "Sharing":
		return p.processSharing(lg, params)
	case "Claimed":
		return p.processClaimed(lg, params)
	}

	return nil
}

// saveEvent 幂等落库事件记录
func (p *EventProcessor) saveEvent(lg types.Log, eventName string, params map[string]interface{}) error {
	data, err := json.Marshal(stringifyParams(params))
	if err != nil {
		return fmt.Errorf("failed to encode event params: %w", err)
	}

	event := model.ChainEvent{
		Contract:  lg.Address.Hex(),
		EventType: eventName,
		TxHash:    lg.TxHash.Hex(),
		LogIndex:  lg.Index,
		BlockNum:  lg.BlockNumber,
		Data:      string(data),
	}

	err = p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&event).Error
	if err != nil {
		return fmt.Errorf("failed to save chain event: %w", err)
	}

	return nil
}

// processSharing 记录链上注资
func (p *EventProcessor) processSharing(lg types.Log, params map[string]interface{}) error {
	user, ok := params["user"].(common.Address)
	if !ok {
		return fmt.Errorf("sharing event missing user")
	}

	amount := decimal.Zero
	if raw, ok := params["amount"].(*big.Int); ok {
		amount = decimal.NewFromBigInt(raw, 0)
	}

	deposit := model.DepositRecord{
		Contract: lg.Address.Hex(),
		Address:  user.Hex(),
		Amount:   amount,
		TxHash:   lg.TxHash.Hex(),
		LogIndex: lg.Index,
		BlockNum: lg.BlockNumber,
	}

	err := p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&deposit).Error
	if err != nil {
		return fmt.Errorf("failed to save deposit record: %w", err)
	}

	return nil
}

// processClaimed 按链上Claimed事件对账。
// 结算交易也可能由外部钱包直接发起，不经过本服务的claim接口，
// 因此用contributionId反查pending记录并补记状态
func (p *EventProcessor) processClaimed(lg types.Log, params map[string]interface{}) error {
	contributionId, ok := params["contributionId"].(common.Hash)
	if !ok {
		return fmt.Errorf("claimed event missing contributionId")
	}

	var records []model.ContributionRecord
	err := p.db.Where("contract = ? AND status = ?", lg.Address.Hex(), model.RecordStatusPending).
		Find(&records).Error
	if err != nil {
		return fmt.Errorf("failed to load pending records: %w", err)
	}

	for _, record := range records {
		if signing.HashRecordID(record.Uid) != contributionId {
			continue
		}

		updates := map[string]interface{}{
			"status":  model.RecordStatusClaimed,
			"tx_hash": lg.TxHash.Hex(),
			"version": record.Version + 1,
		}
		if err := p.db.Model(&record).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to reconcile claimed record %d: %w", record.ID, err)
		}

		logger.Info("Reconciled record %d as claimed from tx %s", record.ID, lg.TxHash.Hex())
		return nil
	}

	logger.Warn("Claimed event %s has no matching pending record", contributionId.Hex())
	return nil
}

// stringifyParams 将事件参数转换为可JSON化的形式
func stringifyParams(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		switch value := v.(type) {
		case *big.Int:
			out[k] = value.String()
		case common.Address:
			out[k] = value.Hex()
		case common.Hash:
			out[k] = value.Hex()
		case []byte:
			out[k] = common.Bytes2Hex(value)
		default:
			out[k] = value
		}
	}
	return out
}
