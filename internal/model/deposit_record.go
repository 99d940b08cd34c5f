package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DepositRecord 注资记录，来自链上Sharing事件
type DepositRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Contract string          `json:"contract" gorm:"not null;index"`          // FairSharing合约地址
	Address  string          `json:"address" gorm:"not null"`                 // 注资人地址
	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(38,0)"`        // wei
	TxHash   string          `json:"tx_hash" gorm:"uniqueIndex:idx_dep_log"`  //
	LogIndex uint            `json:"log_index" gorm:"uniqueIndex:idx_dep_log"`
	BlockNum uint64          `json:"block_num"`
}

// TableName 自定义表名
func (DepositRecord) TableName() string {
	return "deposit_record"
}
