package model

import (
	"time"

	"gorm.io/gorm"
)

// ChainEvent 链上事件记录
type ChainEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Contract  string `json:"contract" gorm:"index"`                    // 事件来源合约地址
	EventType string `json:"event_type" gorm:"not null"`               // FairSharingCreated, Claimed, Sharing
	TxHash    string `json:"tx_hash" gorm:"not null;uniqueIndex:idx_event_log"`
	LogIndex  uint   `json:"log_index" gorm:"uniqueIndex:idx_event_log"`
	BlockNum  uint64 `json:"block_num" gorm:"not null"`
	Data      string `json:"data" gorm:"type:text"` // JSON编码的事件参数
	Processed bool   `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (ChainEvent) TableName() string {
	return "chain_event"
}
