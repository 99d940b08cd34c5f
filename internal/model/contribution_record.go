package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContributionRecord 贡献记录
type ContributionRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Uid          string          `json:"uid" gorm:"not null;uniqueIndex"` // 不透明记录标识，摘要计算时取其哈希
	Contract     string          `json:"contract" gorm:"not null;index"`  // 所属FairSharing合约地址
	User         string          `json:"user" gorm:"not null"`            // 贡献者地址，结算时的领取人
	Contribution string          `json:"contribution" gorm:"type:text"`   // 贡献描述
	Point        decimal.Decimal `json:"point" gorm:"type:decimal(38,18);not null"`

	Status  RecordStatus `json:"status" gorm:"default:'pending'"`
	Version int64        `json:"version" gorm:"not null;default:0"` // 乐观锁版本号
	TxHash  string       `json:"tx_hash"`                           // 结算交易哈希

	// 关联
	Votes []VoteDecision `json:"votes,omitempty" gorm:"foreignKey:RecordID"`
}

// RecordStatus 贡献记录状态，单向：pending -> claimed
type RecordStatus string

const (
	RecordStatusPending RecordStatus = "pending" // 待结算
	RecordStatusClaimed RecordStatus = "claimed" // 已结算
)

// VoteDecision 单个投票人对一条贡献记录的签名决定，追加后不可修改
type VoteDecision struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	RecordID  uint   `json:"record_id" gorm:"not null;uniqueIndex:idx_record_voter"`
	Voter     string `json:"voter" gorm:"not null;uniqueIndex:idx_record_voter"` // 投票人地址
	Approve   bool   `json:"approve"`                                            // 是否赞成
	Signature []byte `json:"signature" gorm:"not null"`                          // 对摘要的签名
}

// TableName 自定义表名
func (VoteDecision) TableName() string {
	return "vote_decision"
}
