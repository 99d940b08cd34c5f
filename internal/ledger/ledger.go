package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/fss/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound 贡献记录不存在
	ErrRecordNotFound = errors.New("contribution record not found")
	// ErrRecordClaimed 记录已结算，不再接受投票
	ErrRecordClaimed = errors.New("contribution record already claimed")
	// ErrAlreadyVoted 同一投票人对同一记录只能有一个决定
	ErrAlreadyVoted = errors.New("voter already has a decision on this record")
	// ErrUpdateConflict 并发更新冲突，重试次数耗尽
	ErrUpdateConflict = errors.New("ledger update conflicted with concurrent writes")
)

// errVersionConflict CAS版本号不匹配，触发重试
var errVersionConflict = errors.New("record version conflict")

// appendRetries 版本冲突时的最大重试次数
const appendRetries = 3

// Ledger 贡献记录账本，按FairSharing合约地址划分。
// 投票以独立行追加，记录上的版本号做乐观并发控制，
// 并发追加互不覆盖
type Ledger struct {
	db *gorm.DB
}

// New 创建账本
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// ListRecords 查询某个合约下的全部贡献记录。
// 会话未建立或项目没有记录时返回空序列而不是错误
func (l *Ledger) ListRecords(sess *Session, contract string) ([]model.ContributionRecord, error) {
	if sess == nil || !sess.IsOpen() {
		return []model.ContributionRecord{}, nil
	}

	records := []model.ContributionRecord{}
	err := l.db.Preload("Votes", func(db *gorm.DB) *gorm.DB {
		return db.Order("vote_decision.id ASC")
	}).
		Where("contract = ?", contract).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}

// GetRecord 获取单条贡献记录（含投票）
func (l *Ledger) GetRecord(sess *Session, recordID uint) (*model.ContributionRecord, error) {
	if _, err := requireSession(sess); err != nil {
		return nil, err
	}

	var record model.ContributionRecord
	err := l.db.Preload("Votes", func(db *gorm.DB) *gorm.DB {
		return db.Order("vote_decision.id ASC")
	}).First(&record, recordID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	return &record, nil
}

// AddRecord 新增贡献记录，初始状态pending、无投票
func (l *Ledger) AddRecord(sess *Session, record *model.ContributionRecord) error {
	if _, err := requireSession(sess); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	record.Uid = newRecordUid(record.Contract, record.User)
	record.Status = model.RecordStatusPending
	record.Version = 0
	record.Votes = nil
	record.TxHash = ""

	if err := l.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	return nil
}

// AppendVote 为记录追加一个投票决定。
// 版本号CAS失败说明有并发追加，重新加载后重试，不会丢失投票
func (l *Ledger) AppendVote(sess *Session, recordID uint, decision *model.VoteDecision) error {
	if _, err := requireSession(sess); err != nil {
		return err
	}
	if decision == nil || decision.Voter == "" {
		return errors.New("vote decision requires a voter")
	}
	if len(decision.Signature) == 0 {
		return errors.New("vote decision requires a signature")
	}

	for attempt := 0; attempt < appendRetries; attempt++ {
		err := l.tryAppendVote(recordID, decision)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return err
	}

	return ErrUpdateConflict
}

// tryAppendVote 单次追加尝试
func (l *Ledger) tryAppendVote(recordID uint, decision *model.VoteDecision) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var record model.ContributionRecord
		if err := tx.First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to load record: %w", err)
		}

		if record.Status == model.RecordStatusClaimed {
			return ErrRecordClaimed
		}

		var count int64
		if err := tx.Model(&model.VoteDecision{}).
			Where("record_id = ? AND voter = ?", recordID, decision.Voter).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing decision: %w", err)
		}
		if count > 0 {
			return ErrAlreadyVoted
		}

		res := tx.Model(&model.ContributionRecord{}).
			Where("id = ? AND version = ?", recordID, record.Version).
			Update("version", record.Version+1)
		if res.Error != nil {
			return fmt.Errorf("failed to bump record version: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		decision.ID = 0
		decision.RecordID = recordID
		if err := tx.Create(decision).Error; err != nil {
			return fmt.Errorf("failed to append vote: %w", err)
		}

		return nil
	})
}

// MarkClaimed 将记录置为已结算。状态单向，重复调用不产生额外效果
func (l *Ledger) MarkClaimed(sess *Session, recordID uint, txHash string) error {
	if _, err := requireSession(sess); err != nil {
		return err
	}

	for attempt := 0; attempt < appendRetries; attempt++ {
		err := l.tryMarkClaimed(recordID, txHash)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return err
	}

	return ErrUpdateConflict
}

// tryMarkClaimed 单次结算尝试。与AppendVote相同的版本号CAS，
// 并发追加或并发结算交错时版本号不会回退、交易哈希不会被覆盖
func (l *Ledger) tryMarkClaimed(recordID uint, txHash string) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var record model.ContributionRecord
		if err := tx.First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to load record: %w", err)
		}

		if record.Status == model.RecordStatusClaimed {
			return nil
		}

		res := tx.Model(&model.ContributionRecord{}).
			Where("id = ? AND version = ? AND status = ?", recordID, record.Version, model.RecordStatusPending).
			Updates(map[string]interface{}{
				"status":  model.RecordStatusClaimed,
				"tx_hash": txHash,
				"version": record.Version + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark record claimed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		return nil
	})
}

// requireSession 写操作要求会话已打开
func requireSession(sess *Session) (string, error) {
	if sess == nil {
		return "", ErrStoreUninitialized
	}
	identity, err := sess.Identity()
	if err != nil {
		return "", err
	}
	return identity.Hex(), nil
}

// validateRecord 校验新增记录
func validateRecord(record *model.ContributionRecord) error {
	if record == nil {
		return errors.New("record must not be nil")
	}
	if record.Contract == "" {
		return errors.New("record requires a contract address")
	}
	if record.User == "" {
		return errors.New("record requires a contributor address")
	}
	if record.Point.IsNegative() {
		return errors.New("record point must not be negative")
	}
	return nil
}

// newRecordUid 生成不透明记录标识
func newRecordUid(contract, user string) string {
	return fmt.Sprintf("%s:%s:%d", strings.ToLower(contract), strings.ToLower(user), time.Now().UnixNano())
}
