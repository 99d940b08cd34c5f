package monitor

import (
	"math/big"
	"testing"

	"github.com/blues/fss/internal/contract"
	"github.com/blues/fss/internal/model"
	"github.com/blues/fss/internal/signing"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	instanceAddr = common.HexToAddress("0x5d28D141Ca3d3A1CAB83b909098522F9b91309F7")
	factoryAddr  = common.HexToAddress("0xC2eF246f9dF2B6CEe07f5dCb561Aa10eDdC8d1F2")
	userAddr     = common.HexToAddress("0xA0Cf024D03D05169b3fc3728F5EE3c8a684ca6a5")
)

func newTestProcessor(t *testing.T) (*EventProcessor, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.ContributionRecord{}, &model.VoteDecision{},
		&model.DepositRecord{}, &model.ChainEvent{},
	))

	return NewEventProcessor(db), db
}

func fairSharingEvent(t *testing.T, name string) abi.Event {
	t.Helper()
	fs, err := contract.NewFairSharing(nil, instanceAddr)
	require.NoError(t, err)
	event, ok := fs.ABI().Events[name]
	require.True(t, ok)
	return event
}

func sharingLog(t *testing.T, amount *big.Int, logIndex uint) types.Log {
	t.Helper()
	event := fairSharingEvent(t, "Sharing")

	data, err := event.Inputs.NonIndexed().Pack(amount)
	require.NoError(t, err)

	return types.Log{
		Address:     instanceAddr,
		Topics:      []common.Hash{event.ID, userAddr.Hash()},
		Data:        data,
		TxHash:      common.HexToHash("0xaaa"),
		Index:       logIndex,
		BlockNumber: 100,
	}
}

func claimedLog(t *testing.T, contributionId common.Hash) types.Log {
	t.Helper()
	event := fairSharingEvent(t, "Claimed")

	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(5))
	require.NoError(t, err)

	return types.Log{
		Address:     instanceAddr,
		Topics:      []common.Hash{event.ID, userAddr.Hash(), contributionId},
		Data:        data,
		TxHash:      common.HexToHash("0xbbb"),
		Index:       0,
		BlockNumber: 101,
	}
}

func TestProcessSharingLog(t *testing.T) {
	p, db := newTestProcessor(t)

	lg := sharingLog(t, big.NewInt(1_000_000), 0)
	require.NoError(t, p.ProcessFairSharingLog(lg))

	var deposits []model.DepositRecord
	require.NoError(t, db.Find(&deposits).Error)
	require.Len(t, deposits, 1)
	assert.Equal(t, instanceAddr.Hex(), deposits[0].Contract)
	assert.Equal(t, userAddr.Hex(), deposits[0].Address)
	assert.True(t, deposits[0].Amount.Equal(decimal.NewFromInt(1_000_000)))

	var events []model.ChainEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "Sharing", events[0].EventType)
}

func TestProcessSharingLogIdempotent(t *testing.T) {
	p, db := newTestProcessor(t)

	lg := sharingLog(t, big.NewInt(42), 3)
	require.NoError(t, p.ProcessFairSharingLog(lg))
	// 批量扫描重叠时同一日志可能被处理两次
	require.NoError(t, p.ProcessFairSharingLog(lg))

	var depositCount, eventCount int64
	require.NoError(t, db.Model(&model.DepositRecord{}).Count(&depositCount).Error)
	require.NoError(t, db.Model(&model.ChainEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), depositCount)
	assert.Equal(t, int64(1), eventCount)
}

func TestProcessClaimedReconcilesRecord(t *testing.T) {
	p, db := newTestProcessor(t)

	record := model.ContributionRecord{
		Uid:      "uid-1",
		Contract: instanceAddr.Hex(),
		User:     userAddr.Hex(),
		Point:    decimal.NewFromInt(1),
		Status:   model.RecordStatusPending,
	}
	require.NoError(t, db.Create(&record).Error)

	other := model.ContributionRecord{
		Uid:      "uid-2",
		Contract: instanceAddr.Hex(),
		User:     userAddr.Hex(),
		Point:    decimal.NewFromInt(2),
		Status:   model.RecordStatusPending,
	}
	require.NoError(t, db.Create(&other).Error)

	lg := claimedLog(t, signing.HashRecordID("uid-1"))
	require.NoError(t, p.ProcessFairSharingLog(lg))

	var got model.ContributionRecord
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, model.RecordStatusClaimed, got.Status)
	assert.Equal(t, lg.TxHash.Hex(), got.TxHash)
	assert.Equal(t, int64(1), got.Version)

	// 其他pending记录不受影响
	require.NoError(t, db.First(&got, other.ID).Error)
	assert.Equal(t, model.RecordStatusPending, got.Status)
}

func TestProcessClaimedWithoutMatch(t *testing.T) {
	p, db := newTestProcessor(t)

	lg := claimedLog(t, signing.HashRecordID("unknown-uid"))
	require.NoError(t, p.ProcessFairSharingLog(lg))

	var count int64
	require.NoError(t, db.Model(&model.ContributionRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessFactoryLog(t *testing.T) {
	p, db := newTestProcessor(t)

	f, err := contract.NewFactory(nil, factoryAddr)
	require.NoError(t, err)
	createdID := f.ABI().Events["FairSharingCreated"].ID

	lg := types.Log{
		Address:     factoryAddr,
		Topics:      []common.Hash{createdID, instanceAddr.Hash(), userAddr.Hash()},
		TxHash:      common.HexToHash("0xccc"),
		BlockNumber: 99,
	}
	require.NoError(t, p.ProcessFactoryLog(lg))

	var events []model.ChainEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "FairSharingCreated", events[0].EventType)
	assert.Equal(t, factoryAddr.Hex(), events[0].Contract)
}

func TestProcessUnknownLogIgnored(t *testing.T) {
	p, db := newTestProcessor(t)

	lg := types.Log{
		Address: instanceAddr,
		Topics:  []common.Hash{common.HexToHash("0xdead")},
	}
	require.NoError(t, p.ProcessFairSharingLog(lg))

	var count int64
	require.NoError(t, db.Model(&model.ChainEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}
