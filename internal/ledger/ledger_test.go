package ledger

import (
	"fmt"
	"testing"

	"github.com/blues/fss/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testContract = "0x5d28D141Ca3d3A1CAB83b909098522F9b91309F7"

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.ContributionRecord{}, &model.VoteDecision{}))

	return New(db)
}

func openSession(t *testing.T) *Session {
	t.Helper()
	sess := NewSession()
	require.NoError(t, sess.Open(testIdentity))
	return sess
}

func newTestRecord(t *testing.T, l *Ledger, sess *Session) *model.ContributionRecord {
	t.Helper()
	record := &model.ContributionRecord{
		Contract:     testContract,
		User:         testIdentity.Hex(),
		Contribution: "implemented the claim flow",
		Point:        decimal.RequireFromString("30"),
	}
	require.NoError(t, l.AddRecord(sess, record))
	return record
}

func newTestDecision(voter string) *model.VoteDecision {
	return &model.VoteDecision{
		Voter:     voter,
		Approve:   true,
		Signature: []byte("sig-" + voter),
	}
}

func TestAddRecord(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)

	record := newTestRecord(t, l, sess)
	assert.NotZero(t, record.ID)
	assert.NotEmpty(t, record.Uid)
	assert.Equal(t, model.RecordStatusPending, record.Status)
	assert.Equal(t, int64(0), record.Version)
	assert.Empty(t, record.Votes)
}

func TestAddRecordRequiresSession(t *testing.T) {
	l := newTestLedger(t)

	record := &model.ContributionRecord{
		Contract: testContract,
		User:     testIdentity.Hex(),
		Point:    decimal.RequireFromString("1"),
	}
	assert.ErrorIs(t, l.AddRecord(nil, record), ErrStoreUninitialized)
	assert.ErrorIs(t, l.AddRecord(NewSession(), record), ErrStoreUninitialized)

	closed := openSession(t)
	closed.Close()
	assert.ErrorIs(t, l.AddRecord(closed, record), ErrStoreUninitialized)
}

func TestAddRecordValidation(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)

	assert.Error(t, l.AddRecord(sess, nil))
	assert.Error(t, l.AddRecord(sess, &model.ContributionRecord{User: "x", Point: decimal.NewFromInt(1)}))
	assert.Error(t, l.AddRecord(sess, &model.ContributionRecord{Contract: testContract, Point: decimal.NewFromInt(1)}))
	assert.Error(t, l.AddRecord(sess, &model.ContributionRecord{
		Contract: testContract,
		User:     "x",
		Point:    decimal.NewFromInt(-1),
	}))
}

func TestListRecordsWithoutSession(t *testing.T) {
	l := newTestLedger(t)

	// 会话未建立时返回空序列，不报错
	records, err := l.ListRecords(nil, testContract)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = l.ListRecords(NewSession(), testContract)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListRecordsScopedByContract(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)

	first := newTestRecord(t, l, sess)
	second := newTestRecord(t, l, sess)

	other := &model.ContributionRecord{
		Contract: "0x0000000000000000000000000000000000000001",
		User:     testIdentity.Hex(),
		Point:    decimal.RequireFromString("1"),
	}
	require.NoError(t, l.AddRecord(sess, other))

	records, err := l.ListRecords(sess, testContract)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)

	records, err = l.ListRecords(sess, "0x0000000000000000000000000000000000000002")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppendVote(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	require.NoError(t, l.AppendVote(sess, record.ID, newTestDecision("0xv1")))
	require.NoError(t, l.AppendVote(sess, record.ID, newTestDecision("0xv2")))

	got, err := l.GetRecord(sess, record.ID)
	require.NoError(t, err)
	require.Len(t, got.Votes, 2)
	assert.Equal(t, "0xv1", got.Votes[0].Voter)
	assert.Equal(t, "0xv2", got.Votes[1].Voter)
	assert.Equal(t, int64(2), got.Version)

	// 先前追加的投票保持不变
	assert.Equal(t, []byte("sig-0xv1"), got.Votes[0].Signature)
}

func TestAppendVoteDuplicateVoter(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	require.NoError(t, l.AppendVote(sess, record.ID, newTestDecision("0xv1")))

	dup := newTestDecision("0xv1")
	dup.Approve = false
	assert.ErrorIs(t, l.AppendVote(sess, record.ID, dup), ErrAlreadyVoted)

	got, err := l.GetRecord(sess, record.ID)
	require.NoError(t, err)
	require.Len(t, got.Votes, 1)
	assert.True(t, got.Votes[0].Approve)
}

func TestAppendVoteMissingRecord(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)

	assert.ErrorIs(t, l.AppendVote(sess, 999, newTestDecision("0xv1")), ErrRecordNotFound)
}

func TestAppendVoteRejectsInvalidDecision(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	assert.Error(t, l.AppendVote(sess, record.ID, nil))
	assert.Error(t, l.AppendVote(sess, record.ID, &model.VoteDecision{Approve: true, Signature: []byte("sig")}))
	assert.Error(t, l.AppendVote(sess, record.ID, &model.VoteDecision{Voter: "0xv1"}))
}

func TestAppendVoteOnClaimedRecord(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	require.NoError(t, l.MarkClaimed(sess, record.ID, "0xtx"))
	assert.ErrorIs(t, l.AppendVote(sess, record.ID, newTestDecision("0xv1")), ErrRecordClaimed)
}

func TestAppendVoteAfterConcurrentBump(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	// 并发方抢先推进了版本号：追加基于当前版本CAS，不会覆盖对方的推进
	require.NoError(t, l.db.Model(&model.ContributionRecord{}).
		Where("id = ?", record.ID).
		Update("version", record.Version+1).Error)

	require.NoError(t, l.AppendVote(sess, record.ID, newTestDecision("0xv1")))

	got, err := l.GetRecord(sess, record.ID)
	require.NoError(t, err)
	require.Len(t, got.Votes, 1)
	assert.Equal(t, int64(2), got.Version)
}

func TestMarkClaimed(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	require.NoError(t, l.AppendVote(sess, record.ID, newTestDecision("0xv1")))
	require.NoError(t, l.MarkClaimed(sess, record.ID, "0xtx1"))

	got, err := l.GetRecord(sess, record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusClaimed, got.Status)
	assert.Equal(t, "0xtx1", got.TxHash)
	assert.Equal(t, int64(2), got.Version)

	// 状态单向：重复调用不覆盖交易哈希
	require.NoError(t, l.MarkClaimed(sess, record.ID, "0xtx2"))

	got, err = l.GetRecord(sess, record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusClaimed, got.Status)
	assert.Equal(t, "0xtx1", got.TxHash)
}

func TestMarkClaimedAfterConcurrentBump(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	// 并发方抢先推进了版本号：结算基于当前版本CAS，版本号不回退
	require.NoError(t, l.db.Model(&model.ContributionRecord{}).
		Where("id = ?", record.ID).
		Update("version", record.Version+1).Error)

	require.NoError(t, l.MarkClaimed(sess, record.ID, "0xtx"))

	got, err := l.GetRecord(sess, record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusClaimed, got.Status)
	assert.Equal(t, "0xtx", got.TxHash)
	assert.Equal(t, int64(2), got.Version)
}

func TestMarkClaimedConcurrentClaimKeepsFirstTxHash(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)
	record := newTestRecord(t, l, sess)

	// 已结算的记录对后续结算是no-op，即使版本号被单独推进过
	require.NoError(t, l.MarkClaimed(sess, record.ID, "0xtx1"))
	require.NoError(t, l.db.Model(&model.ContributionRecord{}).
		Where("id = ?", record.ID).
		Update("version", gorm.Expr("version + 1")).Error)
	require.NoError(t, l.MarkClaimed(sess, record.ID, "0xtx2"))

	got, err := l.GetRecord(sess, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "0xtx1", got.TxHash)
}

func TestMarkClaimedMissingRecord(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)

	assert.ErrorIs(t, l.MarkClaimed(sess, 999, "0xtx"), ErrRecordNotFound)
}

func TestRecordUidsUnique(t *testing.T) {
	l := newTestLedger(t)
	sess := openSession(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		record := &model.ContributionRecord{
			Contract: testContract,
			User:     fmt.Sprintf("0x%040d", i),
			Point:    decimal.RequireFromString("1"),
		}
		require.NoError(t, l.AddRecord(sess, record))
		assert.False(t, seen[record.Uid], "duplicate uid %s", record.Uid)
		seen[record.Uid] = true
	}
}
