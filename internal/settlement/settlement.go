package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/blues/fss/internal/contract"
	"github.com/blues/fss/internal/ethereum"
	"github.com/blues/fss/internal/ledger"
	"github.com/blues/fss/internal/logger"
	"github.com/blues/fss/internal/model"
	"github.com/blues/fss/internal/signing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrTransactionFailed 结算交易未成功完成（网络拒绝或合约revert），账本保持不变
var ErrTransactionFailed = errors.New("settlement transaction failed")

// Settler 链上结算能力抽象
type Settler interface {
	Claim(ctx context.Context, contractAddr common.Address, contributionId common.Hash, amountWei *big.Int, votes []contract.VoteInput) (common.Hash, error)
}

// ContractSettler 通过FairSharing合约执行结算
type ContractSettler struct {
	eth *ethereum.Client
}

// NewContractSettler 创建合约结算器
func NewContractSettler(eth *ethereum.Client) *ContractSettler {
	return &ContractSettler{eth: eth}
}

// Claim 提交claim交易并等待上链
func (s *ContractSettler) Claim(ctx context.Context, contractAddr common.Address, contributionId common.Hash, amountWei *big.Int, votes []contract.VoteInput) (common.Hash, error) {
	fairSharing, err := contract.NewFairSharing(s.eth.Raw(), contractAddr)
	if err != nil {
		return common.Hash{}, err
	}

	auth, err := s.eth.GetAuth(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := fairSharing.Claim(auth, contributionId, amountWei, votes)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	receipt, err := s.eth.WaitMined(ctx, tx)
	if err != nil {
		return tx.Hash(), fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), fmt.Errorf("%w: transaction %s reverted", ErrTransactionFailed, tx.Hash().Hex())
	}

	return tx.Hash(), nil
}

// Service 结算服务：组装累积的投票签名提交链上结算，
// 交易确认成功之后才更新账本状态。签名有效性与通过阈值
// 均由合约校验，本层不做任何本地授权判断
type Service struct {
	ledger  *ledger.Ledger
	settler Settler
}

// NewService 创建结算服务
func NewService(l *ledger.Ledger, settler Settler) *Service {
	return &Service{ledger: l, settler: settler}
}

// Claim 结算一条贡献记录
func (s *Service) Claim(ctx context.Context, sess *ledger.Session, recordID uint) (*model.ContributionRecord, error) {
	record, err := s.ledger.GetRecord(sess, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status == model.RecordStatusClaimed {
		return nil, ledger.ErrRecordClaimed
	}

	amountWei, err := signing.PointToWei(record.Point)
	if err != nil {
		return nil, err
	}

	votes := make([]contract.VoteInput, 0, len(record.Votes))
	for _, v := range record.Votes {
		votes = append(votes, contract.VoteInput{
			Voter:     common.HexToAddress(v.Voter),
			Approve:   v.Approve,
			Signature: v.Signature,
		})
	}

	contributionId := signing.HashRecordID(record.Uid)
	txHash, err := s.settler.Claim(ctx, common.HexToAddress(record.Contract), contributionId, amountWei, votes)
	if err != nil {
		logger.Error("Claim failed for record %d: %v", recordID, err)
		return nil, err
	}

	// 结算交易确认成功之后才落账
	if err := s.ledger.MarkClaimed(sess, recordID, txHash.Hex()); err != nil {
		return nil, fmt.Errorf("claim succeeded (tx %s) but ledger update failed: %w", txHash.Hex(), err)
	}

	logger.Info("Record %d claimed, tx: %s", recordID, txHash.Hex())

	return s.ledger.GetRecord(sess, recordID)
}
