package signing

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/fss/internal/model"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrSignerUnavailable 没有可用的签名器（未配置私钥或签名服务未连接）
	ErrSignerUnavailable = errors.New("signer unavailable")
	// ErrSigningRejected 签名持有者拒绝签名
	ErrSigningRejected = errors.New("signing rejected by key holder")
)

// Signer 签名能力抽象
type Signer interface {
	Address() common.Address
	SignDigest(digest common.Hash) ([]byte, error)
}

// KeyedSigner 基于本地ECDSA私钥的签名器，
// 采用EIP-191 personal-sign前缀，v为27/28，与合约端ecrecover一致
type KeyedSigner struct {
	key *ecdsa.PrivateKey
}

// NewKeyedSigner 从十六进制私钥创建签名器
func NewKeyedSigner(hexKey string) (*KeyedSigner, error) {
	if hexKey == "" {
		return nil, ErrSignerUnavailable
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &KeyedSigner{key: key}, nil
}

// Address 获取签名器对应的账户地址
func (s *KeyedSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignDigest 对摘要做personal-sign签名
func (s *KeyedSigner) SignDigest(digest common.Hash) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, ErrSignerUnavailable
	}

	sig, err := crypto.Sign(accounts.TextHash(digest.Bytes()), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}

	// crypto.Sign返回v为0/1，链上校验要求27/28
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignDecision 构造摘要并签名，返回可追加到账本的投票决定
func SignDecision(signer Signer, claimant common.Address, recordUid string, approve bool, amountWei *big.Int) (*model.VoteDecision, error) {
	if signer == nil {
		return nil, ErrSignerUnavailable
	}

	digest := BuildDigest(claimant, recordUid, signer.Address(), approve, amountWei)
	sig, err := signer.SignDigest(digest)
	if err != nil {
		if errors.Is(err, ErrSigningRejected) || errors.Is(err, ErrSignerUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to sign decision: %w", err)
	}

	return &model.VoteDecision{
		Voter:     signer.Address().Hex(),
		Approve:   approve,
		Signature: sig,
	}, nil
}
