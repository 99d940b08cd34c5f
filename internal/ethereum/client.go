package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/fss/internal/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client 以太坊客户端封装
type Client struct {
	client        *ethclient.Client
	privateKey    *ecdsa.PrivateKey
	chainId       *big.Int
	confirmations int
}

func Init(cfg config.ChainConfig) (*Client, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥。未配置私钥时客户端只读，发交易的接口返回错误
	var privateKey *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}

	return &Client{
		client:        client,
		privateKey:    privateKey,
		chainId:       big.NewInt(cfg.ChainId),
		confirmations: cfg.Confirmations,
	}, nil
}

// Raw 获取底层ethclient
func (c *Client) Raw() *ethclient.Client {
	return c.client
}

// ChainId 获取链ID
func (c *Client) ChainId() *big.Int {
	return new(big.Int).Set(c.chainId)
}

// GetAccountAddress 获取账户地址
func (c *Client) GetAccountAddress() common.Address {
	if c.privateKey == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}

// GetAuth 获取交易授权
func (c *Client) GetAuth(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privateKey == nil {
		return nil, fmt.Errorf("no private key configured")
	}
	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainId)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx
	return auth, nil
}

// GetLatestBlock 获取最新区块号
func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// GetLogs 获取指定区块范围内指定合约的日志
func (c *Client) GetLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}

	return c.client.FilterLogs(ctx, query)
}

// WaitMined 等待交易上链并返回回执
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}

// GetTransactionReceipt 获取交易回执
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.client.TransactionReceipt(ctx, txHash)
}

// IsTransactionConfirmed 检查交易是否已达到确认区块数
func (c *Client) IsTransactionConfirmed(ctx context.Context, txHash common.Hash) (bool, error) {
	receipt, err := c.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return false, err
	}
	if receipt == nil {
		return false, nil
	}

	latestBlock, err := c.GetLatestBlock(ctx)
	if err != nil {
		return false, err
	}

	return latestBlock >= receipt.BlockNumber.Uint64()+uint64(c.confirmations), nil
}
