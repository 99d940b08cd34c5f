package contract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// FairSharing工厂合约ABI定义（简化版）
const factoryABI = `[
	{
		"inputs": [
			{"name": "name", "type": "string"},
			{"name": "symbol", "type": "string"},
			{"name": "members", "type": "address[]"},
			{"name": "owner", "type": "address"}
		],
		"name": "createFairSharing",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getCount",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "", "type": "uint256"}],
		"name": "fairSharings",
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "fairSharing", "type": "address"},
			{"indexed": true, "name": "owner", "type": "address"}
		],
		"name": "FairSharingCreated",
		"type": "event"
	}
]`

// ErrNoCreatedEvent 回执中没有FairSharingCreated事件
var ErrNoCreatedEvent = errors.New("no FairSharingCreated event in receipt")

// Factory FairSharing工厂合约包装器，按项目部署实例
type Factory struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	abi      abi.ABI
}

// NewFactory 创建工厂合约实例
func NewFactory(client *ethclient.Client, address common.Address) (*Factory, error) {
	return &Factory{
		client:   client,
		contract: bind.NewBoundContract(address, parsedFactoryABI, client, client, client),
		address:  address,
		abi:      parsedFactoryABI,
	}, nil
}

// Address 获取合约地址
func (f *Factory) Address() common.Address {
	return f.address
}

// ABI 获取合约ABI
func (f *Factory) ABI() abi.ABI {
	return f.abi
}

// CreateFairSharing 部署一个新的FairSharing实例
func (f *Factory) CreateFairSharing(opts *bind.TransactOpts, name, symbol string, members []common.Address, owner common.Address) (*types.Transaction, error) {
	tx, err := f.contract.Transact(opts, "createFairSharing", name, symbol, members, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to send createFairSharing transaction: %w", err)
	}
	return tx, nil
}

// Count 读取已部署实例数量
func (f *Factory) Count(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := f.contract.Call(opts, &out, "getCount"); err != nil {
		return nil, fmt.Errorf("failed to call getCount: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// InstanceFromReceipt 从部署回执中解析新实例地址
func (f *Factory) InstanceFromReceipt(receipt *types.Receipt) (common.Address, error) {
	createdID := f.abi.Events["FairSharingCreated"].ID

	for _, lg := range receipt.Logs {
		if lg.Address != f.address || len(lg.Topics) < 2 {
			continue
		}
		if lg.Topics[0] == createdID {
			return common.BytesToAddress(lg.Topics[1].Bytes()), nil
		}
	}

	return common.Address{}, ErrNoCreatedEvent
}

// ParseEvent 解析事件日志
func (f *Factory) ParseEvent(log types.Log) (string, map[string]interface{}, error) {
	return parseLog(f.abi, log)
}
