package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// FairSharing合约ABI定义（简化版）
const fairSharingABI = `[
	{
		"inputs": [
			{"name": "contributionId", "type": "bytes32"},
			{"name": "amount", "type": "uint256"},
			{
				"name": "votes",
				"type": "tuple[]",
				"components": [
					{"name": "voter", "type": "address"},
					{"name": "approve", "type": "bool"},
					{"name": "signature", "type": "bytes"}
				]
			}
		],
		"name": "claim",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "sharing",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "name",
		"outputs": [{"name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "totalMembers",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "", "type": "uint256"}],
		"name": "membersList",
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "user", "type": "address"},
			{"indexed": true, "name": "contributionId", "type": "bytes32"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "Claimed",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "user", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "Sharing",
		"type": "event"
	}
]`

// VoteInput claim调用的投票参数，元组顺序必须与合约一致
type VoteInput struct {
	Voter     common.Address
	Approve   bool
	Signature []byte
}

// FairSharing FairSharing实例合约包装器
type FairSharing struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	abi      abi.ABI
}

// NewFairSharing 创建FairSharing合约实例
func NewFairSharing(client *ethclient.Client, address common.Address) (*FairSharing, error) {
	return &FairSharing{
		client:   client,
		contract: bind.NewBoundContract(address, parsedFairSharingABI, client, client, client),
		address:  address,
		abi:      parsedFairSharingABI,
	}, nil
}

// Address 获取合约地址
func (f *FairSharing) Address() common.Address {
	return f.address
}

// ABI 获取合约ABI
func (f *FairSharing) ABI() abi.ABI {
	return f.abi
}

// Name 读取项目名称
func (f *FairSharing) Name(opts *bind.CallOpts) (string, error) {
	var out []interface{}
	if err := f.contract.Call(opts, &out, "name"); err != nil {
		return "", fmt.Errorf("failed to call name: %w", err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// TotalMembers 读取成员数量
func (f *FairSharing) TotalMembers(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := f.contract.Call(opts, &out, "totalMembers"); err != nil {
		return nil, fmt.Errorf("failed to call totalMembers: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Claim 提交累积的投票签名，由合约校验并发放
func (f *FairSharing) Claim(opts *bind.TransactOpts, contributionId common.Hash, amount *big.Int, votes []VoteInput) (*types.Transaction, error) {
	tx, err := f.contract.Transact(opts, "claim", contributionId, amount, votes)
	if err != nil {
		return nil, fmt.Errorf("failed to send claim transaction: %w", err)
	}
	return tx, nil
}

// Sharing 向合约注资
func (f *FairSharing) Sharing(opts *bind.TransactOpts, value *big.Int) (*types.Transaction, error) {
	callOpts := *opts
	callOpts.Value = value

	tx, err := f.contract.Transact(&callOpts, "sharing")
	if err != nil {
		return nil, fmt.Errorf("failed to send sharing transaction: %w", err)
	}
	return tx, nil
}

// ParseEvent 解析事件日志
func (f *FairSharing) ParseEvent(log types.Log) (string, map[string]interface{}, error) {
	return parseLog(f.abi, log)
}
