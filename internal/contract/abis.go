package contract

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	parsedFairSharingABI abi.ABI
	parsedFactoryABI     abi.ABI
)

func init() {
	var err error
	parsedFairSharingABI, err = abi.JSON(strings.NewReader(fairSharingABI))
	if err != nil {
		panic(fmt.Sprintf("invalid fairsharing ABI: %v", err))
	}
	parsedFactoryABI, err = abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		panic(fmt.Sprintf("invalid factory ABI: %v", err))
	}
}

// ParseFairSharingLog 解析FairSharing实例的事件日志
func ParseFairSharingLog(log types.Log) (string, map[string]interface{}, error) {
	return parseLog(parsedFairSharingABI, log)
}

// ParseFactoryLog 解析工厂合约的事件日志
func ParseFactoryLog(log types.Log) (string, map[string]interface{}, error) {
	return parseLog(parsedFactoryABI, log)
}
