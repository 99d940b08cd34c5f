package contract

import (
	"fmt"
	"math/big"

	"github.com/blues/fss/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// parseLog 按ABI解析事件日志，返回事件名和参数表
func parseLog(contractABI abi.ABI, log types.Log) (string, map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return "", nil, fmt.Errorf("log has no topics")
	}

	eventSignature := log.Topics[0]
	for eventName, event := range contractABI.Events {
		if event.ID == eventSignature {
			return eventName, parseEvent(contractABI, eventName, log, event), nil
		}
	}

	return "", nil, fmt.Errorf("unknown event signature: %s", eventSignature.Hex())
}

// parseEvent 解析事件参数
func parseEvent(contractABI abi.ABI, eventName string, log types.Log, event abi.Event) map[string]interface{} {
	result := make(map[string]interface{})
	result["txHash"] = log.TxHash.Hex()
	result["blockNumber"] = log.BlockNumber
	result["logIndex"] = log.Index

	// 解析索引参数
	topicIndex := 1
	for _, input := range event.Inputs {
		if !input.Indexed {
			continue
		}
		if topicIndex >= len(log.Topics) {
			break
		}
		value, err := parseTopicValue(log.Topics[topicIndex], input.Type)
		if err != nil {
			logger.Warn("Failed to parse indexed parameter %s: %v", input.Name, err)
		} else {
			result[input.Name] = value
		}
		topicIndex++
	}

	// 解析非索引参数
	if len(log.Data) > 0 {
		nonIndexedInputs := make([]abi.Argument, 0)
		for _, input := range event.Inputs {
			if !input.Indexed {
				nonIndexedInputs = append(nonIndexedInputs, input)
			}
		}

		if len(nonIndexedInputs) > 0 {
			values, err := contractABI.Unpack(eventName, log.Data)
			if err != nil {
				logger.Warn("Failed to unpack non-indexed parameters: %v", err)
			} else {
				for i, input := range nonIndexedInputs {
					if i < len(values) {
						result[input.Name] = values[i]
					}
				}
			}
		}
	}

	return result
}

// parseTopicValue 解析主题值
func parseTopicValue(topic common.Hash, t abi.Type) (interface{}, error) {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		return new(big.Int).SetBytes(topic.Bytes()), nil
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes()), nil
	case abi.BoolTy:
		return new(big.Int).SetBytes(topic.Bytes()).Cmp(big.NewInt(0)) > 0, nil
	case abi.FixedBytesTy, abi.HashTy:
		return topic, nil
	default:
		return topic.Hex(), nil
	}
}
