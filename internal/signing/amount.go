package signing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// weiDecimals 链上最小单位的小数位数（18位定点）
const weiDecimals = 18

// EtherToWei 将十进制的人类可读金额精确换算为wei。
// 换算必须无舍入误差，否则摘要与合约端不一致，签名全部失效
func EtherToWei(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return PointToWei(d)
}

// PointToWei 将point金额精确换算为wei
func PointToWei(point decimal.Decimal) (*big.Int, error) {
	if point.IsNegative() {
		return nil, errors.New("amount must not be negative")
	}

	wei := point.Shift(weiDecimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("amount %s exceeds %d decimal places", point.String(), weiDecimals)
	}

	return wei.BigInt(), nil
}
