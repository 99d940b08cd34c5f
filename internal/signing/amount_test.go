package signing

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEtherToWei(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"30", "30000000000000000000"},
		{"0.02", "20000000000000000"},
		{"1", "1000000000000000000"},
		{"0", "0"},
		{"0.000000000000000001", "1"},
		{"123.456789", "123456789000000000000"},
	}

	for _, tt := range tests {
		got, err := EtherToWei(tt.amount)
		require.NoError(t, err, "amount %s", tt.amount)

		want, ok := new(big.Int).SetString(tt.want, 10)
		require.True(t, ok)
		assert.Equal(t, 0, got.Cmp(want), "amount %s: got %s want %s", tt.amount, got, want)
	}
}

func TestEtherToWeiRejectsInvalid(t *testing.T) {
	_, err := EtherToWei("not-a-number")
	assert.Error(t, err)

	_, err = EtherToWei("-1")
	assert.Error(t, err)

	// 超过18位小数无法精确表示为wei
	_, err = EtherToWei("0.0000000000000000001")
	assert.Error(t, err)
}

func TestPointToWeiExact(t *testing.T) {
	point := decimal.RequireFromString("0.5")
	wei, err := PointToWei(point)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", wei.String())

	_, err = PointToWei(decimal.RequireFromString("-0.5"))
	assert.Error(t, err)
}
