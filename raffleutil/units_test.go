package raffleutil

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weiFromString(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func TestParseEther(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
		errRegex string
	}{
		{in: "0.02", expected: "20000000000000000"},
		{in: "0.01", expected: "10000000000000000"},
		{in: "30", expected: "30000000000000000000"},
		{in: "0.25", expected: "250000000000000000"},
		{in: " 1.5 ", expected: "1500000000000000000"},
		{in: "0", expected: "0"},
		{in: "0.000000000000000001", expected: "1"},
		{in: "0.0000000000000000001", errRegex: "more than 18 decimals"},
		{in: "-1", errRegex: "negative amount"},
		{in: "abc", errRegex: "invalid amount"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			wei, err := ParseEther(tc.in)
			if tc.errRegex != "" {
				require.Error(t, err)
				assert.Regexp(t, tc.errRegex, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, wei.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0.02", FormatEther(weiFromString("20000000000000000")))
	assert.Equal(t, "30", FormatEther(weiFromString("30000000000000000000")))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0", FormatEther(big.NewInt(0)))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1500000), v.Int64())
}
