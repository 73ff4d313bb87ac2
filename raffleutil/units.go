package raffleutil

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/apd"
	"github.com/pkg/errors"
)

// decimalCtx has enough precision for any uint256 value expressed in ether.
var decimalCtx = apd.BaseContext.WithPrecision(100)

// ParseEther converts a decimal ether amount such as "0.02" into wei. Amounts
// with more than 18 fractional digits and negative amounts are rejected.
func ParseEther(s string) (*big.Int, error) {
	return parseUnits(s, WeiPerEther)
}

// ParseUnits converts a decimal amount into its integer base unit given the
// number of decimals of the unit.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	return parseUnits(s, decimals)
}

func parseUnits(s string, decimals int32) (*big.Int, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", s)
	}
	if d.Negative && !d.IsZero() {
		return nil, errors.Errorf("negative amount %q", s)
	}
	if d.Form != apd.Finite {
		return nil, errors.Errorf("amount %q is not a finite number", s)
	}
	scaled := new(apd.Decimal)
	if _, err := decimalCtx.Mul(scaled, d, apd.New(1, decimals)); err != nil {
		return nil, errors.Wrapf(err, "could not scale amount %q", s)
	}
	integral := new(apd.Decimal)
	cond, err := decimalCtx.Quantize(integral, scaled, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "could not scale amount %q", s)
	}
	if cond.Inexact() {
		return nil, errors.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	return new(big.Int).Set(&integral.Coeff), nil
}

// FormatEther renders a wei amount as a decimal ether string with trailing
// zeros removed, e.g. 20000000000000000 -> "0.02".
func FormatEther(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}
	d := apd.NewWithBigInt(new(big.Int).Set(wei), -WeiPerEther)
	reduced := new(apd.Decimal)
	reduced.Reduce(d)
	return reduced.Text('f')
}
