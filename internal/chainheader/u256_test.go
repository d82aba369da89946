package chainheader

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU256RoundTripDecimal(t *testing.T) {
	u, err := U256FromDecimalString("26959535291011309493156476344723991336010898738574164086137773096960")
	require.NoError(t, err)
	require.Equal(t, "26959535291011309493156476344723991336010898738574164086137773096960", u.String())
}

func TestU256AddOverflow(t *testing.T) {
	maxBig := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	almostMax, err := U256FromDecimalString(new(big.Int).Sub(maxBig, big.NewInt(1)).String())
	require.NoError(t, err)

	_, err = almostMax.Add(U256FromUint64(1))
	require.NoError(t, err) // lands exactly on max, still fits in 256 bits

	_, err = almostMax.Add(U256FromUint64(2))
	require.ErrorIs(t, err, ErrU256Overflow)
}

func TestU256SplitHalves(t *testing.T) {
	u := U256FromUint64(0x0102030405060708)
	hi, lo := u.SplitHalves()
	for _, b := range hi {
		require.Equal(t, byte(0), b)
	}
	require.Equal(t, byte(0x01), lo[8])
	require.Equal(t, byte(0x08), lo[15])
}

func TestCompactToTargetAndWork(t *testing.T) {
	// Genesis difficulty bits from Scenario 1 (0x1d00ffff).
	target, err := CompactToTarget(0x1d00ffff)
	require.NoError(t, err)
	require.Equal(t, "26959535291011309493156476344723991336010898738574164086137773096960", target.String())

	work := WorkFromTarget(target)
	require.Equal(t, "4295032833", work.String())
}

func TestCompactToTargetRejectsNegative(t *testing.T) {
	_, err := CompactToTarget(0x01800000)
	require.Error(t, err)
}
