// Package poolkey derives Uniswap v4 pool identifiers.
package poolkey

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

const (
	maxFee         = 1<<24 - 1
	minTickSpacing = -(1 << 23)
	maxTickSpacing = 1<<23 - 1
)

// EncodedSize is the length of the ABI encoding of a pool key, five 32 byte words
const EncodedSize = 5 * 32

var poolKeyArgs = mustArguments("address", "address", "uint24", "int24", "address")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("poolkey: bad abi type %s: %v", t, err))
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

// Validate checks that the fee and tick spacing fit their on-chain widths
func Validate(key models.PoolKey) error {
	if key.Fee > maxFee {
		return fmt.Errorf("fee %d does not fit in uint24", key.Fee)
	}
	if key.TickSpacing < minTickSpacing || key.TickSpacing > maxTickSpacing {
		return fmt.Errorf("tick spacing %d does not fit in int24", key.TickSpacing)
	}
	return nil
}

// Encode returns abi.encode(currency0, currency1, fee, tickSpacing, hooks)
func Encode(key models.PoolKey) ([]byte, error) {
	if err := Validate(key); err != nil {
		return nil, err
	}
	return poolKeyArgs.Pack(
		key.Currency0,
		key.Currency1,
		big.NewInt(int64(key.Fee)),
		big.NewInt(int64(key.TickSpacing)),
		key.Hooks,
	)
}

// Hash returns keccak256 of the encoded key, the v4 PoolId. It panics on a
// key that fails Validate; callers handling untrusted input validate first.
func Hash(key models.PoolKey) common.Hash {
	encoded, err := Encode(key)
	if err != nil {
		panic(fmt.Sprintf("poolkey: %v", err))
	}
	return crypto.Keccak256Hash(encoded)
}

// IsSorted reports whether currency0 sorts strictly below currency1, which
// the pool manager requires. Hash does not reorder.
func IsSorted(key models.PoolKey) bool {
	return bytes.Compare(key.Currency0.Bytes(), key.Currency1.Bytes()) < 0
}
