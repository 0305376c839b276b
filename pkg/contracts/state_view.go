package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// StateViewABI is the subset of the Uniswap v4 StateView lens we read
const StateViewABI = `[
	{"type":"function","name":"getSlot0","stateMutability":"view","inputs":[{"name":"poolId","type":"bytes32"}],"outputs":[
		{"name":"sqrtPriceX96","type":"uint160"},
		{"name":"tick","type":"int24"},
		{"name":"protocolFee","type":"uint24"},
		{"name":"lpFee","type":"uint24"}]},
	{"type":"function","name":"getLiquidity","stateMutability":"view","inputs":[{"name":"poolId","type":"bytes32"}],"outputs":[{"name":"liquidity","type":"uint128"}]}
]`

var stateViewABI = mustParseABI("StateView", StateViewABI)

// Slot0 is the packed pool state returned by getSlot0
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         *big.Int
	ProtocolFee  *big.Int
	LpFee        *big.Int
}

// StateView is a binding around the v4 StateView lens
type StateView struct {
	contract *bind.BoundContract
}

func NewStateView(address common.Address, backend bind.ContractBackend) *StateView {
	return &StateView{contract: bind.NewBoundContract(address, stateViewABI, backend, backend, backend)}
}

func (s *StateView) GetSlot0(opts *bind.CallOpts, poolID common.Hash) (Slot0, error) {
	var out []interface{}
	if err := s.contract.Call(opts, &out, "getSlot0", poolID); err != nil {
		return Slot0{}, err
	}
	return Slot0{
		SqrtPriceX96: *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Tick:         *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		ProtocolFee:  *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		LpFee:        *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
	}, nil
}

func (s *StateView) GetLiquidity(opts *bind.CallOpts, poolID common.Hash) (*big.Int, error) {
	return callBig(s.contract, opts, "getLiquidity", poolID)
}

// StateViewMethods exposes the parsed ABI
func StateViewMethods() abi.ABI { return stateViewABI }
