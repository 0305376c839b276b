package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20ABI is the metadata subset of ERC20
const ERC20ABI = `[
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var erc20ABI = mustParseABI("ERC20", ERC20ABI)

// ERC20 is a binding around an ERC20 token
type ERC20 struct {
	contract *bind.BoundContract
}

func NewERC20(address common.Address, backend bind.ContractBackend) *ERC20 {
	return &ERC20{contract: bind.NewBoundContract(address, erc20ABI, backend, backend, backend)}
}

func (t *ERC20) Symbol(opts *bind.CallOpts) (string, error) {
	out, err := call(t.contract, opts, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out, new(string)).(*string), nil
}

func (t *ERC20) Decimals(opts *bind.CallOpts) (uint8, error) {
	out, err := call(t.contract, opts, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out, new(uint8)).(*uint8), nil
}

func (t *ERC20) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	return callBig(t.contract, opts, "balanceOf", account)
}

// ERC20Methods exposes the parsed ABI
func ERC20Methods() abi.ABI { return erc20ABI }
