package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("contracts: invalid %s ABI: %v", name, err))
	}
	return parsed
}

// call invokes a view method and returns its single output
func call(c *bind.BoundContract, opts *bind.CallOpts, method string, args ...interface{}) (interface{}, error) {
	var out []interface{}
	if err := c.Call(opts, &out, method, args...); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out[0], nil
}

func callBig(c *bind.BoundContract, opts *bind.CallOpts, method string, args ...interface{}) (*big.Int, error) {
	out, err := call(c, opts, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new(*big.Int)).(**big.Int), nil
}

func callAddress(c *bind.BoundContract, opts *bind.CallOpts, method string, args ...interface{}) (common.Address, error) {
	out, err := call(c, opts, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out, new(common.Address)).(*common.Address), nil
}
