package chainclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/contracts"
)

// callHandler answers one contract method; to is the called contract
type callHandler func(to common.Address, args []interface{}) ([]interface{}, error)

// fakeBackend answers eth_call by decoding the selector against the known ABIs.
// Methods it does not override panic through the nil embedded Backend.
type fakeBackend struct {
	Backend

	chainID  *big.Int
	block    uint64
	blockErr error
	handlers map[string]callHandler

	mu        sync.Mutex
	calls     map[string]int
	callBlock []*big.Int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(11155111),
		block:    1000,
		handlers: make(map[string]callHandler),
		calls:    make(map[string]int),
	}
}

var knownABIs = []abi.ABI{
	contracts.SablierFlowMethods(),
	contracts.StateViewMethods(),
	contracts.ERC20Methods(),
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	return f.block, f.blockErr
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, errors.New("short call data")
	}
	for _, a := range knownABIs {
		method, err := a.MethodById(msg.Data[:4])
		if err != nil {
			continue
		}
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.calls[method.Name]++
		f.callBlock = append(f.callBlock, block)
		handler, ok := f.handlers[method.Name]
		f.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("execution reverted: no handler for %s", method.Name)
		}

		out, err := handler(*msg.To, args)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(out...)
	}
	return nil, fmt.Errorf("unknown selector %x", msg.Data[:4])
}

func (f *fakeBackend) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeBackend) on(method string, h callHandler) {
	f.handlers[method] = h
}

func returns(values ...interface{}) callHandler {
	return func(common.Address, []interface{}) ([]interface{}, error) {
		return values, nil
	}
}

func fails(err error) callHandler {
	return func(common.Address, []interface{}) ([]interface{}, error) {
		return nil, err
	}
}
