package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SablierFlowABI covers the stream reads and the ERC721 operator approval of SablierFlow
const SablierFlowABI = `[
	{"type":"function","name":"nextStreamId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getStream","stateMutability":"view","inputs":[{"name":"streamId","type":"uint256"}],"outputs":[{"name":"stream","type":"tuple","components":[
		{"name":"balance","type":"uint128"},
		{"name":"ratePerSecond","type":"uint128"},
		{"name":"sender","type":"address"},
		{"name":"snapshotTime","type":"uint40"},
		{"name":"isStream","type":"bool"},
		{"name":"isTransferable","type":"bool"},
		{"name":"isVoided","type":"bool"},
		{"name":"token","type":"address"},
		{"name":"tokenDecimals","type":"uint8"},
		{"name":"snapshotDebtScaled","type":"uint256"}]}]},
	{"type":"function","name":"getRecipient","stateMutability":"view","inputs":[{"name":"streamId","type":"uint256"}],"outputs":[{"name":"recipient","type":"address"}]},
	{"type":"function","name":"getToken","stateMutability":"view","inputs":[{"name":"streamId","type":"uint256"}],"outputs":[{"name":"token","type":"address"}]},
	{"type":"function","name":"withdrawableAmountOf","stateMutability":"view","inputs":[{"name":"streamId","type":"uint256"}],"outputs":[{"name":"withdrawableAmount","type":"uint128"}]},
	{"type":"function","name":"statusOf","stateMutability":"view","inputs":[{"name":"streamId","type":"uint256"}],"outputs":[{"name":"status","type":"uint8"}]},
	{"type":"function","name":"isApprovedForAll","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]}
]`

var sablierFlowABI = mustParseABI("SablierFlow", SablierFlowABI)

// FlowStream is the getStream tuple
type FlowStream struct {
	Balance            *big.Int
	RatePerSecond      *big.Int
	Sender             common.Address
	SnapshotTime       *big.Int
	IsStream           bool
	IsTransferable     bool
	IsVoided           bool
	Token              common.Address
	TokenDecimals      uint8
	SnapshotDebtScaled *big.Int
}

// SablierFlow is a binding around the Sablier Flow contract
type SablierFlow struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewSablierFlow binds a deployed SablierFlow contract
func NewSablierFlow(address common.Address, backend bind.ContractBackend) *SablierFlow {
	return &SablierFlow{
		address:  address,
		contract: bind.NewBoundContract(address, sablierFlowABI, backend, backend, backend),
	}
}

func (s *SablierFlow) Address() common.Address { return s.address }

func (s *SablierFlow) NextStreamID(opts *bind.CallOpts) (*big.Int, error) {
	return callBig(s.contract, opts, "nextStreamId")
}

func (s *SablierFlow) GetStream(opts *bind.CallOpts, streamID *big.Int) (FlowStream, error) {
	out, err := call(s.contract, opts, "getStream", streamID)
	if err != nil {
		return FlowStream{}, err
	}
	return *abi.ConvertType(out, new(FlowStream)).(*FlowStream), nil
}

func (s *SablierFlow) GetRecipient(opts *bind.CallOpts, streamID *big.Int) (common.Address, error) {
	return callAddress(s.contract, opts, "getRecipient", streamID)
}

func (s *SablierFlow) GetToken(opts *bind.CallOpts, streamID *big.Int) (common.Address, error) {
	return callAddress(s.contract, opts, "getToken", streamID)
}

func (s *SablierFlow) WithdrawableAmountOf(opts *bind.CallOpts, streamID *big.Int) (*big.Int, error) {
	return callBig(s.contract, opts, "withdrawableAmountOf", streamID)
}

func (s *SablierFlow) StatusOf(opts *bind.CallOpts, streamID *big.Int) (uint8, error) {
	out, err := call(s.contract, opts, "statusOf", streamID)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out, new(uint8)).(*uint8), nil
}

func (s *SablierFlow) IsApprovedForAll(opts *bind.CallOpts, owner, operator common.Address) (bool, error) {
	out, err := call(s.contract, opts, "isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out, new(bool)).(*bool), nil
}

func (s *SablierFlow) SetApprovalForAll(opts *bind.TransactOpts, operator common.Address, approved bool) (*types.Transaction, error) {
	return s.contract.Transact(opts, "setApprovalForAll", operator, approved)
}

// SablierFlowMethods exposes the parsed ABI
func SablierFlowMethods() abi.ABI { return sablierFlowABI }
