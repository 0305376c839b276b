// Package signer builds the EIP-712 payload of an intent and produces signatures over it.
package signer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/poolkey"
)

const (
	DefaultDomainName    = "FlowState"
	DefaultDomainVersion = "1"

	// PrimaryType is the EIP-712 struct name the hook verifies
	PrimaryType = "Intent"
)

// Domain is the EIP-712 domain separator input. The verifying contract is the FlowState hook.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// NewDomain returns the FlowState domain for a chain and hook deployment
func NewDomain(chainID *big.Int, hook common.Address) Domain {
	return Domain{
		Name:              DefaultDomainName,
		Version:           DefaultDomainVersion,
		ChainID:           new(big.Int).Set(chainID),
		VerifyingContract: hook,
	}
}

var intentTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	PrimaryType: {
		{Name: "user", Type: "address"},
		{Name: "streamId", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
		{Name: "minBlock", Type: "uint256"},
		{Name: "maxBlock", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "isSwap", Type: "bool"},
		{Name: "targetPoolKeyHash", Type: "bytes32"},
	},
}

// TypedData returns the canonical EIP-712 payload for an intent. The pool id
// is always derived from TargetPool, so the signed id and the pool key sent
// to the relayer cannot disagree.
func TypedData(intent models.Intent, domain Domain) (apitypes.TypedData, error) {
	if domain.ChainID == nil {
		return apitypes.TypedData{}, fmt.Errorf("domain chain id is required")
	}
	if err := checkUint256("stream id", intent.StreamID); err != nil {
		return apitypes.TypedData{}, err
	}
	if err := checkUint256("amount", intent.Amount); err != nil {
		return apitypes.TypedData{}, err
	}
	encoded, err := poolkey.Encode(intent.TargetPool)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf("invalid target pool: %w", err)
	}

	return apitypes.TypedData{
		Types:       intentTypes,
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(domain.ChainID)),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"user":              intent.User.Hex(),
			"streamId":          decimalString(intent.StreamID),
			"amount":            decimalString(intent.Amount),
			"minBlock":          new(big.Int).SetUint64(intent.MinBlock).String(),
			"maxBlock":          new(big.Int).SetUint64(intent.MaxBlock).String(),
			"nonce":             new(big.Int).SetUint64(intent.Nonce).String(),
			"isSwap":            intent.IsSwap,
			"targetPoolKeyHash": crypto.Keccak256Hash(encoded).Hex(),
		},
	}, nil
}

// Digest returns keccak256(0x1901 || domainSeparator || hashStruct(intent))
func Digest(intent models.Intent, domain Domain) (common.Hash, error) {
	td, err := TypedData(intent, domain)
	if err != nil {
		return common.Hash{}, err
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// Recover returns the address that produced sig over the intent
func Recover(intent models.Intent, domain Domain, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	digest, err := Digest(intent, domain)
	if err != nil {
		return common.Address{}, err
	}
	rsv := make([]byte, len(sig))
	copy(rsv, sig)
	if rsv[crypto.RecoveryIDOffset] >= 27 {
		rsv[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func checkUint256(name string, v *big.Int) error {
	if v != nil && (v.Sign() < 0 || v.BitLen() > 256) {
		return fmt.Errorf("%s %s does not fit in uint256", name, v)
	}
	return nil
}

func decimalString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
