package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

// Signer is the wallet capability used to authorize intents. Implementations
// return a 65 byte r||s||v signature with v in {27, 28}.
type Signer interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}

// Sign signs one intent with s
func Sign(ctx context.Context, s Signer, intent models.Intent, domain Domain) (models.SignedIntent, error) {
	td, err := TypedData(intent, domain)
	if err != nil {
		return models.SignedIntent{}, err
	}
	sig, err := s.SignTypedData(ctx, td)
	if err != nil {
		return models.SignedIntent{}, err
	}
	if len(sig) != crypto.SignatureLength {
		return models.SignedIntent{}, fmt.Errorf("signer returned %d bytes, expected %d", len(sig), crypto.SignatureLength)
	}
	return models.SignedIntent{Intent: intent, Signature: sig}, nil
}

// KeySigner signs with an in-process secp256k1 key
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*KeySigner)(nil)

// NewKeySigner wraps an existing key
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewKeySignerFromHex parses a hex private key, with or without 0x prefix
func NewKeySignerFromHex(privateKeyHex string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %v", err)
	}
	return NewKeySigner(key), nil
}

// NewKeystoreSigner decrypts a V3 keystore file
func NewKeystoreSigner(path, passphrase string) (*KeySigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore %s: %v", path, err)
	}
	key, err := keystore.DecryptKey(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore %s: %v", path, err)
	}
	return NewKeySigner(key.PrivateKey), nil
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignTypedData hashes data per EIP-712 and signs the digest
func (s *KeySigner) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Transactor returns transaction options for on-chain calls made with the same key
func (s *KeySigner) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %v", err)
	}
	return auth, nil
}
