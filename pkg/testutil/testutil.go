// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	DefaultTestTimeout = 5 * time.Second

	// SimulatedChainID is the chain id of the simulated backend
	SimulatedChainID = 1337
)

// Simulation is a funded account on a simulated chain
type Simulation struct {
	Backend *simulated.Backend
	Key     *ecdsa.PrivateKey
	Auth    *bind.TransactOpts
	Address common.Address
}

// SetupSimulation creates a simulated blockchain with one funded account
func SetupSimulation(t *testing.T) *Simulation {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err, "Failed to generate private key")

	auth, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(SimulatedChainID))
	require.NoError(t, err, "Failed to create transactor")

	balance, _ := new(big.Int).SetString("10000000000000000000", 10) // 10 ETH
	//nolint:SA1019 // GenesisAlloc is what the simulated backend takes in this release
	alloc := map[common.Address]core.GenesisAccount{
		auth.From: {Balance: balance},
	}

	sim := simulated.NewBackend(alloc)
	t.Cleanup(func() { _ = sim.Close() })

	return &Simulation{Backend: sim, Key: key, Auth: auth, Address: auth.From}
}

// GenerateAddress creates a random address for testing
func GenerateAddress() common.Address {
	privateKey, _ := crypto.GenerateKey()
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// AssertBigIntEqual compares two big.Int values for equality in tests
func AssertBigIntEqual(t *testing.T, expected, actual *big.Int, msgAndArgs ...interface{}) {
	t.Helper()
	if expected == nil && actual == nil {
		return
	}
	if expected == nil || actual == nil {
		assert.Fail(t, "Values not equal", msgAndArgs...)
		return
	}
	assert.Equal(t, 0, expected.Cmp(actual), msgAndArgs...)
}

// ContextWithTimeout returns a context cancelled when the test ends or after DefaultTestTimeout
func ContextWithTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	t.Cleanup(cancel)
	return ctx
}
