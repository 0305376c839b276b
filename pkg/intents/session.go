package intents

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/signer"
)

// Session is the connected wallet: who signs, on which chain
type Session struct {
	Account common.Address
	ChainID *big.Int
	Signer  signer.Signer
}

// NewSession binds a signer to a chain. The account is the signer's address.
func NewSession(chainID *big.Int, s signer.Signer) Session {
	return Session{Account: s.Address(), ChainID: chainID, Signer: s}
}

// WatchSession is a session without signing capability, enough to preview schedules
func WatchSession(chainID *big.Int, account common.Address) Session {
	return Session{Account: account, ChainID: chainID}
}

// CanSign reports whether a signer is connected
func (s Session) CanSign() bool {
	return s.Signer != nil
}

// Validate checks the session identifies an account on a chain and that a
// connected signer controls that account
func (s Session) Validate() error {
	if s.ChainID == nil || s.ChainID.Sign() <= 0 {
		return fmt.Errorf("%w: session has no chain id", models.ErrInvalidSchedule)
	}
	if s.Account == (common.Address{}) {
		return fmt.Errorf("%w: session has no account", models.ErrInvalidSchedule)
	}
	if s.Signer != nil && s.Signer.Address() != s.Account {
		return fmt.Errorf("%w: signer %s does not control account %s",
			models.ErrInvalidSchedule, s.Signer.Address().Hex(), s.Account.Hex())
	}
	return nil
}
