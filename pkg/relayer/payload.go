package relayer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

// Payload is the JSON body accepted by POST /api/v1/intents.
// Unsigned integers travel as decimal strings.
type Payload struct {
	User       string     `json:"user"`
	StreamID   string     `json:"streamId"`
	Amount     string     `json:"amount"`
	MinBlock   string     `json:"minBlock"`
	MaxBlock   string     `json:"maxBlock"`
	Nonce      string     `json:"nonce"`
	IsSwap     bool       `json:"isSwap"`
	TargetPool TargetPool `json:"targetPool"`
	Signature  string     `json:"signature"`
}

// TargetPool is the full pool key, so the executor can rebuild the pool id
type TargetPool struct {
	Currency0   string `json:"currency0"`
	Currency1   string `json:"currency1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tickSpacing"`
	Hooks       string `json:"hooks"`
}

// NewPayload converts a signed intent to its wire form
func NewPayload(signed models.SignedIntent) Payload {
	in := signed.Intent
	return Payload{
		User:     in.User.Hex(),
		StreamID: bigString(in.StreamID),
		Amount:   bigString(in.Amount),
		MinBlock: new(big.Int).SetUint64(in.MinBlock).String(),
		MaxBlock: new(big.Int).SetUint64(in.MaxBlock).String(),
		Nonce:    new(big.Int).SetUint64(in.Nonce).String(),
		IsSwap:   in.IsSwap,
		TargetPool: TargetPool{
			Currency0:   in.TargetPool.Currency0.Hex(),
			Currency1:   in.TargetPool.Currency1.Hex(),
			Fee:         in.TargetPool.Fee,
			TickSpacing: in.TargetPool.TickSpacing,
			Hooks:       in.TargetPool.Hooks.Hex(),
		},
		Signature: hexutil.Encode(signed.Signature),
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
