package models

import "errors"

var (
	// ErrInvalidSchedule marks configuration errors raised before any chain call or signature
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrStateUnavailable marks failed chain reads, the current state cannot be determined
	ErrStateUnavailable = errors.New("cannot determine current chain state")

	// ErrSignatureRejected is returned when the signing party declines
	ErrSignatureRejected = errors.New("signature rejected")

	// ErrRelayerRejected is returned when the relayer answers with a non-2xx status
	ErrRelayerRejected = errors.New("relayer rejected intent")

	// ErrCircuitOpen is returned when the relayer circuit breaker is tripped
	ErrCircuitOpen = errors.New("relayer circuit breaker is open")

	// ErrCancelled marks batch items skipped after cancellation
	ErrCancelled = errors.New("submission cancelled")

	// ErrNonceCollision is returned when a nonce range overlaps one already reserved
	ErrNonceCollision = errors.New("nonce range already reserved")
)
