// Package intents plans and executes intent batches for a wallet session.
package intents

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/nonce"
	"github.com/flowstate-hq/flowstate-intents/pkg/poolkey"
	"github.com/flowstate-hq/flowstate-intents/pkg/schedule"
	"github.com/flowstate-hq/flowstate-intents/pkg/signer"
	"github.com/flowstate-hq/flowstate-intents/pkg/submitter"
)

// ErrPreviewPlan is returned when executing a plan built as a dry run
var ErrPreviewPlan = errors.New("plan is a preview and cannot be submitted")

// ChainReader is the chain access the service needs
type ChainReader interface {
	Snapshot(ctx context.Context, streamID *big.Int, key models.PoolKey) (*models.Snapshot, error)
	OperatorApproved(ctx context.Context, owner, operator common.Address) (bool, error)
}

// Deployment names the contracts intents are bound to
type Deployment struct {
	// Hook verifies intent signatures
	Hook common.Address
	// Operator is the relayer account that withdraws from streams; zero skips the approval check
	Operator common.Address
}

// PlanRequest describes a batch to schedule. A zero User means the session account.
type PlanRequest struct {
	models.ScheduleRequest

	SkipApprovalCheck bool
	// Preview plans read chain state but reserve no nonces
	Preview bool
}

// Plan is a schedule ready to be signed and submitted
type Plan struct {
	Session   Session
	Request   models.ScheduleRequest
	Snapshot  *models.Snapshot
	Domain    signer.Domain
	BaseNonce uint64
	Intents   []models.Intent
	Preview   bool
}

// Service ties chain reads, nonce allocation, signing and submission together
type Service struct {
	chain      ChainReader
	allocator  *nonce.Allocator
	transport  submitter.Transport
	deployment Deployment
	logger     logger.Logger
}

func NewService(chain ChainReader, allocator *nonce.Allocator, transport submitter.Transport, deployment Deployment, log logger.Logger) *Service {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Service{
		chain:      chain,
		allocator:  allocator,
		transport:  transport,
		deployment: deployment,
		logger:     log,
	}
}

// Plan validates req, reads chain state and builds the schedule. Nothing is
// signed or sent.
func (s *Service) Plan(ctx context.Context, sess Session, req PlanRequest) (*Plan, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if !req.Preview && !sess.CanSign() {
		return nil, fmt.Errorf("%w: no signer connected", models.ErrInvalidSchedule)
	}
	sched := req.ScheduleRequest
	if sched.User == (common.Address{}) {
		sched.User = sess.Account
	}
	if sched.User != sess.Account {
		return nil, fmt.Errorf("%w: intents for %s cannot be signed by %s",
			models.ErrInvalidSchedule, sched.User.Hex(), sess.Account.Hex())
	}
	if err := schedule.Validate(sched); err != nil {
		return nil, err
	}
	chainID := int(sess.ChainID.Int64())
	if !poolkey.IsSorted(sched.Pool) {
		s.logger.NoticeWithChain(chainID, "Pool %s currencies are not sorted; the hook will not find this pool", sched.Pool)
	}

	snap, err := s.chain.Snapshot(ctx, sched.StreamID, sched.Pool)
	if err != nil {
		return nil, err
	}
	if err := checkStream(snap.Stream, sched.User); err != nil {
		return nil, err
	}
	if !snap.Pool.Active() {
		s.logger.NoticeWithChain(chainID, "Pool %s is not initialized; intents will fail until it is", snap.Pool.ID.Hex())
	}

	if s.deployment.Operator != (common.Address{}) && !req.SkipApprovalCheck {
		approved, err := s.chain.OperatorApproved(ctx, sched.User, s.deployment.Operator)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStateUnavailable, err)
		}
		if !approved {
			return nil, fmt.Errorf("%w: operator %s is not approved for %s's streams",
				models.ErrInvalidSchedule, s.deployment.Operator.Hex(), sched.User.Hex())
		}
	}

	var base uint64
	if req.Preview {
		base = s.allocator.Ledger().Next(sched.User)
	} else {
		base, err = s.allocator.Allocate(ctx, sched.User, sched.BatchSize)
		if err != nil {
			return nil, err
		}
	}

	intents, err := schedule.Build(sched, snap.CurrentBlock, base)
	if err != nil {
		if !req.Preview {
			for i := 0; i < sched.BatchSize; i++ {
				s.allocator.Ledger().MarkFailed(sched.User, base+uint64(i))
			}
		}
		return nil, err
	}

	s.logger.InfoWithChain(chainID, "Planned %d intents for stream %s from block %d, nonces %d-%d",
		len(intents), sched.StreamID, snap.CurrentBlock, base, base+uint64(len(intents))-1)

	return &Plan{
		Session:   sess,
		Request:   sched,
		Snapshot:  snap,
		Domain:    signer.NewDomain(sess.ChainID, s.deployment.Hook),
		BaseNonce: base,
		Intents:   intents,
		Preview:   req.Preview,
	}, nil
}

// Execute signs and submits the plan's intents in order and records each
// nonce's fate in the ledger
func (s *Service) Execute(ctx context.Context, plan *Plan) (models.BatchResult, error) {
	if plan.Preview {
		return models.BatchResult{}, ErrPreviewPlan
	}
	if err := plan.Session.Validate(); err != nil {
		return models.BatchResult{}, err
	}
	if !plan.Session.CanSign() {
		return models.BatchResult{}, fmt.Errorf("%w: no signer connected", models.ErrInvalidSchedule)
	}

	ledger := s.allocator.Ledger()
	user := plan.Request.User
	sub := submitter.New(plan.Session.Signer, s.transport, plan.Domain, s.logger,
		submitter.WithItemHook(func(item models.ItemResult) {
			if item.OK() {
				ledger.MarkSubmitted(user, item.Intent.Nonce)
			} else {
				ledger.MarkFailed(user, item.Intent.Nonce)
			}
		}))

	return sub.SubmitBatch(ctx, plan.Intents), nil
}

// Run plans and executes a batch
func (s *Service) Run(ctx context.Context, sess Session, req PlanRequest) (*Plan, models.BatchResult, error) {
	plan, err := s.Plan(ctx, sess, req)
	if err != nil {
		return nil, models.BatchResult{}, err
	}
	result, err := s.Execute(ctx, plan)
	return plan, result, err
}

func checkStream(stream *models.Stream, user common.Address) error {
	if stream.IsVoided || stream.Status == models.StatusVoided {
		return fmt.Errorf("%w: stream %s is voided", models.ErrInvalidSchedule, stream.ID)
	}
	if stream.Recipient != user {
		return fmt.Errorf("%w: stream %s pays %s, not %s",
			models.ErrInvalidSchedule, stream.ID, stream.Recipient.Hex(), user.Hex())
	}
	return nil
}
