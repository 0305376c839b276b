package cli

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/redis/go-redis/v9"

	"github.com/flowstate-hq/flowstate-intents/pkg/chainclient"
	"github.com/flowstate-hq/flowstate-intents/pkg/circuitbreaker"
	"github.com/flowstate-hq/flowstate-intents/pkg/config"
	"github.com/flowstate-hq/flowstate-intents/pkg/health"
	"github.com/flowstate-hq/flowstate-intents/pkg/intents"
	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/nonce"
	"github.com/flowstate-hq/flowstate-intents/pkg/relayer"
	"github.com/flowstate-hq/flowstate-intents/pkg/signer"
)

// chainAPI is everything the commands read from or send to the chain.
// *chainclient.Client implements it.
type chainAPI interface {
	intents.ChainReader
	health.ChainStatus
	Stream(ctx context.Context, id *big.Int) (*models.Stream, error)
	PoolState(ctx context.Context, key models.PoolKey) (*models.PoolState, error)
	FindStreams(ctx context.Context, recipient common.Address) ([]*models.Stream, error)
	ApproveOperator(ctx context.Context, auth *bind.TransactOpts, operator common.Address) (*types.Receipt, error)
	Close()
}

type app struct {
	cfg       *config.Config
	logger    logger.Logger
	dialChain func(ctx context.Context) (chainAPI, error)
	// loadKey returns the configured signing key, or nil when none is set
	loadKey    func() (*signer.KeySigner, error)
	newRelayer func() *relayer.Client
	newSource  func(rc *relayer.Client) (nonce.Source, error)
	ledger     *nonce.Ledger
}

func wireApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return newApp(cfg), nil
}

func newApp(cfg *config.Config) *app {
	log := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	a := &app{cfg: cfg, logger: log, ledger: nonce.NewLedger()}
	a.dialChain = func(ctx context.Context) (chainAPI, error) {
		c, err := chainclient.Dial(ctx, cfg.RPCURL, chainclient.Addresses{
			SablierFlow: cfg.Contracts.SablierFlow,
			StateView:   cfg.Contracts.StateView,
		}, log)
		if err != nil {
			return nil, err
		}
		if c.ChainIDInt() != cfg.ChainID {
			c.Close()
			return nil, fmt.Errorf("RPC %s serves chain %d, %s is chain %d", cfg.RPCURL, c.ChainIDInt(), cfg.Network, cfg.ChainID)
		}
		return c, nil
	}
	a.loadKey = func() (*signer.KeySigner, error) {
		switch {
		case cfg.PrivateKey != "":
			return signer.NewKeySignerFromHex(cfg.PrivateKey)
		case cfg.Keystore.Path != "":
			return signer.NewKeystoreSigner(cfg.Keystore.Path, cfg.Keystore.Passphrase)
		}
		return nil, nil
	}
	a.newRelayer = func() *relayer.Client {
		cb := circuitbreaker.NewCircuitBreaker("relayer",
			cfg.CircuitBreaker.Enabled,
			cfg.CircuitBreaker.Threshold,
			cfg.CircuitBreaker.WindowDuration,
			cfg.CircuitBreaker.ResetTimeout,
			log)
		opts := []relayer.Option{
			relayer.WithTimeout(cfg.Relayer.Timeout),
			relayer.WithCircuitBreaker(cb),
		}
		if cfg.Relayer.RateLimit > 0 {
			opts = append(opts, relayer.WithRateLimit(cfg.Relayer.RateLimit, 1))
		}
		return relayer.New(cfg.Relayer.URL, log, opts...)
	}
	a.newSource = func(rc *relayer.Client) (nonce.Source, error) {
		switch cfg.NonceSource {
		case nonce.SourceRedis:
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			return nonce.NewRedisSource(client, int64(cfg.ChainID)), nil
		case nonce.SourceClock:
			return nonce.NewClockSource(), nil
		case nonce.SourceRelayer:
			return nonce.NewRelayerSource(rc), nil
		}
		return nil, fmt.Errorf("unknown nonce source %q", cfg.NonceSource)
	}
	return a
}

func (a *app) chainID() *big.Int {
	return big.NewInt(int64(a.cfg.ChainID))
}

// requireKey loads the signing key or fails with a configuration error
func (a *app) requireKey() (*signer.KeySigner, error) {
	if err := a.cfg.RequireSigner(); err != nil {
		return nil, err
	}
	key, err := a.loadKey()
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	if key == nil {
		return nil, fmt.Errorf("no signing key configured")
	}
	return key, nil
}

// account resolves the account a read-only command acts for: the flag
// value, or the configured key's address
func (a *app) account(flag string) (common.Address, error) {
	if flag != "" {
		if !common.IsHexAddress(flag) {
			return common.Address{}, fmt.Errorf("invalid account %q", flag)
		}
		return common.HexToAddress(flag), nil
	}
	key, err := a.loadKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("load signing key: %w", err)
	}
	if key == nil {
		return common.Address{}, fmt.Errorf("pass --account or configure PRIVATE_KEY / KEYSTORE_PATH")
	}
	return key.Address(), nil
}

// startHealth serves health and metrics in the background when METRICS_PORT is set
func (a *app) startHealth(ctx context.Context, deps health.Dependencies) {
	if a.cfg.MetricsPort == "" {
		return
	}
	srv := health.NewServer(a.cfg.MetricsPort, a.cfg.MetricsAPIKey, deps, a.logger)
	go func() {
		if err := srv.Start(ctx); err != nil {
			a.logger.Error("%v", err)
		}
	}()
}
