package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/nonce"
)

// Config holds the configuration for the intents client
type Config struct {
	Network        string
	ChainID        int
	RPCURL         string
	Relayer        RelayerConfig
	Contracts      ContractsConfig
	PrivateKey     string
	Keystore       KeystoreConfig
	NonceSource    string
	Redis          RedisConfig
	MetricsPort    string
	MetricsAPIKey  string
	CircuitBreaker CircuitBreakerConfig
	LoggerConfig   LoggerConfig
}

// RelayerConfig holds the relayer endpoint settings
type RelayerConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64
}

// ContractsConfig holds the contract addresses of the deployment
type ContractsConfig struct {
	SablierFlow common.Address
	StateView   common.Address
	Hook        common.Address
	// Operator is the relayer account streams must approve; zero disables the check
	Operator common.Address
}

// KeystoreConfig points at an encrypted JSON key
type KeystoreConfig struct {
	Path       string
	Passphrase string
}

// RedisConfig holds the connection settings of the redis nonce source
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}
	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	network, err := GetEnvNetwork()
	if err != nil {
		return nil, err
	}
	defaults := networkDefaults[network]

	rpcURL, err := GetEnvRPCURL(network)
	if err != nil {
		return nil, err
	}

	relayerURL, err := GetEnvRelayerURL()
	if err != nil {
		return nil, err
	}

	relayerTimeout, err := GetEnvRelayerTimeout()
	if err != nil {
		return nil, err
	}

	relayerRateLimit, err := GetEnvRelayerRateLimit()
	if err != nil {
		return nil, err
	}

	sablierFlow, err := GetEnvAddress("SABLIER_FLOW_ADDRESS", defaults.SablierFlow)
	if err != nil {
		return nil, err
	}

	stateView, err := GetEnvAddress("STATE_VIEW_ADDRESS", defaults.StateView)
	if err != nil {
		return nil, err
	}

	hook, err := GetEnvAddress("FLOWSTATE_HOOK_ADDRESS", defaults.Hook)
	if err != nil {
		return nil, err
	}

	operator, err := GetEnvAddress("RELAYER_OPERATOR_ADDRESS", "")
	if err != nil {
		return nil, err
	}

	nonceSource, err := GetEnvNonceSource()
	if err != nil {
		return nil, err
	}

	redisDB, err := GetEnvRedisDB()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Network: network,
		ChainID: defaults.ChainID,
		RPCURL:  rpcURL,
		Relayer: RelayerConfig{
			URL:       relayerURL,
			Timeout:   relayerTimeout,
			RateLimit: relayerRateLimit,
		},
		Contracts: ContractsConfig{
			SablierFlow: sablierFlow,
			StateView:   stateView,
			Hook:        hook,
			Operator:    operator,
		},
		PrivateKey: strings.TrimSpace(os.Getenv("PRIVATE_KEY")),
		Keystore: KeystoreConfig{
			Path:       os.Getenv("KEYSTORE_PATH"),
			Passphrase: os.Getenv("KEYSTORE_PASSPHRASE"),
		},
		NonceSource: nonceSource,
		Redis: RedisConfig{
			Addr:     GetEnvRedisAddr(),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		MetricsPort:   metricsPort,
		MetricsAPIKey: os.Getenv("METRICS_API_KEY"),
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	// Validate required environment variables
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	zero := common.Address{}
	if cfg.Contracts.SablierFlow == zero {
		return fmt.Errorf("SABLIER_FLOW_ADDRESS is required on %s", cfg.Network)
	}
	if cfg.Contracts.StateView == zero {
		return fmt.Errorf("STATE_VIEW_ADDRESS is required on %s", cfg.Network)
	}
	if cfg.Contracts.Hook == zero {
		return fmt.Errorf("FLOWSTATE_HOOK_ADDRESS is required on %s", cfg.Network)
	}
	if cfg.PrivateKey != "" && cfg.Keystore.Path != "" {
		return fmt.Errorf("set either PRIVATE_KEY or KEYSTORE_PATH, not both")
	}
	if cfg.NonceSource == nonce.SourceRedis && cfg.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when NONCE_SOURCE is redis")
	}
	return nil
}

// RequireSigner checks that a signing key is configured
func (c *Config) RequireSigner() error {
	if c.PrivateKey == "" && c.Keystore.Path == "" {
		return fmt.Errorf("PRIVATE_KEY or KEYSTORE_PATH environment variable is required")
	}
	return nil
}
