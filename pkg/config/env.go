package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/nonce"
)

const (
	mainnet = "mainnet"
	sepolia = "sepolia"

	// DefaultNetwork is the default blockchain network to connect to
	DefaultNetwork = sepolia

	// DefaultRelayerURL defines the default relayer endpoint
	DefaultRelayerURL = "http://localhost:3001"

	// DefaultRelayerTimeout defines the per-request relayer timeout
	DefaultRelayerTimeout = 10 * time.Second

	// DefaultRelayerRateLimit defines the relayer request rate, 0 disables limiting
	DefaultRelayerRateLimit = 0.0

	// DefaultNonceSource defines where base nonces come from
	DefaultNonceSource = nonce.SourceRelayer

	// DefaultRedisAddr defines the default Redis address for the redis nonce source
	DefaultRedisAddr = "localhost:6379"

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker
	DefaultCircuitBreakerWindow = 30

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker
	DefaultCircuitBreakerReset = 60

	// DefaultLogLevel defines the default log level
	DefaultLogLevel = logger.InfoLevel

	// DefaultLogColoring defines whether log prefixes are colored
	DefaultLogColoring = true

	// Network specific values
	// These can still be overridden by environment variables for debugging purposes

	// Sepolia

	SepoliaSablierFlowAddress = "0xde489096eC9C718358c52a8BBe4ffD74857356e9"
	SepoliaStateViewAddress   = "0xe1dd9c3fa50edb962e442f60dfbc432e24537e4c"
	SepoliaPoolManagerAddress = "0xE03A1074c86CFeDd5C142C4F04F1a1536e203543"
	SepoliaHookAddress        = "0xb5f4c4286c77695577f0aB434487d58969BF8880"

	DefaultSepoliaRPCURL = "https://ethereum-sepolia-rpc.publicnode.com"

	// Ethereum (no FlowState deployment; contract addresses must be configured)

	DefaultEthereumMainnetRPCURL = "https://eth.llamarpc.com"
)

// GetEnvNetwork returns the configured network from environment variables or defaults to sepolia
func GetEnvNetwork() (string, error) {
	network := strings.ToLower(os.Getenv("NETWORK"))
	if network == "" {
		network = DefaultNetwork
	}

	if network != mainnet && network != sepolia {
		return "", fmt.Errorf("invalid NETWORK value: %s, must be 'sepolia' or 'mainnet'", network)
	}

	return network, nil
}

// GetEnvRPCURL returns the RPC URL from environment variables or the network default
func GetEnvRPCURL(network string) (string, error) {
	rpc := os.Getenv("RPC_URL")
	if rpc == "" {
		return networkDefaults[network].RPCURL, nil
	}

	if _, err := url.ParseRequestURI(rpc); err != nil {
		return "", fmt.Errorf("invalid RPC_URL value: %s, must be a valid URL", rpc)
	}
	return rpc, nil
}

// GetEnvRelayerURL returns the relayer endpoint from environment variables
func GetEnvRelayerURL() (string, error) {
	relayerURL := os.Getenv("RELAYER_URL")
	if relayerURL == "" {
		return DefaultRelayerURL, nil
	}

	// Validate URL format
	if _, err := url.ParseRequestURI(relayerURL); err != nil {
		return "", fmt.Errorf("invalid RELAYER_URL value: %s, must be a valid URL", relayerURL)
	}
	return strings.TrimRight(relayerURL, "/"), nil
}

// GetEnvRelayerTimeout returns the relayer request timeout from environment variables
func GetEnvRelayerTimeout() (time.Duration, error) {
	timeout := os.Getenv("RELAYER_TIMEOUT")
	if timeout == "" {
		return DefaultRelayerTimeout, nil
	}

	parsed, err := time.ParseDuration(timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid RELAYER_TIMEOUT value: %s, must be a valid duration string", timeout)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("RELAYER_TIMEOUT must be greater than 0")
	}
	return parsed, nil
}

// GetEnvRelayerRateLimit returns the relayer requests per second from environment variables
func GetEnvRelayerRateLimit() (float64, error) {
	limit := os.Getenv("RELAYER_RATE_LIMIT")
	if limit == "" {
		return DefaultRelayerRateLimit, nil
	}

	parsed, err := strconv.ParseFloat(limit, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid RELAYER_RATE_LIMIT value: %s, must be a number", limit)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("RELAYER_RATE_LIMIT must be greater than or equal to 0")
	}
	return parsed, nil
}

// GetEnvAddress returns the address in the named variable, or fallback when unset
func GetEnvAddress(name, fallback string) (common.Address, error) {
	value := os.Getenv(name)
	if value == "" {
		value = fallback
	}
	if value == "" {
		return common.Address{}, nil
	}

	// Validate Ethereum address format
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s value: %s, must be a valid Ethereum address", name, value)
	}
	return common.HexToAddress(value), nil
}

// GetEnvNonceSource returns the nonce source name from environment variables
func GetEnvNonceSource() (string, error) {
	source := strings.ToLower(os.Getenv("NONCE_SOURCE"))
	if source == "" {
		return DefaultNonceSource, nil
	}

	switch source {
	case nonce.SourceRelayer, nonce.SourceRedis, nonce.SourceClock:
		return source, nil
	}
	return "", fmt.Errorf("invalid NONCE_SOURCE value: %s, must be 'relayer', 'redis' or 'clock'", source)
}

// GetEnvRedisAddr returns the Redis address from environment variables
func GetEnvRedisAddr() string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return DefaultRedisAddr
	}
	return addr
}

// GetEnvRedisDB returns the Redis database number from environment variables
func GetEnvRedisDB() (int, error) {
	db := os.Getenv("REDIS_DB")
	if db == "" {
		return 0, nil
	}

	dbInt, err := strconv.Atoi(db)
	if err != nil {
		return 0, fmt.Errorf("invalid REDIS_DB value: %s, must be an integer", db)
	}
	if dbInt < 0 {
		return 0, fmt.Errorf("REDIS_DB must be greater than or equal to 0")
	}
	return dbInt, nil
}

// GetEnvMetricsPort returns the metrics server port from environment variables.
// Empty disables the server.
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return "", nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	return getEnvBool("CIRCUIT_BREAKER_ENABLED", DefaultCircuitBreakerEnabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow*time.Second)
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_RESET", DefaultCircuitBreakerReset*time.Second)
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return DefaultLogLevel, nil
	}

	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be 'debug', 'info', 'notice' or 'error'", level)
	}
	return parsed, nil
}

// GetEnvLogColoring returns whether log prefixes are colored from environment variables
func GetEnvLogColoring() (bool, error) {
	return getEnvBool("LOG_COLORING", DefaultLogColoring)
}

func getEnvBool(name string, fallback bool) (bool, error) {
	value := os.Getenv(name)
	if value == "" {
		return fallback, nil
	}

	if value == "true" {
		return true, nil
	} else if value == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid %s value: %s, must be 'true' or 'false'", name, value)
}

func getEnvDuration(name string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(name)
	if value == "" {
		return fallback, nil
	}

	// Validate duration format
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be a valid duration string", name, value)
	}
	return parsed, nil
}
