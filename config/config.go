package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Nish0483/NFT-market/internal/fixedprice"
	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/internal/market"
	"github.com/Nish0483/NFT-market/libs/log"
	"github.com/Nish0483/NFT-market/types"
)

// NOTE: Most of the structs & relevant comments + the default configuration
// options are written to config.toml by WriteConfigFile. The toml and
// mapstructure tags of every field must match.
var (
	DefaultMarketDir = ".marketd"
	defaultConfigDir = "config"
	defaultDataDir   = "data"

	defaultConfigFileName = "config.toml"
	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for a marketd node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	ABCI            *ABCIConfig            `mapstructure:"abci" toml:"abci"`
	Market          *MarketConfig          `mapstructure:"market" toml:"market"`
	Indexer         *IndexerConfig         `mapstructure:"indexer" toml:"indexer"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation" toml:"instrumentation"`
}

// DefaultConfig returns a default configuration for a marketd node.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		ABCI:            DefaultABCIConfig(),
		Market:          DefaultMarketConfig(),
		Indexer:         DefaultIndexerConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	cfg := DefaultConfig()
	cfg.BaseConfig = TestBaseConfig()
	cfg.ABCI.ListenAddress = "tcp://127.0.0.1:0"
	return cfg
}

// SetRoot sets the RootDir for all Config structs.
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.ABCI.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [abci] section: %w", err)
	}
	if err := cfg.Market.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [market] section: %w", err)
	}
	if err := cfg.Indexer.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [indexer] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a marketd node.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home" toml:"-"`

	// Chain the node serves. Events sent to external sinks carry it.
	ChainID string `mapstructure:"chain_id" toml:"chain_id"`

	// Database backend: goleveldb | memdb
	// * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
	//   - pure go
	//   - stable
	// * memdb
	//   - state is lost on restart, for tests only
	DBBackend string `mapstructure:"db_backend" toml:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir" toml:"db_dir"`

	// Output level for logging: debug | info | warn | error
	LogLevel string `mapstructure:"log_level" toml:"log_level"`

	// Output format: 'plain' (text) or 'json'
	LogFormat string `mapstructure:"log_format" toml:"log_format"`
}

// DefaultBaseConfig returns a default base configuration for a marketd node.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		ChainID:   "market",
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  log.LogLevelInfo,
		LogFormat: log.LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing a marketd node.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.ChainID = "market_test"
	cfg.DBBackend = "memdb"
	return cfg
}

// DBDir returns the full path to the database directory.
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ConfigFile returns the full path to the config.toml file.
func (cfg BaseConfig) ConfigFile() string {
	return rootify(defaultConfigFilePath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain', 'text' or 'json')")
	}
	switch cfg.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	switch cfg.DBBackend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("unsupported db_backend %q (must be 'goleveldb' or 'memdb')", cfg.DBBackend)
	}
	if cfg.ChainID == "" {
		return errors.New("chain_id can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// ABCIConfig

// ABCIConfig defines how the node serves the ABCI application.
type ABCIConfig struct {
	// TCP or UNIX socket address the ABCI server listens on
	ListenAddress string `mapstructure:"laddr" toml:"laddr"`

	// Mechanism to connect to the ABCI application: socket | grpc
	Transport string `mapstructure:"transport" toml:"transport"`
}

// DefaultABCIConfig returns a default configuration for the ABCI server.
func DefaultABCIConfig() *ABCIConfig {
	return &ABCIConfig{
		ListenAddress: "tcp://127.0.0.1:26658",
		Transport:     "socket",
	}
}

// ValidateBasic performs basic validation.
func (cfg *ABCIConfig) ValidateBasic() error {
	if cfg.ListenAddress == "" {
		return errors.New("laddr can't be empty")
	}
	switch cfg.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("unknown transport %q (must be 'socket' or 'grpc')", cfg.Transport)
	}
	return nil
}

//-----------------------------------------------------------------------------
// MarketConfig

// MarketConfig defines the policies of the marketplace engine.
type MarketConfig struct {
	// What to do with a fixed-price payment above the price: reject | refund | keep
	ExcessPayment string `mapstructure:"excess_payment" toml:"excess_payment"`

	// Let the seller settle an auction before its end time
	SellerEarlySettle bool `mapstructure:"seller_early_settle" toml:"seller_early_settle"`

	// Settle every expired auction at the end of each block
	AutoSettle bool `mapstructure:"auto_settle" toml:"auto_settle"`

	// Longest allowed auction in seconds. 0 - unlimited.
	MaxAuctionDuration int64 `mapstructure:"max_auction_duration" toml:"max_auction_duration"`

	// Share of every sale, in basis points, credited to fee_collector
	FeeBasisPoints uint32 `mapstructure:"fee_basis_points" toml:"fee_basis_points"`

	// Account receiving fees, as a 0x-prefixed hex address
	FeeCollector string `mapstructure:"fee_collector" toml:"fee_collector"`
}

// DefaultMarketConfig returns the default marketplace policies.
func DefaultMarketConfig() *MarketConfig {
	return &MarketConfig{
		ExcessPayment:      string(fixedprice.ExcessReject),
		SellerEarlySettle:  false,
		AutoSettle:         false,
		MaxAuctionDuration: 0,
		FeeBasisPoints:     0,
		FeeCollector:       "",
	}
}

// EngineConfig converts the section into the engine configuration.
func (cfg *MarketConfig) EngineConfig() (market.Config, error) {
	ec := market.Config{
		ExcessPayment:      fixedprice.ExcessPolicy(strings.ToLower(cfg.ExcessPayment)),
		SellerEarlySettle:  cfg.SellerEarlySettle,
		MaxAuctionDuration: cfg.MaxAuctionDuration,
		FeeBasisPoints:     cfg.FeeBasisPoints,
	}
	if cfg.FeeCollector != "" {
		addr, err := types.ParseAddress(cfg.FeeCollector)
		if err != nil {
			return ec, fmt.Errorf("fee_collector: %w", err)
		}
		ec.FeeCollector = addr
	}
	return ec, ec.ValidateBasic()
}

// ValidateBasic performs basic validation.
func (cfg *MarketConfig) ValidateBasic() error {
	_, err := cfg.EngineConfig()
	return err
}

//-----------------------------------------------------------------------------
// IndexerConfig

// IndexerConfig defines where committed events are sent.
type IndexerConfig struct {
	// What event sinks to use
	//
	// Options:
	//   1) "null" (default) - no indexing
	//   2) "kv" - token history in a key-value database (see db_backend),
	//      served by the /history query
	//   3) "psql" - events in a PostgreSQL database (see psql_conn)
	//   4) "pubsub" - events published to a Google Cloud Pub/Sub topic
	Sinks []string `mapstructure:"sinks" toml:"sinks"`

	// The PostgreSQL connection configuration, the connection format:
	//   postgresql://<user>:<password>@<host>:<port>/<db>?<opts>
	PsqlConn string `mapstructure:"psql_conn" toml:"psql_conn"`

	// Google Cloud project and topic of the pubsub sink
	PubsubProject string `mapstructure:"pubsub_project" toml:"pubsub_project"`
	PubsubTopic   string `mapstructure:"pubsub_topic" toml:"pubsub_topic"`

	// Number of committed blocks buffered before commits wait for the sinks
	QueueSize int `mapstructure:"queue_size" toml:"queue_size"`
}

// DefaultIndexerConfig returns a default configuration for the event indexer.
func DefaultIndexerConfig() *IndexerConfig {
	return &IndexerConfig{
		Sinks:       []string{string(indexer.NULL)},
		PubsubTopic: "market-events",
		QueueSize:   indexer.DefaultQueueSize,
	}
}

// ValidateBasic performs basic validation.
func (cfg *IndexerConfig) ValidateBasic() error {
	seen := make(map[string]struct{}, len(cfg.Sinks))
	for _, s := range cfg.Sinks {
		s = strings.ToLower(s)
		if _, ok := seen[s]; ok {
			return fmt.Errorf("duplicated sink %q", s)
		}
		seen[s] = struct{}{}

		switch indexer.EventSinkType(s) {
		case indexer.NULL, indexer.KV:
		case indexer.PSQL:
			if cfg.PsqlConn == "" {
				return errors.New("the psql connection settings cannot be empty")
			}
		case indexer.PUBSUB:
			if cfg.PubsubProject == "" || cfg.PubsubTopic == "" {
				return errors.New("the pubsub project and topic cannot be empty")
			}
		default:
			return fmt.Errorf("unsupported event sink type %q", s)
		}
	}
	if cfg.QueueSize < 0 {
		return errors.New("queue_size can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	// Check out the documentation for the list of available metrics.
	Prometheus bool `mapstructure:"prometheus" toml:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr" toml:"prometheus_listen_addr"`

	// Maximum number of simultaneous connections.
	// If you want to accept a larger number than the default, make sure
	// you increase your OS limits.
	// 0 - unlimited.
	MaxOpenConnections int `mapstructure:"max_open_connections" toml:"max_open_connections"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace" toml:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		MaxOpenConnections:   3,
		Namespace:            "marketd",
	}
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
