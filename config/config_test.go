package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	// set up some defaults
	cfg := DefaultConfig()
	assert.NotNil(cfg.ABCI)
	assert.NotNil(cfg.Market)
	assert.NotNil(cfg.Indexer)

	// check the root dir stuff...
	cfg.SetRoot("/foo")
	assert.Equal("/foo/data", cfg.DBDir())
	assert.Equal("/foo/config/config.toml", cfg.ConfigFile())

	cfg.DBPath = "/opt/data"
	assert.Equal("/opt/data", cfg.DBDir())
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateBasic())
	assert.NoError(t, TestConfig().ValidateBasic())

	cfg.Market.FeeBasisPoints = 100
	assert.Error(t, cfg.ValidateBasic(), "fee without collector")

	cfg.Market.FeeCollector = "0x00000000000000000000000000000000000000fe"
	assert.NoError(t, cfg.ValidateBasic())
}

func TestBaseConfigValidateBasic(t *testing.T) {
	testCases := map[string]struct {
		modify func(*BaseConfig)
		ok     bool
	}{
		"default":        {func(*BaseConfig) {}, true},
		"json logs":      {func(c *BaseConfig) { c.LogFormat = "json" }, true},
		"bad log format": {func(c *BaseConfig) { c.LogFormat = "invalid" }, false},
		"bad log level":  {func(c *BaseConfig) { c.LogLevel = "loud" }, false},
		"bad backend":    {func(c *BaseConfig) { c.DBBackend = "cleveldb" }, false},
		"no chain id":    {func(c *BaseConfig) { c.ChainID = "" }, false},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			cfg := TestBaseConfig()
			tc.modify(&cfg)
			if tc.ok {
				assert.NoError(t, cfg.ValidateBasic())
			} else {
				assert.Error(t, cfg.ValidateBasic())
			}
		})
	}
}

func TestABCIConfigValidateBasic(t *testing.T) {
	cfg := DefaultABCIConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.Transport = "http"
	assert.Error(t, cfg.ValidateBasic())

	cfg = DefaultABCIConfig()
	cfg.ListenAddress = ""
	assert.Error(t, cfg.ValidateBasic())
}

func TestMarketConfigEngineConfig(t *testing.T) {
	cfg := DefaultMarketConfig()
	cfg.ExcessPayment = "REFUND"
	cfg.SellerEarlySettle = true
	cfg.MaxAuctionDuration = 3600
	cfg.FeeBasisPoints = 50
	cfg.FeeCollector = "0x00000000000000000000000000000000000000fe"

	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.EqualValues(t, "refund", ec.ExcessPayment)
	assert.True(t, ec.SellerEarlySettle)
	assert.Equal(t, int64(3600), ec.MaxAuctionDuration)
	assert.Equal(t, uint32(50), ec.FeeBasisPoints)

	cfg.ExcessPayment = "donate"
	_, err = cfg.EngineConfig()
	assert.Error(t, err)

	cfg = DefaultMarketConfig()
	cfg.FeeCollector = "not-an-address"
	_, err = cfg.EngineConfig()
	assert.Error(t, err)
}

func TestIndexerConfigValidateBasic(t *testing.T) {
	testCases := map[string]struct {
		cfg IndexerConfig
		ok  bool
	}{
		"null":            {IndexerConfig{Sinks: []string{"null"}}, true},
		"none":            {IndexerConfig{}, true},
		"kv and psql":     {IndexerConfig{Sinks: []string{"kv", "psql"}, PsqlConn: "postgres://x"}, true},
		"psql no conn":    {IndexerConfig{Sinks: []string{"psql"}}, false},
		"pubsub no topic": {IndexerConfig{Sinks: []string{"pubsub"}, PubsubProject: "p"}, false},
		"duplicated":      {IndexerConfig{Sinks: []string{"kv", "KV"}}, false},
		"unknown":         {IndexerConfig{Sinks: []string{"kafka"}}, false},
		"negative queue":  {IndexerConfig{QueueSize: -1}, false},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			if tc.ok {
				assert.NoError(t, tc.cfg.ValidateBasic())
			} else {
				assert.Error(t, tc.cfg.ValidateBasic())
			}
		})
	}
}

func TestInstrumentationConfigValidateBasic(t *testing.T) {
	cfg := DefaultInstrumentationConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.MaxOpenConnections = -1
	assert.Error(t, cfg.ValidateBasic())
}
