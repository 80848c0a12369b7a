package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/Nish0483/NFT-market/config"
	"github.com/Nish0483/NFT-market/internal/indexer"
)

func memProvider(t *testing.T) (config.DBProvider, *[]string) {
	var ids []string
	return func(ctx *config.DBContext) (dbm.DB, error) {
		ids = append(ids, ctx.ID)
		return dbm.NewMemDB(), nil
	}, &ids
}

func TestEventSinksFromConfig(t *testing.T) {
	provider, ids := memProvider(t)

	cfg := config.TestConfig()
	cfg.Indexer.Sinks = nil
	sinks, err := EventSinksFromConfig(cfg, provider)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, indexer.NULL, sinks[0].Type())
	assert.False(t, indexer.IndexingEnabled(sinks))

	cfg.Indexer.Sinks = []string{"KV"}
	sinks, err = EventSinksFromConfig(cfg, provider)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, indexer.KV, sinks[0].Type())
	assert.Equal(t, []string{"events"}, *ids)
	_, ok := indexer.Searcher(sinks)
	assert.True(t, ok)

	cfg.Indexer.Sinks = []string{"kv", "null"}
	sinks, err = EventSinksFromConfig(cfg, provider)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, indexer.NULL, sinks[0].Type())
}

func TestEventSinksFromConfigErrors(t *testing.T) {
	provider, _ := memProvider(t)

	testCases := map[string]*config.IndexerConfig{
		"duplicated": {Sinks: []string{"kv", "Kv"}},
		"unknown":    {Sinks: []string{"kafka"}},
		"psql":       {Sinks: []string{"psql"}},
	}
	for name, ic := range testCases {
		ic := ic
		t.Run(name, func(t *testing.T) {
			cfg := config.TestConfig()
			cfg.Indexer = ic
			_, err := EventSinksFromConfig(cfg, provider)
			assert.Error(t, err)
		})
	}
}
