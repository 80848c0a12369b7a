package psql

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/types"
)

const (
	user     = "postgres"
	password = "secret"
	port     = "5432"
	dsn      = "postgres://%s:%s@localhost:%s/%s?sslmode=disable"
	dbName   = "postgres"
	chainID  = "test-chain"
)

// testSink is the sink shared by the tests of this package. It is nil when
// docker is not available.
var testSink *EventSink

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool(os.Getenv("DOCKER_URL"))
	if err == nil {
		_, err = pool.Client.Info()
	}
	if err != nil {
		log.Printf("Skipping PostgreSQL tests, docker is not available: %v", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "13",
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbName,
			"listen_addresses = '*'",
		},
		ExposedPorts: []string{port},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		log.Fatalf("Starting docker pool: %v", err)
	}

	// Set the container to expire in a minute to avoid orphaned containers
	// hanging around
	_ = resource.Expire(60)

	conn := fmt.Sprintf(dsn, user, password, resource.GetPort(port+"/tcp"), dbName)
	if err := pool.Retry(func() error {
		sink, err := NewEventSink(conn, chainID)
		if err != nil {
			return err
		}
		if err := sink.DB().Ping(); err != nil {
			_ = sink.Stop()
			return err
		}
		testSink = sink
		return nil
	}); err != nil {
		log.Fatalf("Connecting to database: %v", err)
	}

	if err := testSink.Migrate(); err != nil {
		log.Fatalf("Applying database schema: %v", err)
	}

	code := m.Run()

	if err := testSink.Stop(); err != nil {
		log.Printf("Closing database: %v", err)
	}
	if err := pool.Purge(resource); err != nil {
		log.Printf("Purging resource: %v", err)
	}
	os.Exit(code)
}

func requireSink(t *testing.T) *EventSink {
	t.Helper()
	if testSink == nil {
		t.Skip("docker is not available")
	}
	return testSink
}

func TestType(t *testing.T) {
	es := &EventSink{}
	assert.Equal(t, indexer.PSQL, es.Type())
}

func TestMigrationsEmbedSchema(t *testing.T) {
	ms := Migrations()
	require.Len(t, ms, 1)
	assert.Contains(t, ms[0].Script, "CREATE TABLE market_events")
}

func TestEventFromMapOrder(t *testing.T) {
	ev := eventFromMap(types.EventTypeSale, map[string]string{
		types.AttributeKeyPrice:   "5",
		types.AttributeKeyTokenID: "1",
		types.AttributeKeyKind:    types.SaleKindFixed,
	})
	require.Len(t, ev.Attributes, 3)
	assert.Equal(t, types.AttributeKeyTokenID, ev.Attributes[0].Key)
	assert.Equal(t, types.AttributeKeyKind, ev.Attributes[1].Key)
	assert.Equal(t, types.AttributeKeyPrice, ev.Attributes[2].Key)
}

func TestIndexAndSearch(t *testing.T) {
	es := requireSink(t)
	ctx := context.Background()
	blockTime := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)

	b := indexer.Batch{Height: 3, Time: blockTime, Records: []indexer.Record{
		{
			Height: 3, TxIndex: 0, EventIndex: 0, Time: blockTime,
			Event: types.NewEvent(types.EventTypeListFixed,
				types.AttributeKeyTokenID, "11",
				types.AttributeKeySeller, "0x0000000000000000000000000000000000000001",
				types.AttributeKeyPrice, "100"),
		},
		{
			Height: 3, TxIndex: indexer.BlockEndTxIndex, EventIndex: 0, Time: blockTime,
			Event: types.NewEvent(types.EventTypeSettle, types.AttributeKeyTokenID, "11"),
		},
		{
			Height: 3, TxIndex: 1, EventIndex: 0, Time: blockTime,
			Event: types.NewEvent(types.EventTypeWithdraw, types.AttributeKeyAmount, "5"),
		},
	}}
	require.NoError(t, es.IndexBatch(ctx, b))
	require.NoError(t, es.IndexBatch(ctx, b), "indexing twice is a no-op")

	got, err := es.SearchToken(ctx, 11)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.Records[0].Event, got[0].Event)
	assert.Equal(t, types.EventTypeSettle, got[1].Event.Type)
	assert.True(t, blockTime.Equal(got[0].Time))

	var n int
	require.NoError(t, es.DB().Get(&n, "SELECT COUNT(*) FROM market_events WHERE chain_id = $1", chainID))
	assert.Equal(t, 3, n)
}
