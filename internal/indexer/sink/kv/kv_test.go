package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/types"
)

func record(height int64, txIndex, eventIndex int, typ string, id uint64) indexer.Record {
	return indexer.Record{
		Height:     height,
		TxIndex:    txIndex,
		EventIndex: eventIndex,
		Time:       time.Unix(height, 0).UTC(),
		Event:      types.NewEvent(typ, types.AttributeKeyTokenID, types.FormatTokenID(id)),
	}
}

func TestType(t *testing.T) {
	es := NewEventSink(dbm.NewMemDB())
	assert.Equal(t, indexer.KV, es.Type())
}

func TestSearchToken(t *testing.T) {
	ctx := context.Background()
	es := NewEventSink(dbm.NewMemDB())

	require.NoError(t, es.IndexBatch(ctx, indexer.Batch{Height: 1, Records: []indexer.Record{
		record(1, 0, 0, types.EventTypeMint, 7),
		record(1, 1, 0, types.EventTypeMint, 8),
	}}))
	require.NoError(t, es.IndexBatch(ctx, indexer.Batch{Height: 2, Records: []indexer.Record{
		record(2, indexer.BlockEndTxIndex, 0, types.EventTypeSettle, 7),
		record(2, 0, 0, types.EventTypeListAuction, 7),
		{Height: 2, TxIndex: 1, Event: types.NewEvent(types.EventTypeWithdraw)},
	}}))

	got, err := es.SearchToken(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, types.EventTypeMint, got[0].Event.Type)
	assert.Equal(t, types.EventTypeListAuction, got[1].Event.Type)
	assert.Equal(t, types.EventTypeSettle, got[2].Event.Type, "block end events sort last")

	got, err = es.SearchToken(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndexBatchIdempotent(t *testing.T) {
	ctx := context.Background()
	es := NewEventSink(dbm.NewMemDB())
	b := indexer.Batch{Height: 1, Records: []indexer.Record{record(1, 0, 0, types.EventTypeMint, 1)}}

	require.NoError(t, es.IndexBatch(ctx, b))
	require.NoError(t, es.IndexBatch(ctx, b))

	got, err := es.SearchToken(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
