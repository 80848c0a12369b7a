// Package kv implements an event sink that keeps the event history of every
// token in a key-value database.
package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/Nish0483/NFT-market/internal/indexer"
)

var (
	_ indexer.EventSink     = (*EventSink)(nil)
	_ indexer.TokenSearcher = (*EventSink)(nil)
)

const (
	prefixTokenEvent = int64(0)
	prefixEvent      = int64(1)
)

// EventSink stores every record under its position, and indexes records
// that name a token under that token.
type EventSink struct {
	store dbm.DB
}

func NewEventSink(store dbm.DB) *EventSink {
	return &EventSink{store: store}
}

func (kves *EventSink) Type() indexer.EventSinkType {
	return indexer.KV
}

// IndexBatch writes the records of b. Writing the same batch again overwrites
// the same keys.
func (kves *EventSink) IndexBatch(ctx context.Context, b indexer.Batch) error {
	batch := kves.store.NewBatch()
	defer batch.Close()

	for _, r := range b.Records {
		bz, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		if err := batch.Set(eventKey(r), bz); err != nil {
			return err
		}
		if id, ok := r.TokenID(); ok {
			if err := batch.Set(tokenEventKey(id, r), bz); err != nil {
				return err
			}
		}
	}
	return batch.WriteSync()
}

// SearchToken returns every record of token id in commit order.
func (kves *EventSink) SearchToken(ctx context.Context, id uint64) ([]indexer.Record, error) {
	start, err := orderedcode.Append(nil, prefixTokenEvent, id)
	if err != nil {
		return nil, err
	}
	end, err := orderedcode.Append(nil, prefixTokenEvent, id+1)
	if err != nil {
		return nil, err
	}
	if id == ^uint64(0) {
		end, err = orderedcode.Append(nil, prefixEvent)
		if err != nil {
			return nil, err
		}
	}

	iter, err := kves.store.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []indexer.Record
	for ; iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r indexer.Record
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("decoding record at key %X: %w", iter.Key(), err)
		}
		out = append(out, r)
	}
	return out, iter.Error()
}

func (kves *EventSink) Stop() error {
	return kves.store.Close()
}

// position orders records by height, then transaction, then emission.
// Events of the block end carry TxIndex -1 and sort after all transactions.
func position(r indexer.Record) (int64, int64, int64) {
	tx := int64(r.TxIndex)
	if r.TxIndex == indexer.BlockEndTxIndex {
		tx = 1<<62 - 1
	}
	return r.Height, tx, int64(r.EventIndex)
}

func eventKey(r indexer.Record) []byte {
	h, tx, ev := position(r)
	key, err := orderedcode.Append(nil, prefixEvent, h, tx, ev)
	if err != nil {
		panic(err)
	}
	return key
}

func tokenEventKey(id uint64, r indexer.Record) []byte {
	h, tx, ev := position(r)
	key, err := orderedcode.Append(nil, prefixTokenEvent, id, h, tx, ev)
	if err != nil {
		panic(err)
	}
	return key
}
