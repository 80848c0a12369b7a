// Package indexer forwards committed marketplace events to external event
// sinks.
package indexer

import (
	"context"
	"time"

	"github.com/Nish0483/NFT-market/types"
)

type EventSinkType string

const (
	NULL   EventSinkType = "null"
	KV     EventSinkType = "kv"
	PSQL   EventSinkType = "psql"
	PUBSUB EventSinkType = "pubsub"
)

// BlockEndTxIndex is the TxIndex of events emitted while ending a block, such
// as automatic settlements.
const BlockEndTxIndex = -1

// Record is one event committed at a height.
type Record struct {
	Height     int64       `json:"height"`
	TxIndex    int         `json:"tx_index"`
	EventIndex int         `json:"event_index"`
	Time       time.Time   `json:"time"`
	Event      types.Event `json:"event"`
}

// TokenID returns the token the event refers to, if any.
func (r Record) TokenID() (uint64, bool) {
	v, ok := r.Event.Get(types.AttributeKeyTokenID)
	if !ok {
		return 0, false
	}
	id, err := types.ParseTokenID(v)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Batch holds the records of one committed block, in emission order.
type Batch struct {
	Height  int64
	Time    time.Time
	Records []Record
}

// EventSink receives committed events. Implementations must tolerate the same
// batch being indexed twice.
type EventSink interface {
	// IndexBatch indexes the records of one block.
	IndexBatch(ctx context.Context, b Batch) error

	// Type returns the type of the sink.
	Type() EventSinkType

	// Stop releases the resources of the sink.
	Stop() error
}

// TokenSearcher is implemented by sinks that can list the history of a token.
type TokenSearcher interface {
	// SearchToken returns every record of token id in commit order.
	SearchToken(ctx context.Context, id uint64) ([]Record, error)
}

// IndexingEnabled reports whether any sink stores events.
func IndexingEnabled(sinks []EventSink) bool {
	for _, s := range sinks {
		if s.Type() != NULL {
			return true
		}
	}
	return false
}

// Searcher returns the first sink able to search token history.
func Searcher(sinks []EventSink) (TokenSearcher, bool) {
	for _, s := range sinks {
		if ts, ok := s.(TokenSearcher); ok {
			return ts, true
		}
	}
	return nil, false
}
