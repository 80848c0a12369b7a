package null

import (
	"context"

	"github.com/Nish0483/NFT-market/internal/indexer"
)

var _ indexer.EventSink = (*EventSink)(nil)

// EventSink implements a no-op indexer.
type EventSink struct{}

func NewEventSink() indexer.EventSink {
	return &EventSink{}
}

func (nes *EventSink) Type() indexer.EventSinkType {
	return indexer.NULL
}

func (nes *EventSink) IndexBatch(ctx context.Context, b indexer.Batch) error {
	return nil
}

func (nes *EventSink) Stop() error {
	return nil
}
