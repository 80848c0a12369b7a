// Package pubsub implements an event sink that publishes marketplace events
// to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/Nish0483/NFT-market/internal/indexer"
)

var _ indexer.EventSink = (*EventSink)(nil)

const (
	credsEnvVar    = "GOOGLE_APPLICATION_CREDENTIALS"
	emulatorEnvVar = "PUBSUB_EMULATOR_HOST"

	AttrKeyChainID     = "chain_id"
	AttrKeyBlockHeight = "block_height"
	AttrKeyEventType   = "event_type"
	AttrKeyTokenID     = "token_id"

	setupTimeout = 15 * time.Second
)

type EventSink struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	chainID string
}

// NewEventSink connects to projectID and publishes to topic, creating it when
// missing. Without client options, credentials must come from the
// environment.
func NewEventSink(projectID, topic, chainID string, opts ...option.ClientOption) (*EventSink, error) {
	if len(opts) == 0 && os.Getenv(credsEnvVar) == "" && os.Getenv(emulatorEnvVar) == "" {
		return nil, fmt.Errorf("missing '%s' environment variable", credsEnvVar)
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	c, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create a Google Cloud Pubsub client: %w", err)
	}

	// attempt to get the topic. If that fails, we attempt to create it
	t := c.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to check for topic '%s': %w", topic, err)
	}
	if !ok {
		t, err = c.CreateTopic(ctx, topic)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create topic '%s': %w", topic, err)
		}
	}
	// keep messages of one block in order
	t.EnableMessageOrdering = true

	return &EventSink{
		client:  c,
		topic:   t,
		chainID: chainID,
	}, nil
}

func (es *EventSink) Type() indexer.EventSinkType { return indexer.PUBSUB }

// IndexBatch publishes one message per record and waits until every message
// is acknowledged by the server.
func (es *EventSink) IndexBatch(ctx context.Context, b indexer.Batch) error {
	heightStr := strconv.FormatInt(b.Height, 10)
	results := make([]*pubsub.PublishResult, 0, len(b.Records))
	for _, r := range b.Records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to JSON marshal record: %w", err)
		}
		attrs := map[string]string{
			AttrKeyChainID:     es.chainID,
			AttrKeyBlockHeight: heightStr,
			AttrKeyEventType:   r.Event.Type,
		}
		if id, ok := r.TokenID(); ok {
			attrs[AttrKeyTokenID] = strconv.FormatUint(id, 10)
		}
		results = append(results, es.topic.Publish(ctx, &pubsub.Message{
			Data:        data,
			Attributes:  attrs,
			OrderingKey: es.chainID,
		}))
	}

	for _, res := range results {
		if _, err := res.Get(ctx); err != nil {
			es.topic.ResumePublish(es.chainID)
			return fmt.Errorf("failed to publish pubsub message: %w", err)
		}
	}
	return nil
}

// Stop flushes pending messages and closes the client.
func (es *EventSink) Stop() error {
	es.topic.Stop()
	return es.client.Close()
}
