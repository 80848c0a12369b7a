// Package sink builds the event sinks named in the node configuration.
package sink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Nish0483/NFT-market/config"
	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/internal/indexer/sink/kv"
	"github.com/Nish0483/NFT-market/internal/indexer/sink/null"
	"github.com/Nish0483/NFT-market/internal/indexer/sink/psql"
	"github.com/Nish0483/NFT-market/internal/indexer/sink/pubsub"
)

// EventSinksFromConfig constructs a slice of indexer.EventSink using the provided
// configuration. Sinks are returned in configuration order.
func EventSinksFromConfig(cfg *config.Config, dbProvider config.DBProvider) ([]indexer.EventSink, error) {
	if len(cfg.Indexer.Sinks) == 0 {
		return []indexer.EventSink{null.NewEventSink()}, nil
	}

	// check for duplicated sinks
	seen := map[string]struct{}{}
	for _, s := range cfg.Indexer.Sinks {
		sl := strings.ToLower(s)
		if _, ok := seen[sl]; ok {
			return nil, errors.New("found duplicated sinks, please check the indexer section in the config.toml")
		}
		seen[sl] = struct{}{}
	}

	eventSinks := []indexer.EventSink{}
	for _, s := range cfg.Indexer.Sinks {
		switch indexer.EventSinkType(strings.ToLower(s)) {
		case indexer.NULL:
			// When we see null in the config, the eventsinks will be reset with the
			// nullEventSink.
			stopAll(eventSinks)
			return []indexer.EventSink{null.NewEventSink()}, nil

		case indexer.KV:
			store, err := dbProvider(&config.DBContext{ID: "events", Config: cfg})
			if err != nil {
				stopAll(eventSinks)
				return nil, err
			}
			eventSinks = append(eventSinks, kv.NewEventSink(store))

		case indexer.PSQL:
			conn := cfg.Indexer.PsqlConn
			if conn == "" {
				stopAll(eventSinks)
				return nil, errors.New("the psql connection settings cannot be empty")
			}
			es, err := psql.NewEventSink(conn, cfg.ChainID)
			if err != nil {
				stopAll(eventSinks)
				return nil, err
			}
			if err := es.Migrate(); err != nil {
				_ = es.Stop()
				stopAll(eventSinks)
				return nil, fmt.Errorf("migrating psql sink: %w", err)
			}
			eventSinks = append(eventSinks, es)

		case indexer.PUBSUB:
			es, err := pubsub.NewEventSink(cfg.Indexer.PubsubProject, cfg.Indexer.PubsubTopic, cfg.ChainID)
			if err != nil {
				stopAll(eventSinks)
				return nil, err
			}
			eventSinks = append(eventSinks, es)

		default:
			stopAll(eventSinks)
			return nil, fmt.Errorf("unsupported event sink type %q", s)
		}
	}
	return eventSinks, nil
}

func stopAll(sinks []indexer.EventSink) {
	for _, s := range sinks {
		_ = s.Stop()
	}
}
