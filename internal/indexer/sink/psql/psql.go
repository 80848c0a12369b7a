// Package psql implements an event sink backed by a PostgreSQL database.
package psql

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/adlio/schema"
	"github.com/jmoiron/sqlx"

	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/types"

	// Register the Postgres database driver.
	_ "github.com/lib/pq"
)

var (
	_ indexer.EventSink     = (*EventSink)(nil)
	_ indexer.TokenSearcher = (*EventSink)(nil)
)

const (
	TableEvents = "market_events"
	DriverName  = "postgres"
)

//go:embed schema.sql
var schemaSQL string

// Migrations returns the schema migrations of the sink.
func Migrations() []*schema.Migration {
	return []*schema.Migration{{
		ID:     "2022-06-01 market events",
		Script: schemaSQL,
	}}
}

// EventSink is an indexer backend storing marketplace events in a PostgreSQL
// database using the schema defined in schema.sql.
type EventSink struct {
	store   *sqlx.DB
	chainID string
}

// NewEventSink constructs an event sink associated with the PostgreSQL
// database specified by connStr. Events written to the sink are attributed to
// the specified chainID.
func NewEventSink(connStr, chainID string) (*EventSink, error) {
	db, err := sqlx.Open(DriverName, connStr)
	if err != nil {
		return nil, err
	}

	return &EventSink{
		store:   db,
		chainID: chainID,
	}, nil
}

// DB returns the underlying Postgres connection used by the sink.
// This is exported to support testing.
func (es *EventSink) DB() *sqlx.DB { return es.store }

// Migrate applies the schema migrations that have not run yet.
func (es *EventSink) Migrate() error {
	return schema.NewMigrator().Apply(es.store.DB, Migrations())
}

// Type returns the structure type for this sink, which is Postgres.
func (es *EventSink) Type() indexer.EventSinkType { return indexer.PSQL }

// IndexBatch inserts the records of b. Records already stored are skipped.
func (es *EventSink) IndexBatch(ctx context.Context, b indexer.Batch) error {
	if len(b.Records) == 0 {
		return nil
	}

	stmt := sq.
		Insert(TableEvents).
		Columns("chain_id", "height", "tx_index", "event_index", "type",
			"token_id", "attributes", "block_time", "created_at").
		PlaceholderFormat(sq.Dollar).
		Suffix("ON CONFLICT (chain_id, height, tx_index, event_index)").
		Suffix("DO NOTHING")

	ts := time.Now()
	for _, r := range b.Records {
		attrs, err := json.Marshal(attributeMap(r.Event))
		if err != nil {
			return fmt.Errorf("encoding attributes: %w", err)
		}
		var tokenID interface{}
		if id, ok := r.TokenID(); ok {
			tokenID = types.FormatTokenID(id)
		}
		stmt = stmt.Values(es.chainID, r.Height, r.TxIndex, r.EventIndex, r.Event.Type,
			tokenID, string(attrs), r.Time.UTC(), ts)
	}

	_, err := stmt.RunWith(es.store.DB).ExecContext(ctx)
	return err
}

type eventRow struct {
	Height     int64     `db:"height"`
	TxIndex    int       `db:"tx_index"`
	EventIndex int       `db:"event_index"`
	Type       string    `db:"type"`
	Attributes []byte    `db:"attributes"`
	BlockTime  time.Time `db:"block_time"`
}

// SearchToken returns every record of token id in commit order.
func (es *EventSink) SearchToken(ctx context.Context, id uint64) ([]indexer.Record, error) {
	query, args, err := sq.
		Select("height", "tx_index", "event_index", "type", "attributes", "block_time").
		From(TableEvents).
		Where(sq.Eq{"chain_id": es.chainID, "token_id": types.FormatTokenID(id)}).
		OrderBy("height", "tx_index < 0", "tx_index", "event_index").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	if err := es.store.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]indexer.Record, 0, len(rows))
	for _, row := range rows {
		var attrs map[string]string
		if err := json.Unmarshal(row.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("decoding attributes at height %d: %w", row.Height, err)
		}
		out = append(out, indexer.Record{
			Height:     row.Height,
			TxIndex:    row.TxIndex,
			EventIndex: row.EventIndex,
			Time:       row.BlockTime,
			Event:      eventFromMap(row.Type, attrs),
		})
	}
	return out, nil
}

// Stop closes the underlying PostgreSQL database.
func (es *EventSink) Stop() error { return es.store.Close() }

func attributeMap(ev types.Event) map[string]string {
	m := make(map[string]string, len(ev.Attributes))
	for _, a := range ev.Attributes {
		m[a.Key] = a.Value
	}
	return m
}

// eventFromMap rebuilds an event with its attributes in canonical key order.
func eventFromMap(typ string, attrs map[string]string) types.Event {
	ev := types.Event{Type: typ, Attributes: make([]types.Attribute, 0, len(attrs))}
	for _, k := range attributeOrder {
		if v, ok := attrs[k]; ok {
			ev.Attributes = append(ev.Attributes, types.Attribute{Key: k, Value: v})
			delete(attrs, k)
		}
	}
	for k, v := range attrs {
		ev.Attributes = append(ev.Attributes, types.Attribute{Key: k, Value: v})
	}
	return ev
}

var attributeOrder = []string{
	types.AttributeKeyTokenID,
	types.AttributeKeyKind,
	types.AttributeKeyOwner,
	types.AttributeKeyCaller,
	types.AttributeKeySeller,
	types.AttributeKeyBuyer,
	types.AttributeKeyBidder,
	types.AttributeKeyAccount,
	types.AttributeKeyPrice,
	types.AttributeKeyAmount,
	types.AttributeKeyFee,
	types.AttributeKeyRefundTo,
	types.AttributeKeyRefund,
	types.AttributeKeyStartTime,
	types.AttributeKeyEndTime,
	types.AttributeKeyOutcome,
	types.AttributeKeyReceipt,
	types.AttributeKeyGranted,
}
