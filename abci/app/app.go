// Package app hosts the marketplace engine as an ABCI application.
//
// Transactions are delivered in block order; the block header time is the
// only clock the engine sees. Every committed block is persisted through the
// state store and its events are handed to the indexer.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	abci "github.com/tendermint/tendermint/abci/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/internal/market"
	"github.com/Nish0483/NFT-market/internal/store"
	"github.com/Nish0483/NFT-market/libs/log"
	"github.com/Nish0483/NFT-market/types"
	"github.com/Nish0483/NFT-market/version"
)

// Codespace is reported with every failed response.
const Codespace = "market"

var _ abci.Application = (*Application)(nil)

// blockClock reports the time of the block being executed.
type blockClock struct {
	mtx sync.RWMutex
	now time.Time
}

func (c *blockClock) Now() time.Time {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.now
}

func (c *blockClock) set(t time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = t
}

// Option sets an optional parameter of the application.
type Option func(*Application)

// WithLogger sets the logger of the application and its engine.
func WithLogger(logger log.Logger) Option {
	return func(app *Application) { app.logger = logger }
}

// WithMetrics sets the engine metrics.
func WithMetrics(metrics *market.Metrics) Option {
	return func(app *Application) { app.metrics = metrics }
}

// WithIndexer forwards committed events to is.
func WithIndexer(is *indexer.Service) Option {
	return func(app *Application) { app.indexer = is }
}

// WithAutoSettle settles every expired auction at the end of each block.
func WithAutoSettle(enabled bool) Option {
	return func(app *Application) { app.autoSettle = enabled }
}

// Application is the marketplace ABCI application.
type Application struct {
	abci.BaseApplication

	engine  *market.Engine
	store   *store.StateStore
	clock   *blockClock
	indexer *indexer.Service
	metrics *market.Metrics
	logger  log.Logger

	autoSettle bool

	// mtx guards the block being executed and the last commit.
	mtx     sync.Mutex
	meta    store.Meta
	height  int64
	txIndex int
	records []indexer.Record
}

// NewApplication restores the last committed state from db and returns the
// application serving it.
func NewApplication(cfg market.Config, db dbm.DB, opts ...Option) (*Application, error) {
	if err := cfg.ValidateBasic(); err != nil {
		return nil, err
	}
	app := &Application{
		store:   store.NewStateStore(db),
		clock:   &blockClock{},
		logger:  log.NewNopLogger(),
		metrics: market.NopMetrics(),
	}
	for _, opt := range opts {
		opt(app)
	}
	app.engine = market.NewEngine(app.clock, cfg,
		market.WithLogger(app.logger.With("module", "market")),
		market.WithMetrics(app.metrics),
	)

	state, meta, err := app.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if meta.Height > 0 {
		if err := app.engine.Restore(state); err != nil {
			return nil, fmt.Errorf("restoring state at height %d: %w", meta.Height, err)
		}
	}
	app.meta = meta
	app.logger.Info("loaded state", "height", meta.Height, "app_hash", log.Hexadecimal(meta.AppHash))
	return app, nil
}

// Engine returns the engine the application drives.
func (app *Application) Engine() *market.Engine { return app.engine }

func (app *Application) Info(req abci.RequestInfo) abci.ResponseInfo {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	info := version.Info()
	return abci.ResponseInfo{
		Data:             fmt.Sprintf("{\"assets\":%d}", len(app.engine.Snapshot().Assets)),
		Version:          info.Software,
		AppVersion:       info.Protocol.Uint64(),
		LastBlockHeight:  app.meta.Height,
		LastBlockAppHash: app.meta.AppHash,
	}
}

// InitChain loads the genesis minters and assets from the app state.
func (app *Application) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	var genesis market.Genesis
	if len(req.AppStateBytes) > 0 {
		if err := json.Unmarshal(req.AppStateBytes, &genesis); err != nil {
			panic(fmt.Errorf("decoding genesis app state: %w", err))
		}
	}
	app.clock.set(req.Time)
	if err := app.engine.InitGenesis(genesis); err != nil {
		panic(fmt.Errorf("invalid genesis app state: %w", err))
	}
	app.logger.Info("initialized chain", "chain_id", req.ChainId,
		"minters", len(genesis.Minters), "assets", len(genesis.Assets))
	return abci.ResponseInitChain{}
}

// CheckTx accepts transactions that decode and pass the stateless checks.
// Whether they succeed is decided when they are delivered.
func (app *Application) CheckTx(req abci.RequestCheckTx) abci.ResponseCheckTx {
	tx, err := DecodeTx(req.Tx)
	if err == nil {
		err = tx.ValidateBasic()
	}
	if err != nil {
		return abci.ResponseCheckTx{Code: uint32(types.CodeOf(err)), Log: err.Error(), Codespace: Codespace}
	}
	return abci.ResponseCheckTx{Code: uint32(types.CodeTypeOK)}
}

func (app *Application) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	app.clock.set(req.Header.Time)
	app.height = req.Header.Height
	app.txIndex = 0
	app.records = nil
	return abci.ResponseBeginBlock{}
}

// DeliverTx routes the transaction to one engine operation. A failed
// operation leaves the marketplace unchanged and reports the error code.
func (app *Application) DeliverTx(req abci.RequestDeliverTx) abci.ResponseDeliverTx {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	txIndex := app.txIndex
	app.txIndex++

	tx, err := DecodeTx(req.Tx)
	if err == nil {
		err = tx.ValidateBasic()
	}
	var events []types.Event
	if err == nil {
		events, err = app.deliver(tx)
	}
	if err != nil {
		return abci.ResponseDeliverTx{Code: uint32(types.CodeOf(err)), Log: err.Error(), Codespace: Codespace}
	}

	app.record(txIndex, events)
	return abci.ResponseDeliverTx{Code: uint32(types.CodeTypeOK), Events: toABCIEvents(events)}
}

func (app *Application) deliver(tx Tx) ([]types.Event, error) {
	e := app.engine
	switch tx.Type {
	case TxTypeMint:
		return e.Mint(tx.Sender, tx.To, tx.TokenID)
	case TxTypeListFixed:
		return e.ListFixed(tx.Sender, tx.TokenID, amountOf(tx.Price))
	case TxTypeCancelFixed:
		return e.CancelFixed(tx.Sender, tx.TokenID)
	case TxTypeListAuction:
		return e.ListAuction(tx.Sender, tx.TokenID, tx.Duration)
	case TxTypePlaceBid:
		return e.PlaceBid(tx.Sender, tx.TokenID, amountOf(tx.Value))
	case TxTypeBuyFixed:
		return e.BuyFixed(tx.Sender, tx.TokenID, amountOf(tx.Value))
	case TxTypeSettle:
		return e.Settle(tx.Sender, tx.TokenID)
	case TxTypeWithdraw:
		return e.Withdraw(tx.Sender)
	case TxTypeGrantMinter:
		return e.GrantMinter(tx.Sender, tx.To)
	case TxTypeRevokeMinter:
		return e.RevokeMinter(tx.Sender, tx.To)
	default:
		return nil, fmt.Errorf("%w: transaction type %q", types.ErrUnknownRequest, tx.Type)
	}
}

// EndBlock settles expired auctions when auto settlement is enabled.
func (app *Application) EndBlock(req abci.RequestEndBlock) abci.ResponseEndBlock {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	if !app.autoSettle {
		return abci.ResponseEndBlock{}
	}
	events := app.engine.SettleExpired()
	if len(events) > 0 {
		app.logger.Debug("settled expired auctions", "height", req.Height, "events", len(events))
	}
	app.record(indexer.BlockEndTxIndex, events)
	return abci.ResponseEndBlock{Events: toABCIEvents(events)}
}

// Commit persists the state of the block and queues its events for
// indexing. A failed write leaves the node unable to continue, so it panics.
func (app *Application) Commit() abci.ResponseCommit {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	meta, err := app.store.Save(app.engine.Snapshot(), app.height)
	if err != nil {
		panic(fmt.Errorf("saving state at height %d: %w", app.height, err))
	}
	app.meta = meta

	if app.indexer != nil && len(app.records) > 0 {
		b := indexer.Batch{Height: app.height, Time: app.clock.Now(), Records: app.records}
		if err := app.indexer.Publish(context.Background(), b); err != nil {
			app.logger.Error("failed to queue events for indexing", "height", app.height, "err", err)
		}
	}
	app.records = nil

	app.logger.Info("committed state", "height", meta.Height, "app_hash", log.Hexadecimal(meta.AppHash))
	return abci.ResponseCommit{Data: meta.AppHash}
}

func (app *Application) record(txIndex int, events []types.Event) {
	now := app.clock.Now()
	for i, ev := range events {
		app.records = append(app.records, indexer.Record{
			Height:     app.height,
			TxIndex:    txIndex,
			EventIndex: i,
			Time:       now,
			Event:      ev,
		})
	}
}

func toABCIEvents(events []types.Event) []abci.Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]abci.Event, 0, len(events))
	for _, ev := range events {
		attrs := make([]abci.EventAttribute, 0, len(ev.Attributes))
		for _, a := range ev.Attributes {
			attrs = append(attrs, abci.EventAttribute{Key: []byte(a.Key), Value: []byte(a.Value), Index: true})
		}
		out = append(out, abci.Event{Type: ev.Type, Attributes: attrs})
	}
	return out
}
