package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/types"
)

// Query paths.
const (
	QueryOwner          = "/owner"
	QueryFixed          = "/fixed"
	QueryAuction        = "/auction"
	QueryAuctionEndTime = "/auction/end_time"
	QueryBidders        = "/bidders"
	QueryBalance        = "/balance"
	QueryMinter         = "/minter"
	QueryHistory        = "/history"
)

type queryHandler func(app *Application, data []byte) (interface{}, error)

var queryRoutes = map[string]queryHandler{
	QueryOwner: func(app *Application, data []byte) (interface{}, error) {
		id, err := tokenArg(data)
		if err != nil {
			return nil, err
		}
		return app.engine.OwnerOf(id)
	},
	QueryFixed: func(app *Application, data []byte) (interface{}, error) {
		id, err := tokenArg(data)
		if err != nil {
			return nil, err
		}
		return app.engine.FixedListing(id)
	},
	QueryAuction: func(app *Application, data []byte) (interface{}, error) {
		id, err := tokenArg(data)
		if err != nil {
			return nil, err
		}
		return app.engine.AuctionData(id)
	},
	QueryAuctionEndTime: func(app *Application, data []byte) (interface{}, error) {
		id, err := tokenArg(data)
		if err != nil {
			return nil, err
		}
		return app.engine.AuctionEndTime(id)
	},
	QueryBidders: func(app *Application, data []byte) (interface{}, error) {
		id, err := tokenArg(data)
		if err != nil {
			return nil, err
		}
		bidders, err := app.engine.Bidders(id)
		if err != nil {
			return nil, err
		}
		if bidders == nil {
			bidders = []types.Address{}
		}
		return bidders, nil
	},
	QueryBalance: func(app *Application, data []byte) (interface{}, error) {
		account, err := types.ParseAddress(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, err
		}
		return app.engine.BalanceOf(account), nil
	},
	QueryMinter: func(app *Application, data []byte) (interface{}, error) {
		account, err := types.ParseAddress(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, err
		}
		return app.engine.IsMinter(account), nil
	},
	QueryHistory: func(app *Application, data []byte) (interface{}, error) {
		id, err := tokenArg(data)
		if err != nil {
			return nil, err
		}
		if app.indexer == nil {
			return nil, fmt.Errorf("%w: token history requires the kv event sink", types.ErrUnknownRequest)
		}
		searcher, ok := indexer.Searcher(app.indexer.Sinks())
		if !ok {
			return nil, fmt.Errorf("%w: token history requires the kv event sink", types.ErrUnknownRequest)
		}
		records, err := searcher.SearchToken(context.Background(), id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInternalError, err)
		}
		if records == nil {
			records = []indexer.Record{}
		}
		return records, nil
	},
}

// Query answers read-only questions about the last executed state. Data
// holds the token id in decimal, or a hex account address for /balance and
// /minter. Values are JSON encoded.
func (app *Application) Query(req abci.RequestQuery) abci.ResponseQuery {
	app.mtx.Lock()
	height := app.meta.Height
	app.mtx.Unlock()

	handler, ok := queryRoutes[req.Path]
	if !ok {
		err := fmt.Errorf("%w: query path %q", types.ErrUnknownRequest, req.Path)
		return queryError(err, req, height)
	}
	v, err := handler(app, req.Data)
	if err != nil {
		return queryError(err, req, height)
	}
	bz, err := json.Marshal(v)
	if err != nil {
		return queryError(fmt.Errorf("%w: %v", types.ErrInternalError, err), req, height)
	}
	return abci.ResponseQuery{
		Code:   uint32(types.CodeTypeOK),
		Key:    req.Data,
		Value:  bz,
		Height: height,
	}
}

func queryError(err error, req abci.RequestQuery, height int64) abci.ResponseQuery {
	return abci.ResponseQuery{
		Code:      uint32(types.CodeOf(err)),
		Log:       err.Error(),
		Key:       req.Data,
		Height:    height,
		Codespace: Codespace,
	}
}

func tokenArg(data []byte) (uint64, error) {
	return types.ParseTokenID(strings.TrimSpace(string(data)))
}
