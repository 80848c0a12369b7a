package market

import (
	"fmt"

	"github.com/Nish0483/NFT-market/internal/auction"
	"github.com/Nish0483/NFT-market/internal/fixedprice"
	"github.com/Nish0483/NFT-market/types"
)

// OwnerOf returns the owner of token id.
func (e *Engine) OwnerOf(id uint64) (types.Address, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.registry.OwnerOf(id)
}

// IsMinter reports whether account may mint.
func (e *Engine) IsMinter(account types.Address) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.registry.IsMinter(account)
}

// FixedListing returns the fixed-price listing of token id.
func (e *Engine) FixedListing(id uint64) (fixedprice.Listing, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	l, ok := e.fixed.Get(id)
	if !ok {
		return fixedprice.Listing{}, fmt.Errorf("%w: %d", types.ErrNotListed, id)
	}
	return l, nil
}

// AuctionData returns the latest auction of token id, open or settled.
func (e *Engine) AuctionData(id uint64) (auction.Auction, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.auctionData(id)
}

func (e *Engine) auctionData(id uint64) (auction.Auction, error) {
	a, ok := e.auctions.Get(id)
	if !ok {
		return auction.Auction{}, fmt.Errorf("%w: %d", types.ErrUnknownAuction, id)
	}
	return a, nil
}

// AuctionEndTime returns the end time, in unix seconds, of the latest auction
// of token id.
func (e *Engine) AuctionEndTime(id uint64) (int64, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	a, err := e.auctionData(id)
	if err != nil {
		return 0, err
	}
	return a.EndTime, nil
}

// Bidders returns the distinct bidders of the latest auction of token id in
// order of their first bid.
func (e *Engine) Bidders(id uint64) ([]types.Address, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	a, err := e.auctionData(id)
	if err != nil {
		return nil, err
	}
	return a.Bidders, nil
}

// BalanceOf returns the withdrawable balance of account.
func (e *Engine) BalanceOf(account types.Address) types.Amount {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.ledger.BalanceOf(account)
}
