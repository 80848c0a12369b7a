package auction

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Nish0483/NFT-market/types"
)

// Guard exposes the cross-book state a listing must be checked against.
type Guard interface {
	OwnerOf(id uint64) (types.Address, error)
	Listed(id uint64) bool
}

// Book holds the latest auction of every token that was ever auctioned.
type Book struct {
	auctions map[uint64]*Auction

	// maxDuration bounds auction length in seconds; zero means unbounded.
	maxDuration int64
}

// NewBook returns an empty book. maxDuration bounds auction length in
// seconds; zero disables the bound.
func NewBook(maxDuration int64) *Book {
	return &Book{
		auctions:    make(map[uint64]*Auction),
		maxDuration: maxDuration,
	}
}

// IsOpen reports whether id has an open auction.
func (b *Book) IsOpen(id uint64) bool {
	a, ok := b.auctions[id]
	return ok && a.IsOpen()
}

// Get returns a copy of the latest auction of id.
func (b *Book) Get(id uint64) (Auction, bool) {
	a, ok := b.auctions[id]
	if !ok {
		return Auction{}, false
	}
	return a.Copy(), true
}

func (b *Book) lookup(id uint64) (*Auction, error) {
	a, ok := b.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownAuction, id)
	}
	return a, nil
}

// CheckList validates a new auction without recording it.
func (b *Book) CheckList(g Guard, id uint64, seller types.Address, duration int64, now time.Time) error {
	owner, err := g.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != seller {
		return fmt.Errorf("%w: token %d is owned by %s", types.ErrNotOwner, id, owner)
	}
	if g.Listed(id) {
		return fmt.Errorf("%w: token %d", types.ErrAlreadyListed, id)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: %d must be positive", types.ErrInvalidDuration, duration)
	}
	if b.maxDuration > 0 && duration > b.maxDuration {
		return fmt.Errorf("%w: %d exceeds the maximum of %d", types.ErrInvalidDuration, duration, b.maxDuration)
	}
	if duration > math.MaxInt64-now.Unix() {
		return fmt.Errorf("%w: %d overflows the end time", types.ErrInvalidDuration, duration)
	}
	return nil
}

// List opens an auction of id by seller running for duration seconds from now.
// A settled auction of the same token is replaced.
func (b *Book) List(g Guard, id uint64, seller types.Address, duration int64, now time.Time) (Auction, error) {
	if err := b.CheckList(g, id, seller, duration, now); err != nil {
		return Auction{}, err
	}
	start := now.Unix()
	a := &Auction{
		TokenID:    id,
		Seller:     seller,
		StartTime:  start,
		EndTime:    start + duration,
		HighestBid: types.ZeroAmount,
		Bidders:    []types.Address{},
		Bids:       []Bid{},
		Status:     StatusOpen,
	}
	b.auctions[id] = a
	return a.Copy(), nil
}

// CheckBid validates a bid without recording it. It returns the refund owed
// to the bidder being outbid, if any.
func (b *Book) CheckBid(id uint64, bidder types.Address, amount types.Amount, now time.Time) (*Refund, error) {
	a, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	if !a.IsOpen() {
		return nil, fmt.Errorf("%w: auction of token %d was settled", types.ErrAuctionClosed, id)
	}
	if a.Ended(now.Unix()) {
		return nil, fmt.Errorf("%w: auction of token %d ended at %d", types.ErrAuctionClosed, id, a.EndTime)
	}
	if bidder == a.Seller {
		return nil, fmt.Errorf("%w: %s is the seller of token %d", types.ErrSelfTrade, bidder, id)
	}
	if err := types.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if !amount.GreaterThan(a.HighestBid) {
		return nil, fmt.Errorf("%w: bid %s, highest %s", types.ErrBidTooLow, amount, a.HighestBid)
	}
	if !a.HasBids() {
		return nil, nil
	}
	return &Refund{Bidder: *a.HighestBidder, Amount: a.HighestBid}, nil
}

// PlaceBid records a bid of amount by bidder. The returned refund is the
// escrow released to the previous highest bidder, nil on the first bid.
func (b *Book) PlaceBid(id uint64, bidder types.Address, amount types.Amount, now time.Time) (*Refund, error) {
	refund, err := b.CheckBid(id, bidder, amount, now)
	if err != nil {
		return nil, err
	}
	a := b.auctions[id]
	hb := bidder
	a.HighestBid = amount
	a.HighestBidder = &hb
	if !a.hasBidder(bidder) {
		a.Bidders = append(a.Bidders, bidder)
	}
	a.Bids = append(a.Bids, Bid{Bidder: bidder, Amount: amount, Time: now.Unix()})
	return refund, nil
}

// CheckSettle validates a settlement of id by caller. Before the end time
// only the seller may settle, and only when allowEarly is set.
func (b *Book) CheckSettle(id uint64, caller types.Address, now time.Time, allowEarly bool) (Auction, error) {
	a, err := b.lookup(id)
	if err != nil {
		return Auction{}, err
	}
	if !a.IsOpen() {
		return Auction{}, fmt.Errorf("%w: token %d at %d", types.ErrAlreadySettled, id, a.SettledAt)
	}
	if !a.Ended(now.Unix()) && !(allowEarly && caller == a.Seller) {
		return Auction{}, fmt.Errorf("%w: auction of token %d ends at %d", types.ErrAuctionOpen, id, a.EndTime)
	}
	return a.Copy(), nil
}

// MarkSettled closes the auction of id. The caller must have validated the
// settlement with CheckSettle.
func (b *Book) MarkSettled(id uint64, now time.Time) Auction {
	a := b.auctions[id]
	a.Status = StatusSettled
	a.SettledAt = now.Unix()
	return a.Copy()
}

// Expired returns the ids of open auctions whose end time has passed, in
// ascending order.
func (b *Book) Expired(now time.Time) []uint64 {
	ts := now.Unix()
	var ids []uint64
	for id, a := range b.auctions {
		if a.IsOpen() && a.Ended(ts) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OpenCount returns the number of open auctions.
func (b *Book) OpenCount() int {
	n := 0
	for _, a := range b.auctions {
		if a.IsOpen() {
			n++
		}
	}
	return n
}

// Escrowed returns the sum of the highest bids of open auctions.
func (b *Book) Escrowed() types.Amount {
	sum := types.ZeroAmount
	for _, a := range b.auctions {
		if a.IsOpen() && a.HasBids() {
			sum = sum.Add(a.HighestBid)
		}
	}
	return sum
}

// Auctions returns copies of every auction ordered by token id.
func (b *Book) Auctions() []Auction {
	out := make([]Auction, 0, len(b.auctions))
	for _, a := range b.auctions {
		out = append(out, a.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out
}

// Restore replaces the book contents.
func (b *Book) Restore(auctions []Auction) {
	b.auctions = make(map[uint64]*Auction, len(auctions))
	for _, a := range auctions {
		c := a.Copy()
		b.auctions[a.TokenID] = &c
	}
}
