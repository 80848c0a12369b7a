// Package auction runs time-boxed English auctions with escrowed bids.
//
// Each token moves through NoAuction -> Open -> Settled. A settled auction is
// kept for audit until the token is auctioned again.
package auction

import (
	"github.com/Nish0483/NFT-market/types"
)

// Status is the lifecycle state of an auction.
type Status string

const (
	StatusOpen    Status = "open"
	StatusSettled Status = "settled"
)

// Bid is one accepted bid.
type Bid struct {
	Bidder types.Address `json:"bidder"`
	Amount types.Amount  `json:"amount"`
	Time   int64         `json:"time"`
}

// Auction is the record of one auction of a token. Times are unix seconds.
type Auction struct {
	TokenID   uint64        `json:"token_id"`
	Seller    types.Address `json:"seller"`
	StartTime int64         `json:"start_time"`
	EndTime   int64         `json:"end_time"`

	// HighestBid is the escrowed amount of the leading bid; zero before the
	// first bid. HighestBidder is nil until a bid is accepted.
	HighestBid    types.Amount   `json:"highest_bid"`
	HighestBidder *types.Address `json:"highest_bidder"`

	// Bidders holds every distinct bidder in order of their first bid.
	Bidders []types.Address `json:"bidders"`
	// Bids logs every accepted bid.
	Bids []Bid `json:"bids"`

	Status    Status `json:"status"`
	SettledAt int64  `json:"settled_at,omitempty"`
}

// HasBids reports whether any bid was accepted.
func (a Auction) HasBids() bool { return a.HighestBidder != nil }

// IsOpen reports whether the auction has not been settled.
func (a Auction) IsOpen() bool { return a.Status == StatusOpen }

// Ended reports whether bidding is over at now.
func (a Auction) Ended(now int64) bool { return now >= a.EndTime }

// Copy returns a deep copy of a.
func (a Auction) Copy() Auction {
	c := a
	if a.HighestBidder != nil {
		hb := *a.HighestBidder
		c.HighestBidder = &hb
	}
	c.Bidders = append([]types.Address(nil), a.Bidders...)
	c.Bids = append([]Bid(nil), a.Bids...)
	return c
}

func (a *Auction) hasBidder(addr types.Address) bool {
	for _, b := range a.Bidders {
		if b == addr {
			return true
		}
	}
	return false
}

// Refund is escrow released back to an outbid bidder.
type Refund struct {
	Bidder types.Address
	Amount types.Amount
}
