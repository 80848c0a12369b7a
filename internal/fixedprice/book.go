// Package fixedprice holds offers to sell a token at a seller-chosen price.
package fixedprice

import (
	"fmt"
	"sort"

	"github.com/Nish0483/NFT-market/types"
)

// ExcessPolicy decides what happens to a payment above the listing price.
type ExcessPolicy string

const (
	// ExcessReject requires the exact price; overpayment fails with ErrExcessPayment.
	ExcessReject ExcessPolicy = "reject"
	// ExcessRefund credits the difference to the buyer's withdrawable balance.
	ExcessRefund ExcessPolicy = "refund"
	// ExcessKeep pays the whole amount to the seller.
	ExcessKeep ExcessPolicy = "keep"
)

// ValidateBasic performs basic validation.
func (p ExcessPolicy) ValidateBasic() error {
	switch p {
	case ExcessReject, ExcessRefund, ExcessKeep:
		return nil
	default:
		return fmt.Errorf("unknown excess payment policy %q (must be reject, refund or keep)", string(p))
	}
}

// Listing is an offer to sell TokenID for Price.
type Listing struct {
	TokenID uint64        `json:"token_id"`
	Seller  types.Address `json:"seller"`
	Price   types.Amount  `json:"price"`
}

// Purchase is a validated, not yet applied, fixed-price sale.
type Purchase struct {
	Listing Listing
	Buyer   types.Address
	Paid    types.Amount
	// Proceeds is the part of Paid that goes to the seller, before fees.
	Proceeds types.Amount
	// Change is the part of Paid returned to the buyer.
	Change types.Amount
}

// Guard exposes the cross-book state a listing must be checked against.
type Guard interface {
	OwnerOf(id uint64) (types.Address, error)
	Listed(id uint64) bool
}

// Book holds at most one listing per token.
type Book struct {
	listings map[uint64]Listing
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{listings: make(map[uint64]Listing)}
}

// CheckList validates a listing without recording it.
func (b *Book) CheckList(g Guard, id uint64, seller types.Address, price types.Amount) error {
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
	return types.ValidateAmount(price)
}

// List records an offer by seller to sell id for price.
func (b *Book) List(g Guard, id uint64, seller types.Address, price types.Amount) (Listing, error) {
	if err := b.CheckList(g, id, seller, price); err != nil {
		return Listing{}, err
	}
	l := Listing{TokenID: id, Seller: seller, Price: price}
	b.listings[id] = l
	return l, nil
}

// Get returns the listing for id.
func (b *Book) Get(id uint64) (Listing, bool) {
	l, ok := b.listings[id]
	return l, ok
}

// Has reports whether id is listed.
func (b *Book) Has(id uint64) bool {
	_, ok := b.listings[id]
	return ok
}

// CheckBuy validates a purchase of id by buyer with payment and returns how
// the payment splits. The book is not modified.
func (b *Book) CheckBuy(id uint64, buyer types.Address, payment types.Amount, policy ExcessPolicy) (Purchase, error) {
	l, ok := b.listings[id]
	if !ok {
		return Purchase{}, fmt.Errorf("%w: %d", types.ErrNotListed, id)
	}
	if buyer == l.Seller {
		return Purchase{}, fmt.Errorf("%w: %s owns token %d", types.ErrSelfTrade, buyer, id)
	}
	if err := types.ValidateAmount(payment); err != nil {
		return Purchase{}, err
	}
	if payment.LessThan(l.Price) {
		return Purchase{}, fmt.Errorf("%w: paid %s, price %s", types.ErrInsufficientPayment, payment, l.Price)
	}

	p := Purchase{
		Listing:  l,
		Buyer:    buyer,
		Paid:     payment,
		Proceeds: l.Price,
		Change:   types.ZeroAmount,
	}
	if payment.Equal(l.Price) {
		return p, nil
	}
	switch policy {
	case ExcessRefund:
		p.Change = payment.Sub(l.Price)
	case ExcessKeep:
		p.Proceeds = payment
	default:
		return Purchase{}, fmt.Errorf("%w: paid %s, price %s", types.ErrExcessPayment, payment, l.Price)
	}
	return p, nil
}

// CheckCancel validates that caller may withdraw the listing for id.
func (b *Book) CheckCancel(id uint64, caller types.Address) (Listing, error) {
	l, ok := b.listings[id]
	if !ok {
		return Listing{}, fmt.Errorf("%w: %d", types.ErrNotListed, id)
	}
	if l.Seller != caller {
		return Listing{}, fmt.Errorf("%w: token %d is listed by %s", types.ErrNotOwner, id, l.Seller)
	}
	return l, nil
}

// Remove deletes the listing for id, if any.
func (b *Book) Remove(id uint64) {
	delete(b.listings, id)
}

// Len returns the number of listings.
func (b *Book) Len() int { return len(b.listings) }

// Listings returns every listing ordered by token id.
func (b *Book) Listings() []Listing {
	out := make([]Listing, 0, len(b.listings))
	for _, l := range b.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out
}

// Restore replaces the book contents.
func (b *Book) Restore(listings []Listing) {
	b.listings = make(map[uint64]Listing, len(listings))
	for _, l := range listings {
		b.listings[l.TokenID] = l
	}
}
