package market

import (
	"fmt"
	"strconv"

	"github.com/Nish0483/NFT-market/internal/auction"
	"github.com/Nish0483/NFT-market/types"
)

// Mint creates token id owned by to. Only minters may mint.
func (e *Engine) Mint(caller, to types.Address, id uint64) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if err := e.registry.CheckMint(caller, to, id); err != nil {
		return nil, e.reject("mint", err)
	}
	mustApply(e.registry.Mint(caller, to, id))

	e.metrics.Mints.Add(1)
	e.logger.Debug("minted token", "token", id, "owner", to)
	return []types.Event{types.NewEvent(types.EventTypeMint,
		types.AttributeKeyTokenID, types.FormatTokenID(id),
		types.AttributeKeyOwner, to.Hex(),
		types.AttributeKeyCaller, caller.Hex(),
	)}, nil
}

// GrantMinter adds account to the minter set. Only the admin may do so.
func (e *Engine) GrantMinter(caller, account types.Address) ([]types.Event, error) {
	return e.setMinter("grant_minter", caller, account, true)
}

// RevokeMinter removes account from the minter set. Only the admin may do so.
func (e *Engine) RevokeMinter(caller, account types.Address) ([]types.Event, error) {
	return e.setMinter("revoke_minter", caller, account, false)
}

func (e *Engine) setMinter(op string, caller, account types.Address, grant bool) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.admin == (types.Address{}) || caller != e.admin {
		return nil, e.reject(op, fmt.Errorf("%w: %s is not the admin", types.ErrUnauthorized, caller))
	}
	if err := types.ValidateAddress(account); err != nil {
		return nil, e.reject(op, err)
	}
	if grant {
		e.registry.GrantMinter(account)
	} else {
		e.registry.RevokeMinter(account)
	}

	e.logger.Info("updated minter set", "account", account, "granted", grant)
	return []types.Event{types.NewEvent(types.EventTypeMinter,
		types.AttributeKeyAccount, account.Hex(),
		types.AttributeKeyGranted, strconv.FormatBool(grant),
	)}, nil
}

// ListFixed offers token id for sale at price. The caller must own the token
// and the token must not be listed or auctioned.
func (e *Engine) ListFixed(caller types.Address, id uint64, price types.Amount) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	l, err := e.fixed.List(guard{e}, id, caller, price)
	if err != nil {
		return nil, e.reject("list_fixed", err)
	}

	e.metrics.Listings.With("kind", types.SaleKindFixed).Add(1)
	e.logger.Debug("listed token", "token", id, "seller", caller, "price", price)
	return []types.Event{types.NewEvent(types.EventTypeListFixed,
		types.AttributeKeyTokenID, types.FormatTokenID(id),
		types.AttributeKeySeller, l.Seller.Hex(),
		types.AttributeKeyPrice, l.Price.String(),
	)}, nil
}

// CancelFixed withdraws the fixed-price listing of token id. Only the seller
// may cancel.
func (e *Engine) CancelFixed(caller types.Address, id uint64) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	l, err := e.fixed.CheckCancel(id, caller)
	if err != nil {
		return nil, e.reject("cancel_fixed", err)
	}
	e.fixed.Remove(id)

	e.logger.Debug("cancelled listing", "token", id, "seller", caller)
	return []types.Event{types.NewEvent(types.EventTypeCancelFixed,
		types.AttributeKeyTokenID, types.FormatTokenID(id),
		types.AttributeKeySeller, l.Seller.Hex(),
	)}, nil
}

// ListAuction opens an auction of token id running duration seconds from now.
func (e *Engine) ListAuction(caller types.Address, id uint64, duration int64) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	a, err := e.auctions.List(guard{e}, id, caller, duration, e.now())
	if err != nil {
		return nil, e.reject("list_auction", err)
	}

	e.metrics.Listings.With("kind", types.SaleKindAuction).Add(1)
	e.metrics.OpenAuctions.Set(float64(e.auctions.OpenCount()))
	e.logger.Debug("opened auction", "token", id, "seller", caller, "end", a.EndTime)
	return []types.Event{types.NewEvent(types.EventTypeListAuction,
		types.AttributeKeyTokenID, types.FormatTokenID(id),
		types.AttributeKeySeller, a.Seller.Hex(),
		types.AttributeKeyStartTime, strconv.FormatInt(a.StartTime, 10),
		types.AttributeKeyEndTime, strconv.FormatInt(a.EndTime, 10),
	)}, nil
}

// PlaceBid escrows amount as a bid on the auction of token id. The bid must
// beat the current highest bid; the escrow of the bid it replaces is credited
// back to its bidder.
func (e *Engine) PlaceBid(caller types.Address, id uint64, amount types.Amount) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	refund, err := e.auctions.PlaceBid(id, caller, amount, e.now())
	if err != nil {
		return nil, e.reject("place_bid", err)
	}
	e.deposits = e.deposits.Add(amount)

	kv := []string{
		types.AttributeKeyTokenID, types.FormatTokenID(id),
		types.AttributeKeyBidder, caller.Hex(),
		types.AttributeKeyAmount, amount.String(),
	}
	if refund != nil {
		e.ledger.Credit(refund.Bidder, refund.Amount)
		kv = append(kv,
			types.AttributeKeyRefundTo, refund.Bidder.Hex(),
			types.AttributeKeyRefund, refund.Amount.String(),
		)
	}

	e.metrics.Bids.Add(1)
	e.logger.Debug("accepted bid", "token", id, "bidder", caller, "amount", amount)
	return []types.Event{types.NewEvent(types.EventTypeBid, kv...)}, nil
}

// BuyFixed buys the fixed-price listing of token id with payment. Payment
// above the price is handled by the configured excess policy.
func (e *Engine) BuyFixed(caller types.Address, id uint64, payment types.Amount) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	p, err := e.fixed.CheckBuy(id, caller, payment, e.cfg.ExcessPayment)
	if err != nil {
		return nil, e.reject("buy_fixed", err)
	}
	if err := e.registry.CheckTransfer(id, p.Listing.Seller, caller); err != nil {
		return nil, e.reject("buy_fixed", err)
	}

	e.fixed.Remove(id)
	mustApply(e.registry.Transfer(id, p.Listing.Seller, caller))
	e.deposits = e.deposits.Add(p.Paid)
	fee := e.payout(p.Listing.Seller, p.Proceeds)
	e.ledger.Credit(caller, p.Change)
	receipt := e.nextReceipt(id)

	e.metrics.Sales.With("kind", types.SaleKindFixed).Add(1)
	e.metrics.SaleVolume.With("kind", types.SaleKindFixed).Add(etherFloat(p.Proceeds))
	e.logger.Info("sold token",
		"token", id, "seller", p.Listing.Seller, "buyer", caller,
		"price", p.Listing.Price, "receipt", receipt)

	kv := []string{
		types.AttributeKeyTokenID, types.FormatTokenID(id),
		types.AttributeKeyKind, types.SaleKindFixed,
		types.AttributeKeySeller, p.Listing.Seller.Hex(),
		types.AttributeKeyBuyer, caller.Hex(),
		types.AttributeKeyPrice, p.Proceeds.String(),
		types.AttributeKeyFee, fee.String(),
		types.AttributeKeyReceipt, receipt,
	}
	if p.Change.IsPositive() {
		kv = append(kv,
			types.AttributeKeyRefundTo, caller.Hex(),
			types.AttributeKeyRefund, p.Change.String(),
		)
	}
	return []types.Event{types.NewEvent(types.EventTypeSale, kv...)}, nil
}

// Settle closes the auction of token id. Once the auction has ended anyone
// may settle it; before that only the seller may, and only when early
// settlement is enabled.
func (e *Engine) Settle(caller types.Address, id uint64) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	now := e.now()
	a, err := e.auctions.CheckSettle(id, caller, now, e.cfg.SellerEarlySettle)
	if err != nil {
		return nil, e.reject("settle", err)
	}
	if a.HasBids() {
		if err := e.registry.CheckTransfer(id, a.Seller, *a.HighestBidder); err != nil {
			return nil, e.reject("settle", err)
		}
	}
	return e.settle(a), nil
}

// SettleExpired settles every open auction whose end time has passed, in
// ascending token id order.
func (e *Engine) SettleExpired() []types.Event {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	now := e.now()
	var events []types.Event
	for _, id := range e.auctions.Expired(now) {
		a, err := e.auctions.CheckSettle(id, types.Address{}, now, false)
		if err == nil && a.HasBids() {
			err = e.registry.CheckTransfer(id, a.Seller, *a.HighestBidder)
		}
		if err != nil {
			e.logger.Error("failed to settle expired auction", "token", id, "err", err)
			continue
		}
		events = append(events, e.settle(a)...)
	}
	return events
}

// settle applies a checked settlement of a.
func (e *Engine) settle(a auction.Auction) []types.Event {
	id := a.TokenID
	settled := e.auctions.MarkSettled(id, e.now())
	e.metrics.OpenAuctions.Set(float64(e.auctions.OpenCount()))

	if !a.HasBids() {
		e.metrics.Settlements.With("outcome", types.OutcomeNoBids).Add(1)
		e.logger.Info("settled auction without bids", "token", id, "seller", a.Seller)
		return []types.Event{types.NewEvent(types.EventTypeSettle,
			types.AttributeKeyTokenID, types.FormatTokenID(id),
			types.AttributeKeySeller, a.Seller.Hex(),
			types.AttributeKeyOutcome, types.OutcomeNoBids,
			types.AttributeKeyEndTime, strconv.FormatInt(settled.EndTime, 10),
		)}
	}

	winner := *a.HighestBidder
	mustApply(e.registry.Transfer(id, a.Seller, winner))
	fee := e.payout(a.Seller, a.HighestBid)
	receipt := e.nextReceipt(id)

	e.metrics.Settlements.With("outcome", types.OutcomeSold).Add(1)
	e.metrics.Sales.With("kind", types.SaleKindAuction).Add(1)
	e.metrics.SaleVolume.With("kind", types.SaleKindAuction).Add(etherFloat(a.HighestBid))
	e.logger.Info("settled auction",
		"token", id, "seller", a.Seller, "winner", winner,
		"price", a.HighestBid, "receipt", receipt)

	return []types.Event{
		types.NewEvent(types.EventTypeSettle,
			types.AttributeKeyTokenID, types.FormatTokenID(id),
			types.AttributeKeySeller, a.Seller.Hex(),
			types.AttributeKeyOutcome, types.OutcomeSold,
			types.AttributeKeyEndTime, strconv.FormatInt(settled.EndTime, 10),
		),
		types.NewEvent(types.EventTypeSale,
			types.AttributeKeyTokenID, types.FormatTokenID(id),
			types.AttributeKeyKind, types.SaleKindAuction,
			types.AttributeKeySeller, a.Seller.Hex(),
			types.AttributeKeyBuyer, winner.Hex(),
			types.AttributeKeyPrice, a.HighestBid.String(),
			types.AttributeKeyFee, fee.String(),
			types.AttributeKeyReceipt, receipt,
		),
	}
}

// Withdraw pays out the whole withdrawable balance of the caller.
func (e *Engine) Withdraw(caller types.Address) ([]types.Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	amount, err := e.ledger.Withdraw(caller)
	if err != nil {
		return nil, e.reject("withdraw", err)
	}
	e.withdrawals = e.withdrawals.Add(amount)

	e.logger.Debug("withdrew balance", "account", caller, "amount", amount)
	return []types.Event{types.NewEvent(types.EventTypeWithdraw,
		types.AttributeKeyAccount, caller.Hex(),
		types.AttributeKeyAmount, amount.String(),
	)}, nil
}
