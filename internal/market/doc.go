/*
Package market implements the marketplace engine: a serialized state machine
that owns token ownership, minting authorization, fixed-price listings and
time-boxed auctions with escrowed bids.

Every operation is all-or-nothing. An operation first runs the checks of every
component it touches and only then applies mutations that cannot fail, so a
rejected operation leaves the state exactly as it was.

Funds are never pushed to accounts. Sale proceeds, refunds of outbid escrow,
returned overpayment and fees are credited to a withdrawable balance which
the owner collects with Withdraw. The escrow of the leading bid stays on the
auction record until the auction is settled or the bid is outbid.

The engine never reads the wall clock. Time comes from a Clock, which the
ABCI application drives from block header time.
*/
package market
