package types

import (
	"fmt"
	"strconv"
)

// Event types emitted by the marketplace.
const (
	EventTypeMint        = "mint"
	EventTypeMinter      = "minter"
	EventTypeListFixed   = "list_fixed"
	EventTypeCancelFixed = "cancel_fixed"
	EventTypeListAuction = "list_auction"
	EventTypeBid         = "bid"
	EventTypeSale        = "sale"
	EventTypeSettle      = "settle"
	EventTypeWithdraw    = "withdraw"
)

// Reserved attribute keys.
const (
	AttributeKeyTokenID   = "token_id"
	AttributeKeyOwner     = "owner"
	AttributeKeyCaller    = "caller"
	AttributeKeySeller    = "seller"
	AttributeKeyBuyer     = "buyer"
	AttributeKeyBidder    = "bidder"
	AttributeKeyAccount   = "account"
	AttributeKeyPrice     = "price"
	AttributeKeyAmount    = "amount"
	AttributeKeyFee       = "fee"
	AttributeKeyRefundTo  = "refund_to"
	AttributeKeyRefund    = "refund"
	AttributeKeyStartTime = "start_time"
	AttributeKeyEndTime   = "end_time"
	AttributeKeyKind      = "kind"
	AttributeKeyOutcome   = "outcome"
	AttributeKeyReceipt   = "receipt_id"
	AttributeKeyGranted   = "granted"
)

// Sale kinds and settlement outcomes.
const (
	SaleKindFixed   = "fixed"
	SaleKindAuction = "auction"

	OutcomeSold   = "sold"
	OutcomeNoBids = "no_bids"
)

// Attribute is a single key/value pair of an Event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a typed notification for external observers. Attribute order is
// significant and deterministic.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// NewEvent returns an event of the given type. kv holds alternating keys and
// values; a trailing key without value is dropped.
func NewEvent(typ string, kv ...string) Event {
	ev := Event{Type: typ, Attributes: make([]Attribute, 0, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Attributes = append(ev.Attributes, Attribute{Key: kv[i], Value: kv[i+1]})
	}
	return ev
}

// Get returns the value of the first attribute with the given key.
func (e Event) Get(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// FormatTokenID renders a token id the way it appears in events and keys.
func FormatTokenID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseTokenID parses a base 10 token id.
func ParseTokenID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: token id %q: %v", ErrEncodingError, s, err)
	}
	return id, nil
}
