package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Nish0483/NFT-market/types"
)

// Transaction types.
const (
	TxTypeMint         = "mint"
	TxTypeListFixed    = "list_fixed"
	TxTypeCancelFixed  = "cancel_fixed"
	TxTypeListAuction  = "list_auction"
	TxTypePlaceBid     = "place_bid"
	TxTypeBuyFixed     = "buy_fixed"
	TxTypeSettle       = "settle"
	TxTypeWithdraw     = "withdraw"
	TxTypeGrantMinter  = "grant_minter"
	TxTypeRevokeMinter = "revoke_minter"
)

// Tx is a marketplace transaction. Sender is the account the submission
// layer authenticated; Value is the payment attached to bids and purchases.
type Tx struct {
	Type     string        `json:"type"`
	Sender   types.Address `json:"sender"`
	TokenID  uint64        `json:"token_id,omitempty"`
	To       types.Address `json:"to"`
	Price    *types.Amount `json:"price,omitempty"`
	Duration int64         `json:"duration,omitempty"`
	Value    *types.Amount `json:"value,omitempty"`
}

// DecodeTx parses a JSON encoded transaction. Unknown fields are rejected.
func DecodeTx(bz []byte) (Tx, error) {
	var tx Tx
	dec := json.NewDecoder(bytes.NewReader(bz))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tx); err != nil {
		return Tx{}, fmt.Errorf("%w: %v", types.ErrEncodingError, err)
	}
	if dec.More() {
		return Tx{}, fmt.Errorf("%w: trailing data after transaction", types.ErrEncodingError)
	}
	return tx, nil
}

// Encode returns the JSON encoding of tx.
func (tx Tx) Encode() []byte {
	bz, err := json.Marshal(tx)
	if err != nil {
		panic(err)
	}
	return bz
}

// ValidateBasic performs the checks that do not depend on marketplace state.
func (tx Tx) ValidateBasic() error {
	if err := types.ValidateAddress(tx.Sender); err != nil {
		return fmt.Errorf("sender: %w", err)
	}

	switch tx.Type {
	case TxTypeMint, TxTypeGrantMinter, TxTypeRevokeMinter:
		if err := types.ValidateAddress(tx.To); err != nil {
			return fmt.Errorf("to: %w", err)
		}
	case TxTypeListFixed:
		return validatePayment("price", tx.Price)
	case TxTypeListAuction:
		if tx.Duration <= 0 {
			return fmt.Errorf("%w: %d", types.ErrInvalidDuration, tx.Duration)
		}
	case TxTypePlaceBid, TxTypeBuyFixed:
		return validatePayment("value", tx.Value)
	case TxTypeCancelFixed, TxTypeSettle, TxTypeWithdraw:
	case "":
		return fmt.Errorf("%w: missing transaction type", types.ErrUnknownRequest)
	default:
		return fmt.Errorf("%w: transaction type %q", types.ErrUnknownRequest, tx.Type)
	}
	return nil
}

func validatePayment(field string, a *types.Amount) error {
	if a == nil {
		return fmt.Errorf("%w: %s is required", types.ErrInvalidAmount, field)
	}
	if err := types.ValidateAmount(*a); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func amountOf(a *types.Amount) types.Amount {
	if a == nil {
		return types.ZeroAmount
	}
	return *a
}
