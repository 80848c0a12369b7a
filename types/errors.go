package types

import (
	"errors"
)

// Error is a marketplace failure kind. Every kind is a package level
// sentinel; call sites add context with fmt.Errorf("%w: ...") and callers
// match with errors.Is.
type Error struct {
	code CodeType
	desc string
}

// NewError returns a new error kind for the given code.
func NewError(code CodeType, desc string) *Error {
	return &Error{code: code, desc: desc}
}

func (e *Error) Error() string  { return e.desc }
func (e *Error) Code() CodeType { return e.code }

var (
	ErrEncodingError  = NewError(CodeTypeEncodingError, "encoding error")
	ErrUnknownRequest = NewError(CodeTypeUnknownRequest, "unknown request")
	ErrInternalError  = NewError(CodeTypeInternalError, "internal error")

	ErrUnauthorized        = NewError(CodeTypeUnauthorized, "caller is not a minter")
	ErrNotOwner            = NewError(CodeTypeNotOwner, "caller is not the owner of the token")
	ErrDuplicateAsset      = NewError(CodeTypeDuplicateAsset, "token id already minted")
	ErrAlreadyListed       = NewError(CodeTypeAlreadyListed, "token is already listed")
	ErrUnknownAsset        = NewError(CodeTypeUnknownAsset, "unknown token")
	ErrUnknownAuction      = NewError(CodeTypeUnknownAuction, "token was never listed for auction")
	ErrNotListed           = NewError(CodeTypeNotListed, "token is not listed for fixed price")
	ErrInvalidDuration     = NewError(CodeTypeInvalidDuration, "invalid auction duration")
	ErrInsufficientPayment = NewError(CodeTypeInsufficientPayment, "payment is below the listing price")
	ErrExcessPayment       = NewError(CodeTypeExcessPayment, "payment must equal the listing price")
	ErrBidTooLow           = NewError(CodeTypeBidTooLow, "bid amount must be higher than the current highest bid")
	ErrAuctionClosed       = NewError(CodeTypeAuctionClosed, "auction is closed")
	ErrAlreadySettled      = NewError(CodeTypeAlreadySettled, "auction is already settled")
	ErrAuctionOpen         = NewError(CodeTypeAuctionOpen, "auction has not ended")
	ErrSelfTrade           = NewError(CodeTypeSelfTrade, "seller cannot trade with itself")
	ErrInvalidAddress      = NewError(CodeTypeInvalidAddress, "invalid account address")
	ErrInvalidAmount       = NewError(CodeTypeInvalidAmount, "invalid amount")
	ErrNothingToWithdraw   = NewError(CodeTypeNothingToWithdraw, "nothing to withdraw")
)

// CodeOf returns the response code of the error kind wrapped by err.
// Errors that are not marketplace kinds map to CodeTypeInternalError.
func CodeOf(err error) CodeType {
	if err == nil {
		return CodeTypeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeTypeInternalError
}
