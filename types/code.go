package types

// CodeType is the ABCI response code reported for a failed transaction or
// query. Codes are stable: clients match on them instead of on log text.
type CodeType uint32

const (
	CodeTypeOK CodeType = 0

	CodeTypeEncodingError  CodeType = 1
	CodeTypeUnknownRequest CodeType = 2
	CodeTypeInternalError  CodeType = 3

	CodeTypeUnauthorized        CodeType = 10
	CodeTypeNotOwner            CodeType = 11
	CodeTypeDuplicateAsset      CodeType = 12
	CodeTypeAlreadyListed       CodeType = 13
	CodeTypeUnknownAsset        CodeType = 14
	CodeTypeUnknownAuction      CodeType = 15
	CodeTypeNotListed           CodeType = 16
	CodeTypeInvalidDuration     CodeType = 17
	CodeTypeInsufficientPayment CodeType = 18
	CodeTypeExcessPayment       CodeType = 19
	CodeTypeBidTooLow           CodeType = 20
	CodeTypeAuctionClosed       CodeType = 21
	CodeTypeAlreadySettled      CodeType = 22
	CodeTypeAuctionOpen         CodeType = 23
	CodeTypeSelfTrade           CodeType = 24
	CodeTypeInvalidAddress      CodeType = 25
	CodeTypeInvalidAmount       CodeType = 26
	CodeTypeNothingToWithdraw   CodeType = 27
)

var code2string = map[CodeType]string{
	CodeTypeOK:                  "OK",
	CodeTypeEncodingError:       "Encoding error",
	CodeTypeUnknownRequest:      "Unknown request",
	CodeTypeInternalError:       "Internal error",
	CodeTypeUnauthorized:        "Unauthorized",
	CodeTypeNotOwner:            "Not owner",
	CodeTypeDuplicateAsset:      "Duplicate asset",
	CodeTypeAlreadyListed:       "Already listed",
	CodeTypeUnknownAsset:        "Unknown asset",
	CodeTypeUnknownAuction:      "Unknown auction",
	CodeTypeNotListed:           "Not listed",
	CodeTypeInvalidDuration:     "Invalid duration",
	CodeTypeInsufficientPayment: "Insufficient payment",
	CodeTypeExcessPayment:       "Excess payment",
	CodeTypeBidTooLow:           "Bid too low",
	CodeTypeAuctionClosed:       "Auction closed",
	CodeTypeAlreadySettled:      "Already settled",
	CodeTypeAuctionOpen:         "Auction open",
	CodeTypeSelfTrade:           "Self trade",
	CodeTypeInvalidAddress:      "Invalid address",
	CodeTypeInvalidAmount:       "Invalid amount",
	CodeTypeNothingToWithdraw:   "Nothing to withdraw",
}

func (c CodeType) IsOK() bool { return c == CodeTypeOK }

// HumanCode transforms code into a more humane format, such as "Bid too low" instead of 20.
func HumanCode(code CodeType) string {
	s, ok := code2string[code]
	if !ok {
		return "Unknown code"
	}
	return s
}
