package types

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies an account. It is the 20 byte address the submission
// layer recovered from the transaction signature.
type Address = common.Address

// ParseAddress parses a 0x-prefixed hex address. The zero address is
// rejected: it is never a valid account.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)
	if err := ValidateAddress(addr); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// ValidateAddress returns ErrInvalidAddress for the zero address.
func ValidateAddress(addr Address) error {
	if addr == (Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return nil
}

// SortAddresses sorts addrs in place by their byte value.
func SortAddresses(addrs []Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i].Bytes(), addrs[j].Bytes()) < 0
	})
}
