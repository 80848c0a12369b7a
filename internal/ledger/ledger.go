// Package ledger tracks withdrawable balances owed to accounts: sale
// proceeds, refunds of outbid escrow and returned overpayment.
package ledger

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Nish0483/NFT-market/types"
)

// Balance is the amount owed to one account.
type Balance struct {
	Account types.Address `json:"account"`
	Amount  types.Amount  `json:"amount"`
}

// Ledger holds pending balances. Zero balances are not stored.
type Ledger struct {
	balances map[types.Address]types.Amount
}

func New() *Ledger {
	return &Ledger{balances: make(map[types.Address]types.Amount)}
}

// Credit adds amount to the balance of account. Zero credits are ignored.
func (l *Ledger) Credit(account types.Address, amount types.Amount) {
	if amount.Sign() <= 0 {
		return
	}
	if b, ok := l.balances[account]; ok {
		amount = b.Add(amount)
	}
	l.balances[account] = amount
}

// BalanceOf returns the withdrawable balance of account.
func (l *Ledger) BalanceOf(account types.Address) types.Amount {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return types.ZeroAmount
}

// CheckWithdraw returns the amount a withdrawal by account would pay out.
func (l *Ledger) CheckWithdraw(account types.Address) (types.Amount, error) {
	b, ok := l.balances[account]
	if !ok {
		return types.ZeroAmount, fmt.Errorf("%w: %s", types.ErrNothingToWithdraw, account)
	}
	return b, nil
}

// Withdraw clears the balance of account and returns it.
func (l *Ledger) Withdraw(account types.Address) (types.Amount, error) {
	b, err := l.CheckWithdraw(account)
	if err != nil {
		return b, err
	}
	delete(l.balances, account)
	return b, nil
}

// Total returns the sum of all balances.
func (l *Ledger) Total() types.Amount {
	sum := types.ZeroAmount
	for _, b := range l.balances {
		sum = sum.Add(b)
	}
	return sum
}

// Balances returns every non-zero balance ordered by account.
func (l *Ledger) Balances() []Balance {
	out := make([]Balance, 0, len(l.balances))
	for a, b := range l.balances {
		out = append(out, Balance{Account: a, Amount: b})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Account.Bytes(), out[j].Account.Bytes()) < 0
	})
	return out
}

// Restore replaces the ledger contents.
func (l *Ledger) Restore(balances []Balance) {
	l.balances = make(map[types.Address]types.Amount, len(balances))
	for _, b := range balances {
		l.Credit(b.Account, b.Amount)
	}
}
