// Package registry records who owns each token and which accounts may mint.
package registry

import (
	"fmt"
	"sort"

	"github.com/Nish0483/NFT-market/types"
)

// Asset is a minted token and its current owner.
type Asset struct {
	TokenID uint64        `json:"token_id"`
	Owner   types.Address `json:"owner"`
}

// Registry maps token ids to owners and holds the minter set. It is not
// safe for concurrent use; the market engine serializes access.
type Registry struct {
	owners  map[uint64]types.Address
	minters map[types.Address]struct{}
}

// New returns a registry whose minter set is minters.
func New(minters ...types.Address) *Registry {
	r := &Registry{
		owners:  make(map[uint64]types.Address),
		minters: make(map[types.Address]struct{}, len(minters)),
	}
	for _, m := range minters {
		r.minters[m] = struct{}{}
	}
	return r
}

// IsMinter reports whether account holds the minter role.
func (r *Registry) IsMinter(account types.Address) bool {
	_, ok := r.minters[account]
	return ok
}

// CheckMint validates a mint without applying it.
func (r *Registry) CheckMint(caller, to types.Address, id uint64) error {
	if !r.IsMinter(caller) {
		return fmt.Errorf("%w: %s", types.ErrUnauthorized, caller)
	}
	if err := types.ValidateAddress(to); err != nil {
		return err
	}
	if owner, ok := r.owners[id]; ok {
		return fmt.Errorf("%w: token %d is owned by %s", types.ErrDuplicateAsset, id, owner)
	}
	return nil
}

// Mint creates token id owned by to. The caller must be a minter.
func (r *Registry) Mint(caller, to types.Address, id uint64) error {
	if err := r.CheckMint(caller, to, id); err != nil {
		return err
	}
	r.owners[id] = to
	return nil
}

// OwnerOf returns the current owner of id.
func (r *Registry) OwnerOf(id uint64) (types.Address, error) {
	owner, ok := r.owners[id]
	if !ok {
		return types.Address{}, fmt.Errorf("%w: %d", types.ErrUnknownAsset, id)
	}
	return owner, nil
}

// CheckTransfer validates a transfer without applying it.
func (r *Registry) CheckTransfer(id uint64, from, to types.Address) error {
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: token %d is owned by %s, not %s", types.ErrNotOwner, id, owner, from)
	}
	return types.ValidateAddress(to)
}

// Transfer rebinds ownership of id from from to to. It is only called by the
// engine while settling a sale.
func (r *Registry) Transfer(id uint64, from, to types.Address) error {
	if err := r.CheckTransfer(id, from, to); err != nil {
		return err
	}
	r.owners[id] = to
	return nil
}

// GrantMinter adds account to the minter set. It reports whether the set changed.
func (r *Registry) GrantMinter(account types.Address) bool {
	if r.IsMinter(account) {
		return false
	}
	r.minters[account] = struct{}{}
	return true
}

// RevokeMinter removes account from the minter set. It reports whether the set changed.
func (r *Registry) RevokeMinter(account types.Address) bool {
	if !r.IsMinter(account) {
		return false
	}
	delete(r.minters, account)
	return true
}

// Minters returns the minter set in byte order.
func (r *Registry) Minters() []types.Address {
	out := make([]types.Address, 0, len(r.minters))
	for m := range r.minters {
		out = append(out, m)
	}
	types.SortAddresses(out)
	return out
}

// Assets returns every minted token ordered by id.
func (r *Registry) Assets() []Asset {
	out := make([]Asset, 0, len(r.owners))
	for id, owner := range r.owners {
		out = append(out, Asset{TokenID: id, Owner: owner})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out
}

// Size returns the number of minted tokens.
func (r *Registry) Size() int { return len(r.owners) }

// Restore replaces the registry contents.
func (r *Registry) Restore(assets []Asset, minters []types.Address) {
	r.owners = make(map[uint64]types.Address, len(assets))
	for _, a := range assets {
		r.owners[a.TokenID] = a.Owner
	}
	r.minters = make(map[types.Address]struct{}, len(minters))
	for _, m := range minters {
		r.minters[m] = struct{}{}
	}
}
