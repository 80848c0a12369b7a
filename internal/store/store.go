package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/orderedcode"
	"github.com/tendermint/tendermint/crypto/merkle"
	dbm "github.com/tendermint/tm-db"

	"github.com/Nish0483/NFT-market/internal/auction"
	"github.com/Nish0483/NFT-market/internal/fixedprice"
	"github.com/Nish0483/NFT-market/internal/ledger"
	"github.com/Nish0483/NFT-market/internal/market"
	"github.com/Nish0483/NFT-market/internal/registry"
	"github.com/Nish0483/NFT-market/types"
)

/*
StateStore persists marketplace state at each committed height.

Every asset, minter, listing, auction and balance is kept under its own key,
so a commit rewrites only what the engine snapshot contains and removes keys
of records that no longer exist. The app hash is the merkle root of all state
entries in key order.

There are two kinds of information stored:
  - Meta:   the last committed height and app hash
  - State:  one entry per record of the engine snapshot
*/
type StateStore struct {
	db dbm.DB
}

// Meta describes the last commit.
type Meta struct {
	Height  int64  `json:"height"`
	AppHash []byte `json:"app_hash"`
}

// NewStateStore returns a store over db.
func NewStateStore(db dbm.DB) *StateStore {
	return &StateStore{db: db}
}

// LoadMeta returns the last commit. The zero Meta is returned for an empty
// store.
func (ss *StateStore) LoadMeta() (Meta, error) {
	var meta Meta
	bz, err := ss.db.Get(metaKey())
	if err != nil {
		return meta, err
	}
	if len(bz) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(bz, &meta); err != nil {
		return meta, fmt.Errorf("decoding meta: %w", err)
	}
	return meta, nil
}

// Load reads the last committed state.
func (ss *StateStore) Load() (market.State, Meta, error) {
	var state market.State
	meta, err := ss.LoadMeta()
	if err != nil {
		return state, meta, err
	}

	bz, err := ss.db.Get(recordKey(prefixMarket))
	if err != nil {
		return state, meta, err
	}
	if len(bz) > 0 {
		var rec marketRecord
		if err := json.Unmarshal(bz, &rec); err != nil {
			return state, meta, fmt.Errorf("decoding market record: %w", err)
		}
		state.Admin = rec.Admin
		state.Sequence = rec.Sequence
		state.Deposits = rec.Deposits
		state.Withdrawals = rec.Withdrawals
	}

	err = ss.iterate(prefixAsset, func(_ []byte, value []byte) error {
		var a registry.Asset
		if err := json.Unmarshal(value, &a); err != nil {
			return err
		}
		state.Assets = append(state.Assets, a)
		return nil
	})
	if err != nil {
		return state, meta, fmt.Errorf("loading assets: %w", err)
	}

	err = ss.iterate(prefixMinter, func(key []byte, _ []byte) error {
		addr, err := decodeAddressKey(key, prefixMinter)
		if err != nil {
			return err
		}
		state.Minters = append(state.Minters, addr)
		return nil
	})
	if err != nil {
		return state, meta, fmt.Errorf("loading minters: %w", err)
	}

	err = ss.iterate(prefixListing, func(_ []byte, value []byte) error {
		var l fixedprice.Listing
		if err := json.Unmarshal(value, &l); err != nil {
			return err
		}
		state.Listings = append(state.Listings, l)
		return nil
	})
	if err != nil {
		return state, meta, fmt.Errorf("loading listings: %w", err)
	}

	err = ss.iterate(prefixAuction, func(_ []byte, value []byte) error {
		var a auction.Auction
		if err := json.Unmarshal(value, &a); err != nil {
			return err
		}
		state.Auctions = append(state.Auctions, a)
		return nil
	})
	if err != nil {
		return state, meta, fmt.Errorf("loading auctions: %w", err)
	}

	err = ss.iterate(prefixBalance, func(_ []byte, value []byte) error {
		var b ledger.Balance
		if err := json.Unmarshal(value, &b); err != nil {
			return err
		}
		state.Balances = append(state.Balances, b)
		return nil
	})
	if err != nil {
		return state, meta, fmt.Errorf("loading balances: %w", err)
	}

	return state, meta, nil
}

// Save replaces the stored state with state committed at height and returns
// the new meta.
func (ss *StateStore) Save(state market.State, height int64) (Meta, error) {
	entries, err := encodeState(state)
	if err != nil {
		return Meta{}, err
	}
	meta := Meta{Height: height, AppHash: hashEntries(entries)}

	batch := ss.db.NewBatch()
	defer batch.Close()

	for _, prefix := range recordPrefixes {
		if err := ss.deleteRange(batch, prefix); err != nil {
			return Meta{}, err
		}
	}
	for _, e := range entries {
		if err := batch.Set(e.key, e.value); err != nil {
			return Meta{}, err
		}
	}
	bz, err := json.Marshal(meta)
	if err != nil {
		return Meta{}, err
	}
	if err := batch.Set(metaKey(), bz); err != nil {
		return Meta{}, err
	}
	if err := batch.WriteSync(); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// AppHash returns the hash Save would record for state.
func AppHash(state market.State) ([]byte, error) {
	entries, err := encodeState(state)
	if err != nil {
		return nil, err
	}
	return hashEntries(entries), nil
}

func (ss *StateStore) Close() error {
	return ss.db.Close()
}

func (ss *StateStore) iterate(prefix int64, fn func(key, value []byte) error) error {
	iter, err := ss.db.Iterator(prefixRange(prefix))
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return fmt.Errorf("key %X: %w", iter.Key(), err)
		}
	}
	return iter.Error()
}

// deleteRange adds a delete of every key under prefix to batch.
func (ss *StateStore) deleteRange(batch dbm.Batch, prefix int64) error {
	return ss.iterate(prefix, func(key, _ []byte) error {
		// iterator keys are only valid until Next
		return batch.Delete(append([]byte(nil), key...))
	})
}

type entry struct {
	key, value []byte
}

type marketRecord struct {
	Admin       types.Address `json:"admin"`
	Sequence    uint64        `json:"sequence"`
	Deposits    types.Amount  `json:"deposits"`
	Withdrawals types.Amount  `json:"withdrawals"`
}

func encodeState(state market.State) ([]entry, error) {
	var entries []entry
	add := func(key []byte, v interface{}) error {
		bz, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %X: %w", key, err)
		}
		entries = append(entries, entry{key: key, value: bz})
		return nil
	}

	err := add(recordKey(prefixMarket), marketRecord{
		Admin:       state.Admin,
		Sequence:    state.Sequence,
		Deposits:    state.Deposits,
		Withdrawals: state.Withdrawals,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range state.Assets {
		if err := add(idKey(prefixAsset, a.TokenID), a); err != nil {
			return nil, err
		}
	}
	for _, m := range state.Minters {
		entries = append(entries, entry{key: addressKey(prefixMinter, m), value: []byte{1}})
	}
	for _, l := range state.Listings {
		if err := add(idKey(prefixListing, l.TokenID), l); err != nil {
			return nil, err
		}
	}
	for _, a := range state.Auctions {
		if err := add(idKey(prefixAuction, a.TokenID), a); err != nil {
			return nil, err
		}
	}
	for _, b := range state.Balances {
		if err := add(addressKey(prefixBalance, b.Account), b); err != nil {
			return nil, err
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return entries, nil
}

func hashEntries(entries []entry) []byte {
	leaves := make([][]byte, len(entries))
	for i, e := range entries {
		leaf, err := orderedcode.Append(nil, string(e.key), string(e.value))
		if err != nil {
			panic(err)
		}
		leaves[i] = leaf
	}
	return merkle.HashFromByteSlices(leaves)
}

//---------------------------------- KEY ENCODING -----------------------------------------

const (
	prefixMeta    = int64(0)
	prefixMarket  = int64(1)
	prefixAsset   = int64(2)
	prefixMinter  = int64(3)
	prefixListing = int64(4)
	prefixAuction = int64(5)
	prefixBalance = int64(6)
)

var recordPrefixes = []int64{prefixMarket, prefixAsset, prefixMinter, prefixListing, prefixAuction, prefixBalance}

func metaKey() []byte {
	return recordKey(prefixMeta)
}

func recordKey(prefix int64) []byte {
	key, err := orderedcode.Append(nil, prefix)
	if err != nil {
		panic(err)
	}
	return key
}

func idKey(prefix int64, id uint64) []byte {
	key, err := orderedcode.Append(nil, prefix, id)
	if err != nil {
		panic(err)
	}
	return key
}

func addressKey(prefix int64, addr types.Address) []byte {
	key, err := orderedcode.Append(nil, prefix, string(addr.Bytes()))
	if err != nil {
		panic(err)
	}
	return key
}

func decodeAddressKey(key []byte, want int64) (types.Address, error) {
	var (
		prefix int64
		raw    string
	)
	remaining, err := orderedcode.Parse(string(key), &prefix, &raw)
	if err != nil {
		return types.Address{}, err
	}
	if len(remaining) != 0 {
		return types.Address{}, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != want {
		return types.Address{}, fmt.Errorf("incorrect prefix. Expected %v, got %v", want, prefix)
	}
	return common.BytesToAddress([]byte(raw)), nil
}

// prefixRange returns the iterator bounds of every key under prefix.
func prefixRange(prefix int64) (start, end []byte) {
	return recordKey(prefix), recordKey(prefix + 1)
}
