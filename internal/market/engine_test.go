package market

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nish0483/NFT-market/internal/auction"
	"github.com/Nish0483/NFT-market/internal/fixedprice"
	"github.com/Nish0483/NFT-market/internal/registry"
	"github.com/Nish0483/NFT-market/libs/log"
	"github.com/Nish0483/NFT-market/types"
)

var (
	admin  = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	minter = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	addr1  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addr2  = common.HexToAddress("0x0000000000000000000000000000000000000002")
	addr3  = common.HexToAddress("0x0000000000000000000000000000000000000003")
	feeBox = common.HexToAddress("0x00000000000000000000000000000000000000fe")

	genesisTime = time.Unix(1_700_000_000, 0)

	stateOpts = cmp.Options{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.EquateEmpty(),
	}
)

const day = 86400

func eth(s string) types.Amount { return types.MustParseEther(s) }

func newTestEngine(t *testing.T, cfg Config) (*Engine, *clock.Mock) {
	t.Helper()
	require.NoError(t, cfg.ValidateBasic())

	clk := clock.NewMock()
	clk.Set(genesisTime)
	e := NewEngine(clk, cfg, WithLogger(log.NewTestingLogger(t)))
	require.NoError(t, e.InitGenesis(Genesis{Admin: admin, Minters: []types.Address{minter}}))
	return e, clk
}

func mint(t *testing.T, e *Engine, to types.Address, id uint64) {
	t.Helper()
	_, err := e.Mint(minter, to, id)
	require.NoError(t, err)
}

// assertUnchanged runs op, expects it to fail with want and checks the state
// did not move.
func assertUnchanged(t *testing.T, e *Engine, want error, op func() ([]types.Event, error)) {
	t.Helper()
	before := e.Snapshot()
	events, err := op()
	assert.ErrorIs(t, err, want)
	assert.Empty(t, events)
	if diff := cmp.Diff(before, e.Snapshot(), stateOpts); diff != "" {
		t.Errorf("state changed after failed operation (-before +after):\n%s", diff)
	}
}

func TestMint(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	events, err := e.Mint(minter, addr1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventTypeMint, events[0].Type)

	owner, err := e.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, addr1, owner)

	assertUnchanged(t, e, types.ErrDuplicateAsset, func() ([]types.Event, error) {
		return e.Mint(minter, addr2, 1)
	})
	assertUnchanged(t, e, types.ErrUnauthorized, func() ([]types.Event, error) {
		return e.Mint(addr1, addr1, 2)
	})
	assertUnchanged(t, e, types.ErrInvalidAddress, func() ([]types.Event, error) {
		return e.Mint(minter, types.Address{}, 2)
	})

	_, err = e.OwnerOf(2)
	assert.ErrorIs(t, err, types.ErrUnknownAsset)
}

func TestMinterAdministration(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())

	assertUnchanged(t, e, types.ErrUnauthorized, func() ([]types.Event, error) {
		return e.GrantMinter(minter, addr1)
	})

	events, err := e.GrantMinter(admin, addr1)
	require.NoError(t, err)
	v, _ := events[0].Get(types.AttributeKeyGranted)
	assert.Equal(t, "true", v)
	assert.True(t, e.IsMinter(addr1))
	mint(t, e, addr1, 1)

	_, err = e.RevokeMinter(admin, minter)
	require.NoError(t, err)
	assert.False(t, e.IsMinter(minter))
	_, err = e.Mint(minter, addr1, 2)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestFrozenMinterSet(t *testing.T) {
	clk := clock.NewMock()
	e := NewEngine(clk, DefaultConfig())
	require.NoError(t, e.InitGenesis(Genesis{Minters: []types.Address{minter}}))

	_, err := e.GrantMinter(types.Address{}, addr1)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestFixedPriceSale(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 1)

	_, err := e.ListFixed(addr1, 1, eth("1.0"))
	require.NoError(t, err)

	l, err := e.FixedListing(1)
	require.NoError(t, err)
	assert.Equal(t, addr1, l.Seller)
	assert.True(t, l.Price.Equal(eth("1")))

	events, err := e.BuyFixed(addr2, 1, eth("1.0"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventTypeSale, events[0].Type)
	kind, _ := events[0].Get(types.AttributeKeyKind)
	assert.Equal(t, types.SaleKindFixed, kind)

	owner, err := e.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, addr2, owner)

	_, err = e.FixedListing(1)
	assert.ErrorIs(t, err, types.ErrNotListed)
	assert.True(t, e.BalanceOf(addr1).Equal(eth("1")))
}

func TestFixedPriceRejections(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 1)
	mint(t, e, addr1, 2)

	assertUnchanged(t, e, types.ErrNotOwner, func() ([]types.Event, error) {
		return e.ListFixed(addr2, 1, eth("1"))
	})
	assertUnchanged(t, e, types.ErrUnknownAsset, func() ([]types.Event, error) {
		return e.ListFixed(addr1, 9, eth("1"))
	})
	assertUnchanged(t, e, types.ErrNotListed, func() ([]types.Event, error) {
		return e.BuyFixed(addr2, 1, eth("1"))
	})

	_, err := e.ListFixed(addr1, 1, eth("1"))
	require.NoError(t, err)

	assertUnchanged(t, e, types.ErrAlreadyListed, func() ([]types.Event, error) {
		return e.ListFixed(addr1, 1, eth("2"))
	})
	assertUnchanged(t, e, types.ErrAlreadyListed, func() ([]types.Event, error) {
		return e.ListAuction(addr1, 1, day)
	})
	assertUnchanged(t, e, types.ErrInsufficientPayment, func() ([]types.Event, error) {
		return e.BuyFixed(addr2, 1, eth("0.99"))
	})
	assertUnchanged(t, e, types.ErrExcessPayment, func() ([]types.Event, error) {
		return e.BuyFixed(addr2, 1, eth("1.01"))
	})
	assertUnchanged(t, e, types.ErrSelfTrade, func() ([]types.Event, error) {
		return e.BuyFixed(addr1, 1, eth("1"))
	})
	assertUnchanged(t, e, types.ErrNotOwner, func() ([]types.Event, error) {
		return e.CancelFixed(addr2, 1)
	})

	_, err = e.CancelFixed(addr1, 1)
	require.NoError(t, err)
	_, err = e.FixedListing(1)
	assert.ErrorIs(t, err, types.ErrNotListed)
}

func TestExcessPolicies(t *testing.T) {
	testCases := map[string]struct {
		policy       fixedprice.ExcessPolicy
		sellerGets   string
		buyerChanges string
	}{
		"refund": {fixedprice.ExcessRefund, "1", "0.5"},
		"keep":   {fixedprice.ExcessKeep, "1.5", "0"},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ExcessPayment = tc.policy
			e, _ := newTestEngine(t, cfg)
			mint(t, e, addr1, 1)
			_, err := e.ListFixed(addr1, 1, eth("1"))
			require.NoError(t, err)

			_, err = e.BuyFixed(addr2, 1, eth("1.5"))
			require.NoError(t, err)
			assert.True(t, e.BalanceOf(addr1).Equal(eth(tc.sellerGets)))
			assert.True(t, e.BalanceOf(addr2).Equal(eth(tc.buyerChanges)))
			assert.True(t, e.Custody().Equal(eth("1.5")))
		})
	}
}

func TestFee(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FeeBasisPoints = 250
	cfg.FeeCollector = feeBox
	e, _ := newTestEngine(t, cfg)
	mint(t, e, addr1, 1)
	_, err := e.ListFixed(addr1, 1, eth("2"))
	require.NoError(t, err)

	events, err := e.BuyFixed(addr2, 1, eth("2"))
	require.NoError(t, err)
	fee, _ := events[0].Get(types.AttributeKeyFee)
	assert.Equal(t, eth("0.05").String(), fee)
	assert.True(t, e.BalanceOf(addr1).Equal(eth("1.95")))
	assert.True(t, e.BalanceOf(feeBox).Equal(eth("0.05")))
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateBasic())

	cfg.FeeBasisPoints = 10
	assert.Error(t, cfg.ValidateBasic(), "fee without collector")

	cfg.FeeCollector = feeBox
	cfg.FeeBasisPoints = MaxFeeBasisPoints + 1
	assert.Error(t, cfg.ValidateBasic())

	cfg = DefaultConfig()
	cfg.ExcessPayment = "donate"
	assert.Error(t, cfg.ValidateBasic())

	cfg = DefaultConfig()
	cfg.MaxAuctionDuration = -1
	assert.Error(t, cfg.ValidateBasic())
}

func TestAuctionListing(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 2)

	_, err := e.AuctionData(2)
	assert.ErrorIs(t, err, types.ErrUnknownAuction)
	_, err = e.Bidders(2)
	assert.ErrorIs(t, err, types.ErrUnknownAuction)

	assertUnchanged(t, e, types.ErrNotOwner, func() ([]types.Event, error) {
		return e.ListAuction(addr2, 2, day)
	})
	assertUnchanged(t, e, types.ErrInvalidDuration, func() ([]types.Event, error) {
		return e.ListAuction(addr1, 2, 0)
	})

	_, err = e.ListAuction(addr1, 2, day)
	require.NoError(t, err)

	a, err := e.AuctionData(2)
	require.NoError(t, err)
	assert.True(t, a.HighestBid.IsZero())
	assert.Nil(t, a.HighestBidder)
	assert.Equal(t, a.StartTime+day, a.EndTime)
	assert.Equal(t, genesisTime.Unix(), a.StartTime)

	end, err := e.AuctionEndTime(2)
	require.NoError(t, err)
	assert.Equal(t, a.EndTime, end)

	assertUnchanged(t, e, types.ErrAlreadyListed, func() ([]types.Event, error) {
		return e.ListFixed(addr1, 2, eth("1"))
	})
}

func TestAuctionBidding(t *testing.T) {
	e, clk := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 3)
	_, err := e.ListAuction(addr1, 3, day)
	require.NoError(t, err)

	_, err = e.PlaceBid(addr2, 3, eth("0.5"))
	require.NoError(t, err)

	a, err := e.AuctionData(3)
	require.NoError(t, err)
	require.NotNil(t, a.HighestBidder)
	assert.Equal(t, addr2, *a.HighestBidder)
	assert.True(t, a.HighestBid.Equal(eth("0.5")))

	assertUnchanged(t, e, types.ErrBidTooLow, func() ([]types.Event, error) {
		return e.PlaceBid(addr3, 3, eth("0.5"))
	})
	assertUnchanged(t, e, types.ErrSelfTrade, func() ([]types.Event, error) {
		return e.PlaceBid(addr1, 3, eth("9"))
	})
	assertUnchanged(t, e, types.ErrUnknownAuction, func() ([]types.Event, error) {
		return e.PlaceBid(addr3, 4, eth("1"))
	})

	events, err := e.PlaceBid(addr3, 3, eth("0.7"))
	require.NoError(t, err)
	refundTo, _ := events[0].Get(types.AttributeKeyRefundTo)
	assert.Equal(t, addr2.Hex(), refundTo)
	assert.True(t, e.BalanceOf(addr2).Equal(eth("0.5")))

	bidders, err := e.Bidders(3)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{addr2, addr3}, bidders)

	clk.Add(day * time.Second)
	assertUnchanged(t, e, types.ErrAuctionClosed, func() ([]types.Event, error) {
		return e.PlaceBid(addr2, 3, eth("2"))
	})
}

func TestSettleWithBids(t *testing.T) {
	e, clk := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 3)
	_, err := e.ListAuction(addr1, 3, day)
	require.NoError(t, err)
	_, err = e.PlaceBid(addr2, 3, eth("0.5"))
	require.NoError(t, err)
	_, err = e.PlaceBid(addr3, 3, eth("0.8"))
	require.NoError(t, err)

	assertUnchanged(t, e, types.ErrAuctionOpen, func() ([]types.Event, error) {
		return e.Settle(addr1, 3)
	})

	clk.Add(day * time.Second)
	events, err := e.Settle(addr2, 3)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventTypeSettle, events[0].Type)
	assert.Equal(t, types.EventTypeSale, events[1].Type)

	owner, err := e.OwnerOf(3)
	require.NoError(t, err)
	assert.Equal(t, addr3, owner)
	assert.True(t, e.BalanceOf(addr1).Equal(eth("0.8")), "seller is credited exactly the highest bid")
	assert.True(t, e.BalanceOf(addr2).Equal(eth("0.5")))
	assert.True(t, e.BalanceOf(addr3).IsZero())

	a, err := e.AuctionData(3)
	require.NoError(t, err)
	assert.False(t, a.IsOpen())

	for i := 0; i < 3; i++ {
		assertUnchanged(t, e, types.ErrAlreadySettled, func() ([]types.Event, error) {
			return e.Settle(addr1, 3)
		})
	}

	// the winner may sell again
	_, err = e.ListAuction(addr3, 3, 60)
	require.NoError(t, err)
}

func TestSettleWithoutBids(t *testing.T) {
	e, clk := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 5)
	_, err := e.ListAuction(addr1, 5, 60)
	require.NoError(t, err)

	clk.Add(time.Minute)
	events, err := e.Settle(addr2, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	outcome, _ := events[0].Get(types.AttributeKeyOutcome)
	assert.Equal(t, types.OutcomeNoBids, outcome)

	owner, err := e.OwnerOf(5)
	require.NoError(t, err)
	assert.Equal(t, addr1, owner)
	assert.True(t, e.BalanceOf(addr1).IsZero())
}

func TestSellerEarlySettle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SellerEarlySettle = true
	e, _ := newTestEngine(t, cfg)
	mint(t, e, addr1, 1)
	_, err := e.ListAuction(addr1, 1, day)
	require.NoError(t, err)
	_, err = e.PlaceBid(addr2, 1, eth("1"))
	require.NoError(t, err)

	assertUnchanged(t, e, types.ErrAuctionOpen, func() ([]types.Event, error) {
		return e.Settle(addr2, 1)
	})
	_, err = e.Settle(addr1, 1)
	require.NoError(t, err)

	owner, _ := e.OwnerOf(1)
	assert.Equal(t, addr2, owner)
}

func TestSettleExpired(t *testing.T) {
	e, clk := newTestEngine(t, DefaultConfig())
	for id := uint64(1); id <= 3; id++ {
		mint(t, e, addr1, id)
	}
	_, err := e.ListAuction(addr1, 3, 60)
	require.NoError(t, err)
	_, err = e.ListAuction(addr1, 1, 60)
	require.NoError(t, err)
	_, err = e.ListAuction(addr1, 2, day)
	require.NoError(t, err)
	_, err = e.PlaceBid(addr2, 3, eth("1"))
	require.NoError(t, err)

	assert.Empty(t, e.SettleExpired())

	clk.Add(time.Minute)
	events := e.SettleExpired()
	require.Len(t, events, 3)
	id, _ := events[0].Get(types.AttributeKeyTokenID)
	assert.Equal(t, "1", id)
	id, _ = events[1].Get(types.AttributeKeyTokenID)
	assert.Equal(t, "3", id)

	owner, _ := e.OwnerOf(3)
	assert.Equal(t, addr2, owner)
	a, _ := e.AuctionData(2)
	assert.True(t, a.IsOpen())
}

func TestMaxAuctionDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAuctionDuration = day
	e, _ := newTestEngine(t, cfg)
	mint(t, e, addr1, 1)

	assertUnchanged(t, e, types.ErrInvalidDuration, func() ([]types.Event, error) {
		return e.ListAuction(addr1, 1, day+1)
	})
	_, err := e.ListAuction(addr1, 1, day)
	assert.NoError(t, err)
}

func TestWithdraw(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 1)
	_, err := e.ListFixed(addr1, 1, eth("1"))
	require.NoError(t, err)
	_, err = e.BuyFixed(addr2, 1, eth("1"))
	require.NoError(t, err)

	assertUnchanged(t, e, types.ErrNothingToWithdraw, func() ([]types.Event, error) {
		return e.Withdraw(addr2)
	})

	events, err := e.Withdraw(addr1)
	require.NoError(t, err)
	amount, _ := events[0].Get(types.AttributeKeyAmount)
	assert.Equal(t, eth("1").String(), amount)
	assert.True(t, e.BalanceOf(addr1).IsZero())
	assert.True(t, e.Custody().IsZero())

	s := e.Snapshot()
	assert.True(t, s.Deposits.Equal(eth("1")))
	assert.True(t, s.Withdrawals.Equal(eth("1")))
}

func TestReceiptsAreDeterministic(t *testing.T) {
	run := func() string {
		e, _ := newTestEngine(t, DefaultConfig())
		mint(t, e, addr1, 1)
		_, err := e.ListFixed(addr1, 1, eth("1"))
		require.NoError(t, err)
		events, err := e.BuyFixed(addr2, 1, eth("1"))
		require.NoError(t, err)
		r, ok := events[0].Get(types.AttributeKeyReceipt)
		require.True(t, ok)
		return r
	}
	assert.Equal(t, run(), run())
}

func TestSnapshotRestore(t *testing.T) {
	e, clk := newTestEngine(t, DefaultConfig())
	mint(t, e, addr1, 1)
	mint(t, e, addr1, 2)
	_, err := e.ListFixed(addr1, 1, eth("1"))
	require.NoError(t, err)
	_, err = e.ListAuction(addr1, 2, day)
	require.NoError(t, err)
	_, err = e.PlaceBid(addr2, 2, eth("1"))
	require.NoError(t, err)
	_, err = e.PlaceBid(addr3, 2, eth("2"))
	require.NoError(t, err)

	snap := e.Snapshot()
	restored := NewEngine(clk, DefaultConfig())
	require.NoError(t, restored.Restore(snap))

	if diff := cmp.Diff(snap, restored.Snapshot(), stateOpts); diff != "" {
		t.Errorf("restored state differs (-want +got):\n%s", diff)
	}
	assert.True(t, restored.Custody().Equal(e.Custody()))
}

func TestRestoreRejectsInconsistentState(t *testing.T) {
	assets := []registry.Asset{{TokenID: 1, Owner: addr1}}
	start, end := genesisTime.Unix(), genesisTime.Unix()+day
	open := func(a auction.Auction) auction.Auction {
		a.TokenID, a.StartTime, a.EndTime, a.Status = 1, start, end, auction.StatusOpen
		if a.Seller == (types.Address{}) {
			a.Seller = addr1
		}
		return a
	}

	testCases := map[string]State{
		"listing by non owner": {
			Assets:   assets,
			Listings: []fixedprice.Listing{{TokenID: 1, Seller: addr2, Price: eth("1")}},
		},
		"listing of unknown token": {
			Listings: []fixedprice.Listing{{TokenID: 7, Price: eth("1")}},
		},
		"listed and auctioned": {
			Assets:   assets,
			Listings: []fixedprice.Listing{{TokenID: 1, Seller: addr1, Price: eth("1")}},
			Auctions: []auction.Auction{open(auction.Auction{})},
		},
		"auction by non owner": {
			Assets:   assets,
			Auctions: []auction.Auction{open(auction.Auction{Seller: addr2})},
		},
		"auction ends before start": {
			Assets: assets,
			Auctions: []auction.Auction{func() auction.Auction {
				a := open(auction.Auction{})
				a.EndTime = a.StartTime
				return a
			}()},
		},
		"bidder without bid": {
			Assets:   assets,
			Auctions: []auction.Auction{open(auction.Auction{HighestBidder: &addr2, HighestBid: types.ZeroAmount})},
		},
		"bid without bidder": {
			Assets:   assets,
			Auctions: []auction.Auction{open(auction.Auction{HighestBid: eth("1")})},
		},
	}
	for name, s := range testCases {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(clock.NewMock(), DefaultConfig())
			assert.Error(t, e.Restore(s))
		})
	}

	e := NewEngine(clock.NewMock(), DefaultConfig())
	require.NoError(t, e.Restore(State{
		Assets:   assets,
		Auctions: []auction.Auction{open(auction.Auction{HighestBidder: &addr2, HighestBid: eth("1"), Bidders: []types.Address{addr2}})},
	}))
}

func TestGenesisValidateBasic(t *testing.T) {
	g := Genesis{
		Admin:  admin,
		Assets: []registry.Asset{{TokenID: 1, Owner: addr1}, {TokenID: 1, Owner: addr2}},
	}
	assert.ErrorIs(t, g.ValidateBasic(), types.ErrDuplicateAsset)

	g.Assets = []registry.Asset{{TokenID: 1}}
	assert.ErrorIs(t, g.ValidateBasic(), types.ErrInvalidAddress)

	g.Assets = nil
	g.Minters = []types.Address{{}}
	assert.ErrorIs(t, g.ValidateBasic(), types.ErrInvalidAddress)
}
