package market

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nish0483/NFT-market/internal/auction"
	"github.com/Nish0483/NFT-market/internal/fixedprice"
	"github.com/Nish0483/NFT-market/internal/ledger"
	"github.com/Nish0483/NFT-market/internal/registry"
	"github.com/Nish0483/NFT-market/libs/log"
	"github.com/Nish0483/NFT-market/types"
)

// MaxFeeBasisPoints is a fee of 100%.
const MaxFeeBasisPoints = 10_000

// receiptNamespace seeds the name based receipt ids of sales.
var receiptNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("nft-market/receipt"))

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Config holds the policies of the engine.
type Config struct {
	// ExcessPayment decides what happens to a fixed-price payment above the price.
	ExcessPayment fixedprice.ExcessPolicy
	// SellerEarlySettle lets the seller settle an auction before it ends.
	SellerEarlySettle bool
	// MaxAuctionDuration bounds auction length in seconds; zero means unbounded.
	MaxAuctionDuration int64
	// FeeBasisPoints of every sale are credited to FeeCollector.
	FeeBasisPoints uint32
	FeeCollector   types.Address
}

// DefaultConfig returns the default policies: exact payment, no early
// settlement, no duration bound and no fee.
func DefaultConfig() Config {
	return Config{ExcessPayment: fixedprice.ExcessReject}
}

// ValidateBasic performs basic validation.
func (cfg Config) ValidateBasic() error {
	if err := cfg.ExcessPayment.ValidateBasic(); err != nil {
		return err
	}
	if cfg.MaxAuctionDuration < 0 {
		return fmt.Errorf("max auction duration can't be negative")
	}
	if cfg.FeeBasisPoints > MaxFeeBasisPoints {
		return fmt.Errorf("fee of %d basis points exceeds %d", cfg.FeeBasisPoints, MaxFeeBasisPoints)
	}
	if cfg.FeeBasisPoints > 0 {
		if err := types.ValidateAddress(cfg.FeeCollector); err != nil {
			return fmt.Errorf("fee collector: %w", err)
		}
	}
	return nil
}

// Genesis is the initial state of a marketplace.
type Genesis struct {
	// Admin may grant and revoke the minter role. A zero admin freezes the
	// minter set.
	Admin   types.Address    `json:"admin"`
	Minters []types.Address  `json:"minters"`
	Assets  []registry.Asset `json:"assets"`
}

// ValidateBasic performs basic validation.
func (g Genesis) ValidateBasic() error {
	for _, m := range g.Minters {
		if err := types.ValidateAddress(m); err != nil {
			return fmt.Errorf("minter: %w", err)
		}
	}
	seen := make(map[uint64]struct{}, len(g.Assets))
	for _, a := range g.Assets {
		if err := types.ValidateAddress(a.Owner); err != nil {
			return fmt.Errorf("owner of token %d: %w", a.TokenID, err)
		}
		if _, ok := seen[a.TokenID]; ok {
			return fmt.Errorf("%w: token %d", types.ErrDuplicateAsset, a.TokenID)
		}
		seen[a.TokenID] = struct{}{}
	}
	return nil
}

// State is a complete, deterministic snapshot of the engine.
type State struct {
	Admin    types.Address        `json:"admin"`
	Minters  []types.Address      `json:"minters"`
	Assets   []registry.Asset     `json:"assets"`
	Listings []fixedprice.Listing `json:"listings"`
	Auctions []auction.Auction    `json:"auctions"`
	Balances []ledger.Balance     `json:"balances"`

	// Sequence counts completed sales.
	Sequence uint64 `json:"sequence"`
	// Deposits is every amount ever paid into the marketplace and
	// Withdrawals every amount paid out.
	Deposits    types.Amount `json:"deposits"`
	Withdrawals types.Amount `json:"withdrawals"`
}

// Option sets an optional parameter on the Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// Engine is the marketplace state machine. It is safe for concurrent use;
// every operation and query holds the engine lock.
type Engine struct {
	mtx sync.Mutex

	cfg     Config
	clock   Clock
	logger  log.Logger
	metrics *Metrics

	admin    types.Address
	registry *registry.Registry
	fixed    *fixedprice.Book
	auctions *auction.Book
	ledger   *ledger.Ledger

	seq         uint64
	deposits    types.Amount
	withdrawals types.Amount
}

// NewEngine returns an empty engine. The configuration must be valid.
func NewEngine(clock Clock, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		clock:       clock,
		logger:      log.NewNopLogger(),
		metrics:     NopMetrics(),
		registry:    registry.New(),
		fixed:       fixedprice.NewBook(),
		auctions:    auction.NewBook(cfg.MaxAuctionDuration),
		ledger:      ledger.New(),
		deposits:    types.ZeroAmount,
		withdrawals: types.ZeroAmount,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InitGenesis replaces the engine state with g.
func (e *Engine) InitGenesis(g Genesis) error {
	if err := g.ValidateBasic(); err != nil {
		return err
	}
	return e.Restore(State{
		Admin:   g.Admin,
		Minters: g.Minters,
		Assets:  g.Assets,
	})
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	return State{
		Admin:       e.admin,
		Minters:     e.registry.Minters(),
		Assets:      e.registry.Assets(),
		Listings:    e.fixed.Listings(),
		Auctions:    e.auctions.Auctions(),
		Balances:    e.ledger.Balances(),
		Sequence:    e.seq,
		Deposits:    e.deposits,
		Withdrawals: e.withdrawals,
	}
}

// Restore replaces the engine state with s.
func (e *Engine) Restore(s State) error {
	owners := make(map[uint64]types.Address, len(s.Assets))
	for _, a := range s.Assets {
		owners[a.TokenID] = a.Owner
	}
	for _, l := range s.Listings {
		if owner, ok := owners[l.TokenID]; !ok || owner != l.Seller {
			return fmt.Errorf("listing of token %d by %s who does not own it", l.TokenID, l.Seller)
		}
	}
	listed := make(map[uint64]bool, len(s.Listings))
	for _, l := range s.Listings {
		listed[l.TokenID] = true
	}
	for _, a := range s.Auctions {
		if err := validateAuction(a, owners, listed); err != nil {
			return err
		}
	}

	e.mtx.Lock()
	defer e.mtx.Unlock()

	e.admin = s.Admin
	e.registry.Restore(s.Assets, s.Minters)
	e.fixed.Restore(s.Listings)
	e.auctions.Restore(s.Auctions)
	e.ledger.Restore(s.Balances)
	e.seq = s.Sequence
	e.deposits = orZero(s.Deposits)
	e.withdrawals = orZero(s.Withdrawals)
	e.metrics.OpenAuctions.Set(float64(e.auctions.OpenCount()))
	return nil
}

func validateAuction(a auction.Auction, owners map[uint64]types.Address, listed map[uint64]bool) error {
	if a.EndTime <= a.StartTime {
		return fmt.Errorf("auction of token %d ends at %d, not after its start %d", a.TokenID, a.EndTime, a.StartTime)
	}
	if a.HasBids() {
		if !a.HighestBid.IsPositive() {
			return fmt.Errorf("auction of token %d has bidder %s without a bid", a.TokenID, a.HighestBidder)
		}
	} else if !a.HighestBid.IsZero() {
		return fmt.Errorf("auction of token %d has a highest bid without a bidder", a.TokenID)
	}
	if !a.IsOpen() {
		return nil
	}
	if owner, ok := owners[a.TokenID]; !ok || owner != a.Seller {
		return fmt.Errorf("open auction of token %d by %s who does not own it", a.TokenID, a.Seller)
	}
	if listed[a.TokenID] {
		return fmt.Errorf("token %d is both listed and auctioned", a.TokenID)
	}
	return nil
}

// Custody returns the funds the marketplace holds: withdrawable balances
// plus the escrow of open auctions. It always equals deposits minus
// withdrawals.
func (e *Engine) Custody() types.Amount {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.custody()
}

func (e *Engine) custody() types.Amount {
	return e.ledger.Total().Add(e.auctions.Escrowed())
}

func (e *Engine) now() time.Time {
	return e.clock.Now()
}

// guard answers the cross-book questions of listing checks.
type guard struct{ e *Engine }

func (g guard) OwnerOf(id uint64) (types.Address, error) { return g.e.registry.OwnerOf(id) }

func (g guard) Listed(id uint64) bool {
	return g.e.fixed.Has(id) || g.e.auctions.IsOpen(id)
}

// split divides a sale amount into the seller share and the fee.
func (e *Engine) split(amount types.Amount) (proceeds, fee types.Amount) {
	if e.cfg.FeeBasisPoints == 0 {
		return amount, types.ZeroAmount
	}
	fee = amount.Mul(types.NewAmount(int64(e.cfg.FeeBasisPoints))).
		Div(types.NewAmount(MaxFeeBasisPoints)).Floor()
	return amount.Sub(fee), fee
}

// payout credits a sale to the seller and the fee collector.
func (e *Engine) payout(seller types.Address, amount types.Amount) (fee types.Amount) {
	proceeds, fee := e.split(amount)
	e.ledger.Credit(seller, proceeds)
	e.ledger.Credit(e.cfg.FeeCollector, fee)
	return fee
}

// nextReceipt returns a deterministic id for the next sale.
func (e *Engine) nextReceipt(id uint64) string {
	e.seq++
	return uuid.NewSHA1(receiptNamespace, []byte(fmt.Sprintf("%d/%d", e.seq, id))).String()
}

// mustApply panics when a mutation that was checked fails. State would
// otherwise be partially applied.
func mustApply(err error) {
	if err != nil {
		panic(fmt.Sprintf("market: checked mutation failed: %v", err))
	}
}

func (e *Engine) reject(op string, err error) error {
	e.metrics.Rejected.With("reason", types.HumanCode(types.CodeOf(err))).Add(1)
	e.logger.Debug("rejected operation", "op", op, "err", err)
	return err
}

func orZero(a types.Amount) types.Amount {
	if a.IsZero() {
		return types.ZeroAmount
	}
	return a
}

func etherFloat(a types.Amount) float64 {
	f, _ := a.Shift(-types.EtherDecimals).Float64()
	return f
}
