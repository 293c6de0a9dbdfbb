// Package launchpad is the launch ledger: it owns every launch's life
// cycle and each contributor's position in it.
package launchpad

import (
	"errors"
	"fmt"
	"math"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-launchpad/internal/bank"
	"github.com/Klingon-tech/klingnet-launchpad/internal/guard"
	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/registry"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// escrowTag seeds the keyless account that holds a launch's funds.
const escrowTag = "launchpad/escrow"

// HeightSource supplies the current block height.
type HeightSource interface {
	Height() uint64
}

// Config wires a Ledger to its collaborators.
type Config struct {
	DB             storage.DB
	Guard          *guard.Guard
	Bank           *bank.Bank
	Registry       *registry.Registry
	RegistryCap    *registry.Capability
	Height         HeightSource
	Rules          lptypes.Rules
	PlatformWallet types.Address
}

// Ledger executes launch operations. Every operation on a launch runs
// under that launch's lock, checks everything first, and then commits all
// of its writes in one batch.
type Ledger struct {
	db       storage.DB
	store    *Store
	guard    *guard.Guard
	bank     *bank.Bank
	registry *registry.Registry
	regCap   *registry.Capability
	height   HeightSource
	rules    lptypes.Rules
	platform types.Address
	logger   zerolog.Logger

	idMu    sync.Mutex // Serializes launch id assignment.
	locksMu sync.Mutex
	locks   map[uint64]*sync.Mutex
}

// New creates a ledger.
func New(cfg Config) (*Ledger, error) {
	switch {
	case cfg.DB == nil, cfg.Guard == nil, cfg.Bank == nil, cfg.Registry == nil, cfg.Height == nil:
		return nil, errors.New("ledger: missing collaborator")
	case cfg.RegistryCap == nil:
		return nil, errors.New("ledger: missing registry capability")
	case cfg.PlatformWallet.IsZero():
		return nil, errors.New("ledger: platform wallet must be set")
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("ledger rules: %w", err)
	}
	return &Ledger{
		db:       cfg.DB,
		store:    NewStore(cfg.DB),
		guard:    cfg.Guard,
		bank:     cfg.Bank,
		registry: cfg.Registry,
		regCap:   cfg.RegistryCap,
		height:   cfg.Height,
		rules:    cfg.Rules,
		platform: cfg.PlatformWallet,
		logger:   klog.Ledger,
		locks:    make(map[uint64]*sync.Mutex),
	}, nil
}

// EscrowAccount returns the account holding launch id's raised funds.
func EscrowAccount(id uint64) types.Address {
	return crypto.DeriveAddress(escrowTag, id)
}

// Rules returns the launch rules in force.
func (l *Ledger) Rules() lptypes.Rules { return l.rules }

// PlatformWallet returns the fee recipient.
func (l *Ledger) PlatformWallet() types.Address { return l.platform }

// Height returns the height operations are evaluated at.
func (l *Ledger) Height() uint64 { return l.height.Height() }

func (l *Ledger) lock(id uint64) func() {
	l.locksMu.Lock()
	mu, ok := l.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[id] = mu
	}
	l.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// reject logs a refused operation and passes err through.
func (l *Ledger) reject(op string, id uint64, caller types.Address, err error) error {
	space, code := lptypes.CodeOf(err)
	l.logger.Debug().
		Str("op", op).
		Uint64("launch_id", id).
		Str("caller", caller.String()).
		Str("codespace", space).
		Uint32("code", code).
		Err(err).
		Msg("Operation rejected")
	return err
}

// CreateLaunch validates p and stores a new launch owned by caller.
func (l *Ledger) CreateLaunch(caller types.Address, p lptypes.CreateParams) (uint64, error) {
	if err := l.guard.CheckNotPaused(); err != nil {
		return 0, l.reject("create", 0, caller, err)
	}
	start, end, err := l.rules.ValidateCreate(p, l.height.Height())
	if err != nil {
		return 0, l.reject("create", 0, caller, err)
	}

	l.idMu.Lock()
	defer l.idMu.Unlock()

	last, err := l.store.LastID()
	if err != nil {
		return 0, err
	}
	id := last + 1

	launch := &lptypes.Launch{
		ID:            id,
		Creator:       caller,
		TokenName:     p.Name,
		TokenSymbol:   p.Symbol,
		TokenURI:      p.URI,
		TotalSupply:   p.TotalSupply,
		PricePerToken: p.PricePerToken,
		SoftCap:       p.SoftCap,
		HardCap:       p.HardCap,
		MinPurchase:   p.MinPurchase,
		MaxPurchase:   p.MaxPurchase,
		StartBlock:    start,
		EndBlock:      end,
	}

	batch := storage.NewBatch(l.db)
	defer batch.Discard()
	if err := l.store.PutLaunch(batch, launch); err != nil {
		return 0, err
	}
	if err := l.store.PutLastID(batch, id); err != nil {
		return 0, err
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit launch %d: %w", id, err)
	}

	l.logger.Info().
		Uint64("launch_id", id).
		Str("creator", caller.String()).
		Str("symbol", p.Symbol).
		Uint64("soft_cap", p.SoftCap).
		Uint64("hard_cap", p.HardCap).
		Uint64("start_block", start).
		Uint64("end_block", end).
		Msg("Launch created")
	return id, nil
}

// BuyTokens moves amount from caller into the launch escrow and allocates
// amount × 1,000,000 / price tokens to caller.
func (l *Ledger) BuyTokens(caller types.Address, id uint64, amount uint64) (lptypes.Purchase, error) {
	if err := l.guard.CheckNotPaused(); err != nil {
		return lptypes.Purchase{}, l.reject("buy", id, caller, err)
	}

	defer l.lock(id)()

	launch, err := l.store.GetLaunch(id)
	if err != nil {
		return lptypes.Purchase{}, l.reject("buy", id, caller, err)
	}
	h := l.height.Height()
	if !launch.IsActive(h) {
		return lptypes.Purchase{}, l.reject("buy", id, caller,
			errorsmod.Wrapf(lptypes.ErrLaunchNotActive, "launch %d is %s at height %d", id, launch.Phase(h), h))
	}
	if amount < launch.MinPurchase {
		return lptypes.Purchase{}, l.reject("buy", id, caller,
			errorsmod.Wrapf(lptypes.ErrBelowMinimum, "amount %d below %d", amount, launch.MinPurchase))
	}

	contrib, err := l.store.GetContribution(id, caller)
	if err != nil {
		return lptypes.Purchase{}, err
	}
	if contrib == nil {
		contrib = &lptypes.Contribution{LaunchID: id, Contributor: caller}
	}
	if amount > launch.MaxPurchase || contrib.StxContributed > launch.MaxPurchase-amount {
		return lptypes.Purchase{}, l.reject("buy", id, caller,
			errorsmod.Wrapf(lptypes.ErrMaxPurchaseExceeded, "contribution %d + %d above %d",
				contrib.StxContributed, amount, launch.MaxPurchase))
	}
	if amount > launch.HardCap-launch.TotalRaised {
		return lptypes.Purchase{}, l.reject("buy", id, caller,
			errorsmod.Wrapf(lptypes.ErrHardCapExceeded, "raised %d + %d above %d",
				launch.TotalRaised, amount, launch.HardCap))
	}
	tokens, ok := Allocation(amount, launch.PricePerToken)
	if !ok || launch.TokensSold > math.MaxUint64-tokens {
		return lptypes.Purchase{}, l.reject("buy", id, caller,
			errorsmod.Wrapf(lptypes.ErrAllocationOverflow, "amount %d at price %d", amount, launch.PricePerToken))
	}

	contrib.StxContributed += amount
	contrib.TokensAllocated += tokens
	launch.TotalRaised += amount
	launch.TokensSold += tokens

	batch := storage.NewBatch(l.db)
	defer batch.Discard()
	if err := l.store.PutContribution(batch, contrib); err != nil {
		return lptypes.Purchase{}, err
	}
	if err := l.store.PutLaunch(batch, launch); err != nil {
		return lptypes.Purchase{}, err
	}
	err = l.bank.Commit(batch, bank.Transfer{From: caller, To: EscrowAccount(id), Amount: amount})
	if err != nil {
		return lptypes.Purchase{}, l.reject("buy", id, caller, errorsmod.Wrapf(err, "escrow %d", amount))
	}

	l.logger.Info().
		Uint64("launch_id", id).
		Str("buyer", caller.String()).
		Uint64("amount", amount).
		Uint64("tokens", tokens).
		Uint64("total_raised", launch.TotalRaised).
		Msg("Tokens bought")
	return lptypes.Purchase{Tokens: tokens, StxSpent: amount}, nil
}

// FinalizeLaunch settles a launch whose window has closed. On success the
// escrow pays the platform fee and the creator in the same commit.
func (l *Ledger) FinalizeLaunch(caller types.Address, id uint64) (bool, error) {
	defer l.lock(id)()

	launch, err := l.store.GetLaunch(id)
	if err != nil {
		return false, l.reject("finalize", id, caller, err)
	}
	if launch.IsFinalized {
		return false, l.reject("finalize", id, caller, errorsmod.Wrapf(lptypes.ErrAlreadyFinalized, "launch %d", id))
	}
	if h := l.height.Height(); !launch.Ended(h) {
		return false, l.reject("finalize", id, caller,
			errorsmod.Wrapf(lptypes.ErrLaunchNotEnded, "height %d before end block %d", h, launch.EndBlock))
	}

	launch.IsFinalized = true
	launch.IsSuccessful = launch.TotalRaised >= launch.SoftCap

	var transfers []bank.Transfer
	var fee uint64
	if launch.IsSuccessful {
		fee = PlatformFee(launch.TotalRaised, l.rules.PlatformFeeBps)
		escrow := EscrowAccount(id)
		transfers = []bank.Transfer{
			{From: escrow, To: l.platform, Amount: fee},
			{From: escrow, To: launch.Creator, Amount: launch.TotalRaised - fee},
		}
	}

	batch := storage.NewBatch(l.db)
	defer batch.Discard()
	if err := l.store.PutLaunch(batch, launch); err != nil {
		return false, err
	}
	if err := l.bank.Commit(batch, transfers...); err != nil {
		return false, l.reject("finalize", id, caller, errorsmod.Wrap(err, "settle escrow"))
	}

	l.logger.Info().
		Uint64("launch_id", id).
		Str("caller", caller.String()).
		Bool("successful", launch.IsSuccessful).
		Uint64("total_raised", launch.TotalRaised).
		Uint64("platform_fee", fee).
		Msg("Launch finalized")
	return launch.IsSuccessful, nil
}

// ClaimTokens marks caller's allocation in a successful launch as claimed
// and returns it.
func (l *Ledger) ClaimTokens(caller types.Address, id uint64) (uint64, error) {
	defer l.lock(id)()

	launch, contrib, err := l.settleable(id, caller)
	if err != nil {
		return 0, l.reject("claim", id, caller, err)
	}
	if !launch.IsSuccessful {
		return 0, l.reject("claim", id, caller, errorsmod.Wrapf(lptypes.ErrLaunchNotSuccessful, "launch %d", id))
	}
	if contrib != nil && contrib.Claimed {
		return 0, l.reject("claim", id, caller, errorsmod.Wrapf(lptypes.ErrAlreadyClaimed, "launch %d", id))
	}
	if contrib == nil {
		return 0, l.reject("claim", id, caller, errorsmod.Wrapf(lptypes.ErrContributionNotFound, "launch %d", id))
	}

	contrib.Claimed = true
	batch := storage.NewBatch(l.db)
	defer batch.Discard()
	if err := l.store.PutContribution(batch, contrib); err != nil {
		return 0, err
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit claim: %w", err)
	}

	l.logger.Info().
		Uint64("launch_id", id).
		Str("contributor", caller.String()).
		Uint64("tokens", contrib.TokensAllocated).
		Msg("Tokens claimed")
	return contrib.TokensAllocated, nil
}

// RequestRefund returns caller's contribution to a failed launch from escrow.
func (l *Ledger) RequestRefund(caller types.Address, id uint64) (uint64, error) {
	defer l.lock(id)()

	launch, contrib, err := l.settleable(id, caller)
	if err != nil {
		return 0, l.reject("refund", id, caller, err)
	}
	if launch.IsSuccessful {
		return 0, l.reject("refund", id, caller,
			errorsmod.Wrapf(lptypes.ErrLaunchNotSuccessful, "launch %d succeeded, refunds closed", id))
	}
	if contrib != nil && contrib.Claimed {
		return 0, l.reject("refund", id, caller, errorsmod.Wrapf(lptypes.ErrAlreadyRefunded, "launch %d", id))
	}
	if contrib == nil {
		return 0, l.reject("refund", id, caller, errorsmod.Wrapf(lptypes.ErrContributionNotFound, "launch %d", id))
	}

	contrib.Claimed = true
	batch := storage.NewBatch(l.db)
	defer batch.Discard()
	if err := l.store.PutContribution(batch, contrib); err != nil {
		return 0, err
	}
	refund := bank.Transfer{From: EscrowAccount(id), To: caller, Amount: contrib.StxContributed}
	if err := l.bank.Commit(batch, refund); err != nil {
		return 0, l.reject("refund", id, caller, errorsmod.Wrap(err, "refund from escrow"))
	}

	l.logger.Info().
		Uint64("launch_id", id).
		Str("contributor", caller.String()).
		Uint64("amount", contrib.StxContributed).
		Msg("Refund paid")
	return contrib.StxContributed, nil
}

// settleable loads a finalized launch and caller's contribution (nil if none).
func (l *Ledger) settleable(id uint64, caller types.Address) (*lptypes.Launch, *lptypes.Contribution, error) {
	launch, err := l.store.GetLaunch(id)
	if err != nil {
		return nil, nil, err
	}
	if !launch.IsFinalized {
		return nil, nil, errorsmod.Wrapf(lptypes.ErrNotFinalized, "launch %d", id)
	}
	contrib, err := l.store.GetContribution(id, caller)
	if err != nil {
		return nil, nil, err
	}
	return launch, contrib, nil
}

// PauseContract sets the guard's paused flag. Owner only.
func (l *Ledger) PauseContract(caller types.Address, paused bool) (bool, error) {
	got, err := l.guard.SetPaused(caller, paused)
	if err != nil {
		return false, l.reject("pause", 0, caller, err)
	}
	return got, nil
}

// RegisterToken binds a deployed token to a successful launch through the
// ledger's registry capability. The registration must repeat the launch's
// name, symbol, supply and creator, and only the owner or the creator may
// submit it.
func (l *Ledger) RegisterToken(caller types.Address, id uint64, reg lptypes.TokenRegistration) (bool, error) {
	defer l.lock(id)()

	launch, err := l.store.GetLaunch(id)
	if err != nil {
		return false, l.reject("register", id, caller, err)
	}
	if !l.guard.IsOwner(caller) && caller != launch.Creator {
		return false, l.reject("register", id, caller,
			errorsmod.Wrapf(lptypes.ErrRegistrarUnauthorized, "launch %d", id))
	}
	if !launch.IsFinalized {
		return false, l.reject("register", id, caller, errorsmod.Wrapf(lptypes.ErrNotFinalized, "launch %d", id))
	}
	if !launch.IsSuccessful {
		return false, l.reject("register", id, caller, errorsmod.Wrapf(lptypes.ErrLaunchNotSuccessful, "launch %d", id))
	}
	if reg.Token.IsZero() || !reg.Matches(launch) {
		return false, l.reject("register", id, caller,
			errorsmod.Wrapf(lptypes.ErrRegistrationMismatch, "launch %d is %s/%s supply %d by %s",
				id, launch.TokenName, launch.TokenSymbol, launch.TotalSupply, launch.Creator))
	}
	if l.registry.Has(id) {
		return false, l.reject("register", id, caller, errorsmod.Wrapf(lptypes.ErrTokenAlreadyDeployed, "launch %d", id))
	}

	token := reg.Token
	launch.TokenContract = &token

	batch := storage.NewBatch(l.db)
	defer batch.Discard()
	if err := l.store.PutLaunch(batch, launch); err != nil {
		return false, err
	}
	entry := registry.Entry{LaunchID: id, Token: token, Registrar: caller, RegisteredAt: l.height.Height()}
	if err := l.registry.Register(l.regCap, batch, entry); err != nil {
		return false, l.reject("register", id, caller, err)
	}
	return true, nil
}
