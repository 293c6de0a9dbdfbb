package launchpad

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-launchpad/internal/bank"
	"github.com/Klingon-tech/klingnet-launchpad/internal/guard"
	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/registry"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

func TestMain(m *testing.M) {
	klog.Init("error", false, "")
	os.Exit(m.Run())
}

var (
	deployer = types.Address{0xd0} // owner and platform wallet
	creator  = types.Address{0xc0}
	wallet1  = types.Address{0x01}
	wallet2  = types.Address{0x02}
	wallet3  = types.Address{0x03}
	poor     = types.Address{0x0f}
)

const startingBalance = 100_000_000_000

type testHeight struct {
	mu sync.Mutex
	h  uint64
}

func (t *testHeight) Height() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.h
}

func (t *testHeight) set(h uint64) {
	t.mu.Lock()
	t.h = h
	t.mu.Unlock()
}

type testEnv struct {
	db     storage.DB
	ledger *Ledger
	bank   *bank.Bank
	guard  *guard.Guard
	reg    *registry.Registry
	height *testHeight
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db := storage.NewMemory()
	return openEnv(t, db, true)
}

func openEnv(t *testing.T, db storage.DB, fund bool) *testEnv {
	t.Helper()
	g, err := guard.New(db, deployer)
	if err != nil {
		t.Fatalf("guard.New: %v", err)
	}
	b := bank.New(db)
	if fund {
		alloc := map[types.Address]uint64{poor: 500_000}
		for _, a := range []types.Address{creator, wallet1, wallet2, wallet3} {
			alloc[a] = startingBalance
		}
		if _, err := b.InitGenesis(alloc); err != nil {
			t.Fatalf("InitGenesis: %v", err)
		}
	}
	reg, regCap, err := registry.New(db)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	h := &testHeight{}
	l, err := New(Config{
		DB:             db,
		Guard:          g,
		Bank:           b,
		Registry:       reg,
		RegistryCap:    regCap,
		Height:         h,
		Rules:          lptypes.DefaultRules(),
		PlatformWallet: deployer,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{db: db, ledger: l, bank: b, guard: g, reg: reg, height: h}
}

func defaultParams() lptypes.CreateParams {
	return lptypes.CreateParams{
		Name:          "Test Token",
		Symbol:        "TEST",
		URI:           "https://example.com/test.json",
		TotalSupply:   1_000_000_000_000,
		PricePerToken: 100,
		SoftCap:       100_000_000,
		HardCap:       500_000_000,
		MinPurchase:   1_000_000,
		MaxPurchase:   50_000_000,
		Duration:      200,
	}
}

func (e *testEnv) create(t *testing.T, p lptypes.CreateParams) uint64 {
	t.Helper()
	id, err := e.ledger.CreateLaunch(creator, p)
	if err != nil {
		t.Fatalf("CreateLaunch: %v", err)
	}
	return id
}

func (e *testEnv) buy(t *testing.T, who types.Address, id, amount uint64) lptypes.Purchase {
	t.Helper()
	p, err := e.ledger.BuyTokens(who, id, amount)
	if err != nil {
		t.Fatalf("BuyTokens(%s, %d, %d): %v", who, id, amount, err)
	}
	return p
}

func (e *testEnv) balance(t *testing.T, a types.Address) uint64 {
	t.Helper()
	v, err := e.bank.Balance(a)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	return v
}

func (e *testEnv) launch(t *testing.T, id uint64) *lptypes.Launch {
	t.Helper()
	l, err := e.ledger.GetLaunch(id)
	if err != nil {
		t.Fatalf("GetLaunch(%d): %v", id, err)
	}
	return l
}

func wantCode(t *testing.T, err error, space string, code uint32) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s/%d, got nil", space, code)
	}
	gotSpace, gotCode := lptypes.CodeOf(err)
	if gotSpace != space || gotCode != code {
		t.Fatalf("error %q has code %s/%d, want %s/%d", err, gotSpace, gotCode, space, code)
	}
}

// checkSums verifies contributions add up to the launch aggregates.
func checkSums(t *testing.T, e *testEnv, id uint64) {
	t.Helper()
	contribs, err := e.ledger.Contributions(id)
	if err != nil {
		t.Fatalf("Contributions: %v", err)
	}
	var stx, tokens uint64
	for _, c := range contribs {
		stx += c.StxContributed
		tokens += c.TokensAllocated
	}
	l := e.launch(t, id)
	if stx != l.TotalRaised || tokens != l.TokensSold {
		t.Fatalf("sums %d/%d != aggregates %d/%d", stx, tokens, l.TotalRaised, l.TokensSold)
	}
}

// ── create-launch ───────────────────────────────────────────────────

func TestCreateLaunch(t *testing.T) {
	e := setup(t)
	e.height.set(5)

	id := e.create(t, defaultParams())
	if id != 1 {
		t.Fatalf("first id = %d, want 1", id)
	}
	l := e.launch(t, id)
	if l.Creator != creator || l.StartBlock != 15 || l.EndBlock != 215 {
		t.Errorf("launch = %+v", l)
	}
	if l.TotalRaised != 0 || l.TokensSold != 0 || l.IsFinalized || l.IsSuccessful || l.IsCancelled || l.TokenContract != nil {
		t.Errorf("new launch not zeroed: %+v", l)
	}

	if id2 := e.create(t, defaultParams()); id2 != 2 {
		t.Errorf("second id = %d, want 2", id2)
	}
	if n, _ := e.ledger.LaunchCount(); n != 2 {
		t.Errorf("LaunchCount = %d, want 2", n)
	}
}

func TestCreateLaunch_Rejections(t *testing.T) {
	e := setup(t)

	p := defaultParams()
	p.HardCap = 10_000_000_000_001
	_, err := e.ledger.CreateLaunch(creator, p)
	wantCode(t, err, lptypes.ModuleName, 107)

	p = defaultParams()
	p.SoftCap = 999_999
	_, err = e.ledger.CreateLaunch(creator, p)
	wantCode(t, err, lptypes.ModuleName, 104)

	if n, _ := e.ledger.LaunchCount(); n != 0 {
		t.Errorf("rejected creates consumed ids: count %d", n)
	}
}

func TestCreateLaunch_Paused(t *testing.T) {
	e := setup(t)
	if _, err := e.ledger.PauseContract(deployer, true); err != nil {
		t.Fatalf("PauseContract: %v", err)
	}
	_, err := e.ledger.CreateLaunch(creator, defaultParams())
	wantCode(t, err, lptypes.ModuleName, 115)
	if n, _ := e.ledger.LaunchCount(); n != 0 {
		t.Errorf("paused create stored a launch")
	}
}

// ── buy-tokens ──────────────────────────────────────────────────────

func TestBuyTokens_Allocation(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())
	e.height.set(10)

	p := e.buy(t, wallet1, id, 5_000_000)
	if p.Tokens != 50_000_000_000 || p.StxSpent != 5_000_000 {
		t.Errorf("purchase = %+v, want 50,000,000,000 tokens for 5,000,000", p)
	}

	// Floor division: 1,000,001 × 1,000,000 / 3 = 333,333,666,666.67
	p2 := defaultParams()
	p2.PricePerToken = 3
	id2 := e.create(t, p2)
	e.height.set(20)
	if got := e.buy(t, wallet1, id2, 1_000_001); got.Tokens != 333_333_666_666 {
		t.Errorf("tokens = %d, want 333333666666", got.Tokens)
	}
}

func TestBuyTokens_Accumulates(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())
	e.height.set(10)

	a := e.buy(t, wallet1, id, 3_000_000)
	b := e.buy(t, wallet1, id, 7_000_000)
	e.buy(t, wallet2, id, 2_000_000)

	c, err := e.ledger.GetUserContribution(id, wallet1)
	if err != nil {
		t.Fatalf("GetUserContribution: %v", err)
	}
	if c.StxContributed != 10_000_000 || c.TokensAllocated != a.Tokens+b.Tokens {
		t.Errorf("contribution = %+v", c)
	}
	if c.Claimed {
		t.Error("new contribution marked claimed")
	}
	checkSums(t, e, id)

	if e.balance(t, wallet1) != startingBalance-10_000_000 {
		t.Errorf("wallet1 balance = %d", e.balance(t, wallet1))
	}
	if e.balance(t, EscrowAccount(id)) != 12_000_000 {
		t.Errorf("escrow = %d, want 12,000,000", e.balance(t, EscrowAccount(id)))
	}
}

func TestBuyTokens_NotActive(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())

	e.height.set(9)
	_, err := e.ledger.BuyTokens(wallet1, id, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 103)

	e.height.set(210)
	_, err = e.ledger.BuyTokens(wallet1, id, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 103)

	// Hard cap reached closes the launch before end block.
	p := defaultParams()
	p.SoftCap = 1_000_000
	p.HardCap = 2_000_000
	p.MaxPurchase = 2_000_000
	capped := e.create(t, p)
	e.height.set(220)
	e.buy(t, wallet1, capped, 2_000_000)
	_, err = e.ledger.BuyTokens(wallet2, capped, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 103)

	// Finalized launches are never active.
	e.height.set(1000)
	if _, err := e.ledger.FinalizeLaunch(wallet3, capped); err != nil {
		t.Fatalf("FinalizeLaunch: %v", err)
	}
	_, err = e.ledger.BuyTokens(wallet2, capped, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 103)
}

func TestBuyTokens_PurchaseBounds(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())
	e.height.set(10)

	_, err := e.ledger.BuyTokens(wallet1, id, 999_999)
	wantCode(t, err, lptypes.ModuleName, 106)

	e.buy(t, wallet1, id, 20_000_000)
	e.buy(t, wallet1, id, 30_000_000) // exactly max-purchase cumulative

	_, err = e.ledger.BuyTokens(wallet1, id, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 107)
	if !errors.Is(err, lptypes.ErrMaxPurchaseExceeded) {
		t.Errorf("err = %v, want ErrMaxPurchaseExceeded", err)
	}

	_, err = e.ledger.BuyTokens(wallet2, id, 50_000_001)
	wantCode(t, err, lptypes.ModuleName, 107)
	checkSums(t, e, id)
}

func TestBuyTokens_HardCapNoPartialFill(t *testing.T) {
	e := setup(t)
	p := defaultParams()
	p.SoftCap = 1_000_000
	p.HardCap = 60_000_000
	id := e.create(t, p)
	e.height.set(10)

	e.buy(t, wallet1, id, 50_000_000)
	_, err := e.ledger.BuyTokens(wallet2, id, 10_000_001)
	wantCode(t, err, lptypes.ModuleName, 107)
	if !errors.Is(err, lptypes.ErrHardCapExceeded) {
		t.Errorf("err = %v, want ErrHardCapExceeded", err)
	}
	if e.launch(t, id).TotalRaised != 50_000_000 {
		t.Error("rejected purchase changed total raised")
	}
	e.buy(t, wallet2, id, 10_000_000)
	if e.launch(t, id).TotalRaised != p.HardCap {
		t.Error("exact fill to hard cap should succeed")
	}
}

func TestBuyTokens_CheckOrder(t *testing.T) {
	e := setup(t)

	_, err := e.ledger.BuyTokens(wallet1, 42, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 101)

	e.ledger.PauseContract(deployer, true)
	_, err = e.ledger.BuyTokens(wallet1, 42, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 115)
}

func TestBuyTokens_InsufficientBalance(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())
	e.height.set(10)

	_, err := e.ledger.BuyTokens(poor, id, 1_000_000)
	wantCode(t, err, bank.Codespace, 105)

	if _, err := e.ledger.GetUserContribution(id, poor); !errors.Is(err, lptypes.ErrContributionNotFound) {
		t.Errorf("failed buy left a contribution: %v", err)
	}
	if l := e.launch(t, id); l.TotalRaised != 0 || l.TokensSold != 0 {
		t.Errorf("failed buy changed aggregates: %+v", l)
	}
	if e.balance(t, poor) != 500_000 {
		t.Error("failed buy moved funds")
	}
}

// ── finalize-launch ─────────────────────────────────────────────────

func TestFinalizeLaunch_SuccessScenario(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())
	e.height.set(15)

	p1 := e.buy(t, wallet1, id, 50_000_000)
	p2 := e.buy(t, wallet2, id, 50_000_000)
	p3 := e.buy(t, wallet3, id, 10_000_000)
	checkSums(t, e, id)

	e.height.set(209)
	_, err := e.ledger.FinalizeLaunch(wallet1, id)
	wantCode(t, err, lptypes.ModuleName, 109)

	creatorBefore := e.balance(t, creator)
	platformBefore := e.balance(t, deployer)

	e.height.set(211)
	ok, err := e.ledger.FinalizeLaunch(wallet3, id)
	if err != nil || !ok {
		t.Fatalf("FinalizeLaunch = %v, %v; want true", ok, err)
	}
	l := e.launch(t, id)
	if !l.IsFinalized || !l.IsSuccessful || l.IsCancelled || l.TotalRaised != 110_000_000 {
		t.Errorf("launch = %+v", l)
	}

	fee := e.balance(t, deployer) - platformBefore
	share := e.balance(t, creator) - creatorBefore
	if fee != 2_200_000 || share != 107_800_000 || fee+share != l.TotalRaised {
		t.Errorf("fee %d + creator %d, want 2,200,000 + 107,800,000", fee, share)
	}
	if e.balance(t, EscrowAccount(id)) != 0 {
		t.Error("escrow not emptied")
	}

	for who, want := range map[types.Address]uint64{wallet1: p1.Tokens, wallet2: p2.Tokens, wallet3: p3.Tokens} {
		got, err := e.ledger.ClaimTokens(who, id)
		if err != nil || got != want {
			t.Errorf("ClaimTokens(%s) = %d, %v; want %d", who, got, err, want)
		}
		_, err = e.ledger.ClaimTokens(who, id)
		wantCode(t, err, lptypes.ModuleName, 112)
	}

	_, err = e.ledger.FinalizeLaunch(wallet1, id)
	wantCode(t, err, lptypes.ModuleName, 102)
	if !e.launch(t, id).IsSuccessful {
		t.Error("decision changed after second finalize attempt")
	}
}

func TestFinalizeLaunch_FeeRoundsDown(t *testing.T) {
	e := setup(t)
	p := defaultParams()
	p.SoftCap = 1_000_000
	id := e.create(t, p)
	e.height.set(10)
	e.buy(t, wallet1, id, 1_000_049)

	creatorBefore := e.balance(t, creator)
	e.height.set(210)
	if _, err := e.ledger.FinalizeLaunch(wallet1, id); err != nil {
		t.Fatalf("FinalizeLaunch: %v", err)
	}
	// 1,000,049 × 200 / 10,000 = 20,000.98
	if got := e.balance(t, deployer); got != 20_000 {
		t.Errorf("platform fee = %d, want 20,000", got)
	}
	if got := e.balance(t, creator) - creatorBefore; got != 980_049 {
		t.Errorf("creator share = %d, want 980,049", got)
	}
}

func TestFinalizeLaunch_RefundScenario(t *testing.T) {
	e := setup(t)
	p := defaultParams()
	p.SoftCap = 200_000_000
	id := e.create(t, p)
	e.height.set(10)
	e.buy(t, wallet2, id, 50_000_000)

	e.height.set(210)
	ok, err := e.ledger.FinalizeLaunch(wallet1, id)
	if err != nil || ok {
		t.Fatalf("FinalizeLaunch = %v, %v; want false", ok, err)
	}
	if e.balance(t, EscrowAccount(id)) != 50_000_000 {
		t.Error("failed launch must keep funds in escrow")
	}

	_, err = e.ledger.ClaimTokens(wallet2, id)
	wantCode(t, err, lptypes.ModuleName, 111)

	refunded, err := e.ledger.RequestRefund(wallet2, id)
	if err != nil || refunded != 50_000_000 {
		t.Fatalf("RequestRefund = %d, %v; want 50,000,000", refunded, err)
	}
	if e.balance(t, wallet2) != startingBalance {
		t.Errorf("wallet2 = %d, want full balance back", e.balance(t, wallet2))
	}

	_, err = e.ledger.RequestRefund(wallet2, id)
	wantCode(t, err, lptypes.ModuleName, 112)
	if !errors.Is(err, lptypes.ErrAlreadyRefunded) {
		t.Errorf("err = %v, want ErrAlreadyRefunded", err)
	}

	_, err = e.ledger.RequestRefund(wallet1, id)
	wantCode(t, err, lptypes.ModuleName, 101)
}

func TestFinalizeLaunch_Missing(t *testing.T) {
	e := setup(t)
	_, err := e.ledger.FinalizeLaunch(wallet1, 7)
	wantCode(t, err, lptypes.ModuleName, 101)
}

// ── claim / refund gating ───────────────────────────────────────────

func TestClaimAndRefund_Gating(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())
	e.height.set(10)
	e.buy(t, wallet1, id, 50_000_000)
	e.buy(t, wallet2, id, 50_000_000)

	_, err := e.ledger.ClaimTokens(wallet1, id)
	wantCode(t, err, lptypes.ModuleName, 109)
	_, err = e.ledger.RequestRefund(wallet1, id)
	wantCode(t, err, lptypes.ModuleName, 109)

	e.height.set(210)
	e.ledger.FinalizeLaunch(wallet1, id)

	_, err = e.ledger.RequestRefund(wallet1, id)
	wantCode(t, err, lptypes.ModuleName, 111)

	_, err = e.ledger.ClaimTokens(wallet3, id)
	wantCode(t, err, lptypes.ModuleName, 101)

	_, err = e.ledger.ClaimTokens(wallet1, 99)
	wantCode(t, err, lptypes.ModuleName, 101)

	c, _ := e.ledger.GetUserContribution(id, wallet1)
	if c.Claimed {
		t.Error("rejected calls set the claimed flag")
	}
}

// ── pause ───────────────────────────────────────────────────────────

func TestPause_OnlyGatesNewActivity(t *testing.T) {
	e := setup(t)
	p := defaultParams()
	p.SoftCap = 60_000_000
	ok := e.create(t, p)
	failing := e.create(t, defaultParams())
	e.height.set(10)
	e.buy(t, wallet1, ok, 50_000_000)
	e.buy(t, wallet2, ok, 20_000_000)
	e.buy(t, wallet3, failing, 5_000_000)

	_, err := e.ledger.PauseContract(wallet1, true)
	wantCode(t, err, lptypes.ModuleName, 100)

	if paused, err := e.ledger.PauseContract(deployer, true); err != nil || !paused {
		t.Fatalf("PauseContract = %v, %v", paused, err)
	}
	_, err = e.ledger.BuyTokens(wallet1, ok, 1_000_000)
	wantCode(t, err, lptypes.ModuleName, 115)

	e.height.set(210)
	if _, err := e.ledger.FinalizeLaunch(wallet1, ok); err != nil {
		t.Fatalf("finalize while paused: %v", err)
	}
	if _, err := e.ledger.FinalizeLaunch(wallet1, failing); err != nil {
		t.Fatalf("finalize while paused: %v", err)
	}
	if _, err := e.ledger.ClaimTokens(wallet1, ok); err != nil {
		t.Errorf("claim while paused: %v", err)
	}
	if _, err := e.ledger.RequestRefund(wallet3, failing); err != nil {
		t.Errorf("refund while paused: %v", err)
	}

	e.ledger.PauseContract(deployer, false)
	third := e.create(t, defaultParams())
	e.height.set(220)
	e.buy(t, wallet1, third, 1_000_000)
}

// ── register-token ──────────────────────────────────────────────────

func registration(tok byte) lptypes.TokenRegistration {
	p := defaultParams()
	return lptypes.TokenRegistration{
		Token:   types.TokenID{tok},
		Name:    p.Name,
		Symbol:  p.Symbol,
		Supply:  p.TotalSupply,
		Creator: creator,
	}
}

func TestRegisterToken(t *testing.T) {
	e := setup(t)
	id := e.create(t, defaultParams())
	failed := e.create(t, defaultParams())
	e.height.set(10)
	e.buy(t, wallet1, id, 50_000_000)
	e.buy(t, wallet2, id, 50_000_000)

	_, err := e.ledger.RegisterToken(deployer, 99, registration(1))
	wantCode(t, err, lptypes.ModuleName, 101)

	_, err = e.ledger.RegisterToken(deployer, id, registration(1))
	wantCode(t, err, lptypes.ModuleName, 109)

	e.height.set(210)
	e.ledger.FinalizeLaunch(wallet1, id)
	e.ledger.FinalizeLaunch(wallet1, failed)

	_, err = e.ledger.RegisterToken(wallet1, id, registration(1))
	wantCode(t, err, lptypes.TokenFactoryCodespace, 102)

	_, err = e.ledger.RegisterToken(deployer, failed, registration(1))
	wantCode(t, err, lptypes.ModuleName, 111)

	bad := registration(1)
	bad.Supply++
	_, err = e.ledger.RegisterToken(deployer, id, bad)
	wantCode(t, err, lptypes.TokenFactoryCodespace, 104)

	zero := registration(0)
	_, err = e.ledger.RegisterToken(deployer, id, zero)
	wantCode(t, err, lptypes.TokenFactoryCodespace, 104)

	ok, err := e.ledger.RegisterToken(creator, id, registration(0xaa))
	if err != nil || !ok {
		t.Fatalf("RegisterToken = %v, %v", ok, err)
	}
	if tc := e.launch(t, id).TokenContract; tc == nil || *tc != (types.TokenID{0xaa}) {
		t.Errorf("token contract = %v", tc)
	}
	if tok, found := e.ledger.DeployedToken(id); !found || tok != (types.TokenID{0xaa}) {
		t.Errorf("DeployedToken = %v, %v", tok, found)
	}

	_, err = e.ledger.RegisterToken(deployer, id, registration(0xbb))
	wantCode(t, err, lptypes.TokenFactoryCodespace, 102)
	if e.ledger.DeploymentCount() != 1 {
		t.Errorf("DeploymentCount = %d, want 1", e.ledger.DeploymentCount())
	}
	if list := e.ledger.Deployments(); len(list) != 1 || list[0].LaunchID != id || list[0].Registrar != creator {
		t.Errorf("Deployments = %+v", list)
	}
}

// ── read-only projections ───────────────────────────────────────────

func TestGetLaunchStats(t *testing.T) {
	e := setup(t)
	p := defaultParams()
	p.HardCap = 100_000_000
	p.SoftCap = 50_000_000
	id := e.create(t, p)

	st, err := e.ledger.GetLaunchStats(id)
	if err != nil {
		t.Fatalf("GetLaunchStats: %v", err)
	}
	if st.IsActive || st.Phase != lptypes.PhasePending {
		t.Errorf("before start: %+v", st)
	}

	e.height.set(10)
	e.buy(t, wallet1, id, 50_000_000)
	e.buy(t, wallet2, id, 5_000_000)

	st, _ = e.ledger.GetLaunchStats(id)
	if st.TotalRaised != 55_000_000 || st.ProgressBps != 5500 || st.TokensSold != 550_000_000_000 {
		t.Errorf("stats = %+v", st)
	}
	if !st.IsActive || st.Phase != lptypes.PhaseActive {
		t.Errorf("during window: active=%v phase=%s", st.IsActive, st.Phase)
	}

	_, err = e.ledger.GetLaunchStats(3)
	wantCode(t, err, lptypes.ModuleName, 101)
}

func TestFindContributions(t *testing.T) {
	e := setup(t)
	a := e.create(t, defaultParams())
	b := e.create(t, defaultParams())
	c := e.create(t, defaultParams())
	e.height.set(10)
	e.buy(t, wallet1, c, 2_000_000)
	e.buy(t, wallet1, a, 1_000_000)
	e.buy(t, wallet2, b, 3_000_000)

	found, err := e.ledger.FindContributions(wallet1)
	if err != nil {
		t.Fatalf("FindContributions: %v", err)
	}
	if len(found) != 2 || found[0].LaunchID != a || found[1].LaunchID != c {
		t.Fatalf("found = %+v, want launches %d and %d", found, a, c)
	}
	if found[0].StxContributed != 1_000_000 {
		t.Errorf("first contribution = %+v", found[0])
	}

	none, _ := e.ledger.FindContributions(wallet3)
	if len(none) != 0 {
		t.Errorf("wallet3 has %d contributions, want 0", len(none))
	}

	list, err := e.ledger.Launches(2, 10)
	if err != nil || len(list) != 2 || list[0].ID != 2 {
		t.Errorf("Launches(2, 10) = %d launches, %v", len(list), err)
	}
}

// ── concurrency ─────────────────────────────────────────────────────

func TestBuyTokens_ConcurrentHardCap(t *testing.T) {
	e := setup(t)
	p := defaultParams()
	p.SoftCap = 1_000_000
	p.HardCap = 25_000_000
	p.MaxPurchase = 25_000_000
	id := e.create(t, p)
	e.height.set(10)

	buyers := []types.Address{wallet1, wallet2, wallet3, creator}
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(who types.Address) {
			defer wg.Done()
			e.ledger.BuyTokens(who, id, 1_000_000)
		}(buyers[i%len(buyers)])
	}
	wg.Wait()

	l := e.launch(t, id)
	if l.TotalRaised != 25_000_000 {
		t.Errorf("total raised = %d, want exactly the hard cap", l.TotalRaised)
	}
	if e.balance(t, EscrowAccount(id)) != l.TotalRaised {
		t.Errorf("escrow %d != raised %d", e.balance(t, EscrowAccount(id)), l.TotalRaised)
	}
	checkSums(t, e, id)
}

func TestLedger_Reopen(t *testing.T) {
	db := storage.NewMemory()
	e1 := openEnv(t, db, true)
	id := e1.create(t, defaultParams())
	e1.height.set(10)
	e1.buy(t, wallet1, id, 1_000_000)

	e2 := openEnv(t, db, false)
	e2.height.set(10)
	if next := e2.create(t, defaultParams()); next != id+1 {
		t.Errorf("id after reopen = %d, want %d", next, id+1)
	}
	c, err := e2.ledger.GetUserContribution(id, wallet1)
	if err != nil || c.StxContributed != 1_000_000 {
		t.Errorf("contribution after reopen = %+v, %v", c, err)
	}
}

func TestEscrowAccount(t *testing.T) {
	if EscrowAccount(1) == EscrowAccount(2) {
		t.Error("escrow accounts must differ per launch")
	}
	if EscrowAccount(1) != EscrowAccount(1) {
		t.Error("escrow derivation must be deterministic")
	}
}
