package types

import (
	"math"
	"unicode/utf8"

	errorsmod "cosmossdk.io/errors"

	ptypes "github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// TokenPrecision is the number of allocation units a price buys.
const TokenPrecision = 1_000_000

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

// Rules are the protocol constants every launch is validated against.
type Rules struct {
	StartDelay     uint64 `json:"start_delay"`
	PlatformFeeBps uint64 `json:"platform_fee_bps"`
	MinSoftCap     uint64 `json:"min_soft_cap"`
	MaxHardCap     uint64 `json:"max_hard_cap"`
	MaxNameLen     int    `json:"max_name_len"`
	MaxSymbolLen   int    `json:"max_symbol_len"`
	MaxURILen      int    `json:"max_uri_len"`
}

// DefaultRules returns the mainnet launch rules.
func DefaultRules() Rules {
	return Rules{
		StartDelay:     10,
		PlatformFeeBps: 200,
		MinSoftCap:     1_000_000,
		MaxHardCap:     10_000_000_000_000,
		MaxNameLen:     32,
		MaxSymbolLen:   10,
		MaxURILen:      256,
	}
}

// Validate checks the rules are internally consistent.
func (r Rules) Validate() error {
	if r.PlatformFeeBps > BpsDenominator {
		return errorsmod.Wrapf(ErrInvalidParams, "platform fee %d bps exceeds 100%%", r.PlatformFeeBps)
	}
	if r.MinSoftCap == 0 || r.MaxHardCap <= r.MinSoftCap {
		return errorsmod.Wrapf(ErrInvalidParams, "cap bounds [%d, %d] are empty", r.MinSoftCap, r.MaxHardCap)
	}
	if r.MaxNameLen <= 0 || r.MaxSymbolLen <= 0 || r.MaxURILen <= 0 {
		return errorsmod.Wrap(ErrInvalidParams, "string bounds must be positive")
	}
	return nil
}

// CreateParams are the caller-supplied fields of a new launch.
type CreateParams struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	URI           string `json:"uri"`
	TotalSupply   uint64 `json:"total_supply"`
	PricePerToken uint64 `json:"price_per_token"`
	SoftCap       uint64 `json:"soft_cap"`
	HardCap       uint64 `json:"hard_cap"`
	MinPurchase   uint64 `json:"min_purchase"`
	MaxPurchase   uint64 `json:"max_purchase"`
	Duration      uint64 `json:"duration"`
}

// ValidateCreate checks p against the rules and returns the funding
// window it would get at height. Checks run in a fixed order so the first
// failing rule decides the error.
func (r Rules) ValidateCreate(p CreateParams, height uint64) (start, end uint64, err error) {
	switch {
	case p.TotalSupply == 0:
		return 0, 0, errorsmod.Wrap(ErrInvalidParams, "total supply must be positive")
	case p.PricePerToken == 0:
		return 0, 0, errorsmod.Wrap(ErrInvalidParams, "price per token must be positive")
	case p.SoftCap < r.MinSoftCap:
		return 0, 0, errorsmod.Wrapf(ErrInvalidParams, "soft cap %d below minimum %d", p.SoftCap, r.MinSoftCap)
	case p.HardCap > r.MaxHardCap:
		return 0, 0, errorsmod.Wrapf(ErrAmountTooHigh, "hard cap %d above ceiling %d", p.HardCap, r.MaxHardCap)
	case p.HardCap <= p.SoftCap:
		return 0, 0, errorsmod.Wrapf(ErrInvalidParams, "hard cap %d must exceed soft cap %d", p.HardCap, p.SoftCap)
	case p.Duration == 0:
		return 0, 0, errorsmod.Wrap(ErrInvalidParams, "duration must be positive")
	}

	if err := checkText("name", p.Name, r.MaxNameLen, true); err != nil {
		return 0, 0, err
	}
	if err := checkText("symbol", p.Symbol, r.MaxSymbolLen, true); err != nil {
		return 0, 0, err
	}
	if err := checkText("uri", p.URI, r.MaxURILen, false); err != nil {
		return 0, 0, err
	}

	switch {
	case p.MinPurchase == 0:
		return 0, 0, errorsmod.Wrap(ErrInvalidParams, "min purchase must be positive")
	case p.MaxPurchase < p.MinPurchase:
		return 0, 0, errorsmod.Wrapf(ErrInvalidParams, "max purchase %d below min purchase %d", p.MaxPurchase, p.MinPurchase)
	case p.MaxPurchase > r.MaxHardCap:
		return 0, 0, errorsmod.Wrapf(ErrAmountTooHigh, "max purchase %d above ceiling %d", p.MaxPurchase, r.MaxHardCap)
	}

	if height > math.MaxUint64-r.StartDelay {
		return 0, 0, errorsmod.Wrap(ErrInvalidParams, "start block overflows")
	}
	start = height + r.StartDelay
	if p.Duration > math.MaxUint64-start {
		return 0, 0, errorsmod.Wrap(ErrInvalidParams, "end block overflows")
	}
	return start, start + p.Duration, nil
}

// checkText enforces a non-empty length bound. ASCII-only fields reject
// bytes outside printable ASCII; other fields only need valid UTF-8.
func checkText(field, s string, maxLen int, ascii bool) error {
	if len(s) == 0 || len(s) > maxLen {
		return errorsmod.Wrapf(ErrInvalidParams, "%s length %d outside [1, %d]", field, len(s), maxLen)
	}
	if ascii {
		for i := 0; i < len(s); i++ {
			if s[i] < 0x20 || s[i] > 0x7e {
				return errorsmod.Wrapf(ErrInvalidParams, "%s must be printable ASCII", field)
			}
		}
		return nil
	}
	if !utf8.ValidString(s) {
		return errorsmod.Wrapf(ErrInvalidParams, "%s must be valid UTF-8", field)
	}
	return nil
}

// TokenRegistration is the payload deployment tooling submits to bind a
// deployed token to a launch. It must repeat the launch's metadata.
type TokenRegistration struct {
	Token   ptypes.TokenID `json:"token"`
	Name    string         `json:"name"`
	Symbol  string         `json:"symbol"`
	Supply  uint64         `json:"supply"`
	Creator ptypes.Address `json:"creator"`
}

// Matches reports whether the registration describes l.
func (t TokenRegistration) Matches(l *Launch) bool {
	return t.Name == l.TokenName &&
		t.Symbol == l.TokenSymbol &&
		t.Supply == l.TotalSupply &&
		t.Creator == l.Creator
}
