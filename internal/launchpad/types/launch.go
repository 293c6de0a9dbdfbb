// Package types defines the launchpad's records, rules and error codes.
package types

import (
	ptypes "github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// Launch is one fundraising campaign.
type Launch struct {
	ID            uint64         `json:"id"`
	Creator       ptypes.Address `json:"creator"`
	TokenName     string         `json:"token_name"`
	TokenSymbol   string         `json:"token_symbol"`
	TokenURI      string         `json:"token_uri"`
	TotalSupply   uint64         `json:"total_supply"`
	PricePerToken uint64         `json:"price_per_token"`
	SoftCap       uint64         `json:"soft_cap"`
	HardCap       uint64         `json:"hard_cap"`
	MinPurchase   uint64         `json:"min_purchase"`
	MaxPurchase   uint64         `json:"max_purchase"`
	StartBlock    uint64         `json:"start_block"`
	EndBlock      uint64         `json:"end_block"`
	TotalRaised   uint64         `json:"total_raised"`
	TokensSold    uint64         `json:"tokens_sold"`
	IsFinalized   bool           `json:"is_finalized"`
	IsSuccessful  bool           `json:"is_successful"`
	IsCancelled   bool           `json:"is_cancelled"`

	// TokenContract is nil until the registry binds a token to the launch.
	TokenContract *ptypes.TokenID `json:"token_contract,omitempty"`
}

// Contribution is one contributor's position in a launch.
// Claimed marks tokens claimed on a successful launch and the refund
// taken on a failed one.
type Contribution struct {
	LaunchID        uint64         `json:"launch_id"`
	Contributor     ptypes.Address `json:"contributor"`
	StxContributed  uint64         `json:"stx_contributed"`
	TokensAllocated uint64         `json:"tokens_allocated"`
	Claimed         bool           `json:"claimed"`
}

// Stats is the aggregate view of a launch at a given height.
type Stats struct {
	LaunchID     uint64 `json:"launch_id"`
	TotalRaised  uint64 `json:"total_raised"`
	TokensSold   uint64 `json:"tokens_sold"`
	SoftCap      uint64 `json:"soft_cap"`
	HardCap      uint64 `json:"hard_cap"`
	StartBlock   uint64 `json:"start_block"`
	EndBlock     uint64 `json:"end_block"`
	IsActive     bool   `json:"is_active"`
	IsFinalized  bool   `json:"is_finalized"`
	IsSuccessful bool   `json:"is_successful"`
	ProgressBps  uint64 `json:"progress_bps"`
	Phase        Phase  `json:"phase"`
}

// Purchase is the result of a successful buy.
type Purchase struct {
	Tokens   uint64 `json:"tokens"`
	StxSpent uint64 `json:"stx_spent"`
}

// Phase is the life-cycle stage of a launch at a given height.
type Phase string

// Launch phases.
const (
	PhasePending    Phase = "pending"
	PhaseActive     Phase = "active"
	PhaseEnded      Phase = "ended"
	PhaseSuccessful Phase = "successful"
	PhaseFailed     Phase = "failed"
)

// IsActive reports whether the launch accepts purchases at height.
func (l *Launch) IsActive(height uint64) bool {
	return !l.IsFinalized &&
		height >= l.StartBlock &&
		height < l.EndBlock &&
		l.TotalRaised < l.HardCap
}

// Ended reports whether the funding window is over at height.
func (l *Launch) Ended(height uint64) bool {
	return height >= l.EndBlock
}

// Phase projects the launch state at height.
func (l *Launch) Phase(height uint64) Phase {
	switch {
	case l.IsFinalized && l.IsSuccessful:
		return PhaseSuccessful
	case l.IsFinalized:
		return PhaseFailed
	case height < l.StartBlock:
		return PhasePending
	case height >= l.EndBlock || l.TotalRaised >= l.HardCap:
		return PhaseEnded
	default:
		return PhaseActive
	}
}
