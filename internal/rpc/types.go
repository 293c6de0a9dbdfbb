package rpc

import (
	"encoding/json"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
)

// JSON-RPC 2.0 error codes. Ledger rejections use their own numeric code
// (100-115) with the codespace in Error.Data.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeUnauthorized   = -32001
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorData accompanies ledger rejections.
type ErrorData struct {
	Codespace string `json:"codespace"`
}

// ── Param types ─────────────────────────────────────────────────────────

// AddressParam is used by bank_getBalance, auth_getNonce and
// launch_findContributions.
type AddressParam struct {
	Address string `json:"address"`
}

// LaunchIDParam is used by read endpoints on one launch and as the payload
// of launch_finalize, launch_claim and launch_refund.
type LaunchIDParam struct {
	LaunchID uint64 `json:"launch_id"`
}

// ContributionParam is used by launch_getContribution.
type ContributionParam struct {
	LaunchID uint64 `json:"launch_id"`
	Address  string `json:"address"`
}

// HeightParam is used by chain_getBlock.
type HeightParam struct {
	Height uint64 `json:"height"`
}

// ListParam is used by launch_list.
type ListParam struct {
	From  uint64 `json:"from"`
	Limit uint64 `json:"limit"`
}

// SignedParams is the envelope of every mutating call. Signature is a
// Schnorr signature by PubKey over SigningDigest(chain id, method, Nonce, Payload).
type SignedParams struct {
	PubKey    string          `json:"pubkey"`
	Nonce     uint64          `json:"nonce"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// ── Signed payloads ─────────────────────────────────────────────────────

// CreateLaunchPayload is the payload of launch_create.
type CreateLaunchPayload = lptypes.CreateParams

// BuyPayload is the payload of launch_buy.
type BuyPayload struct {
	LaunchID uint64 `json:"launch_id"`
	Amount   uint64 `json:"amount"`
}

// RegisterTokenPayload is the payload of launch_registerToken.
type RegisterTokenPayload struct {
	LaunchID uint64 `json:"launch_id"`
	Token    string `json:"token"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Supply   uint64 `json:"supply"`
	Creator  string `json:"creator"`
}

// PausePayload is the payload of admin_pause.
type PausePayload struct {
	Paused bool `json:"paused"`
}

// ── Result types ────────────────────────────────────────────────────────

// ChainInfoResult is returned by chain_getInfo.
type ChainInfoResult struct {
	ChainID        string `json:"chain_id"`
	Symbol         string `json:"symbol,omitempty"`
	Height         uint64 `json:"height"`
	TipHash        string `json:"tip_hash"`
	TipTime        uint64 `json:"tip_time"`
	Owner          string `json:"owner"`
	PlatformWallet string `json:"platform_wallet"`
	PlatformFeeBps uint64 `json:"platform_fee_bps"`
	Paused         bool   `json:"paused"`
	Launches       uint64 `json:"launches"`
}

// BalanceResult is returned by bank_getBalance.
type BalanceResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// NonceResult is returned by auth_getNonce. Next is the lowest nonce the
// server will accept.
type NonceResult struct {
	Address string `json:"address"`
	Next    uint64 `json:"next"`
}

// CreateLaunchResult is returned by launch_create.
type CreateLaunchResult struct {
	LaunchID uint64 `json:"launch_id"`
}

// FinalizeResult is returned by launch_finalize.
type FinalizeResult struct {
	LaunchID   uint64 `json:"launch_id"`
	Successful bool   `json:"successful"`
}

// ClaimResult is returned by launch_claim.
type ClaimResult struct {
	LaunchID uint64 `json:"launch_id"`
	Tokens   uint64 `json:"tokens"`
}

// RefundResult is returned by launch_refund.
type RefundResult struct {
	LaunchID uint64 `json:"launch_id"`
	Amount   uint64 `json:"amount"`
}

// RegisterTokenResult is returned by launch_registerToken.
type RegisterTokenResult struct {
	LaunchID   uint64 `json:"launch_id"`
	Token      string `json:"token"`
	Registered bool   `json:"registered"`
}

// PauseResult is returned by admin_pause.
type PauseResult struct {
	Paused bool `json:"paused"`
}

// LaunchListResult is returned by launch_list.
type LaunchListResult struct {
	Total    uint64            `json:"total"`
	Launches []*lptypes.Launch `json:"launches"`
}

// ContributionListResult is returned by launch_contributions and
// launch_findContributions.
type ContributionListResult struct {
	Contributions []*lptypes.Contribution `json:"contributions"`
}

// TokenResult is returned by registry_getToken.
type TokenResult struct {
	LaunchID uint64 `json:"launch_id"`
	Token    string `json:"token,omitempty"`
	Found    bool   `json:"found"`
}

// CountResult is returned by registry_getCount.
type CountResult struct {
	Count uint64 `json:"count"`
}

// DeploymentResult is one entry of registry_list.
type DeploymentResult struct {
	LaunchID     uint64 `json:"launch_id"`
	Token        string `json:"token"`
	Registrar    string `json:"registrar"`
	RegisteredAt uint64 `json:"registered_at"`
}

// DeploymentListResult is returned by registry_list.
type DeploymentListResult struct {
	Deployments []DeploymentResult `json:"deployments"`
}
