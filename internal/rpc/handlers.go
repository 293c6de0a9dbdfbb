package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-launchpad/internal/bank"
	"github.com/Klingon-tech/klingnet-launchpad/internal/chain"
	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// maxListLimit caps launch_list page sizes.
const maxListLimit = 100

// ledgerError converts a ledger rejection into a JSON-RPC error carrying
// the ledger's numeric code and codespace.
func ledgerError(err error) *Error {
	space, code := lptypes.CodeOf(err)
	switch space {
	case lptypes.ModuleName, lptypes.TokenFactoryCodespace, bank.Codespace:
		return &Error{Code: int(code), Message: err.Error(), Data: ErrorData{Codespace: space}}
	default:
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
}

func parseAddress(s string) (types.Address, *Error) {
	if s == "" {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid address: %v", err)}
	}
	return addr, nil
}

// ── Chain endpoints ─────────────────────────────────────────────────────

func (s *Server) handleChainGetInfo(req *Request) (interface{}, *Error) {
	count, err := s.ledger.LaunchCount()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	tip := s.clock.Tip()
	return &ChainInfoResult{
		ChainID:        s.genesis.ChainID,
		Symbol:         s.genesis.Symbol,
		Height:         tip.Height,
		TipHash:        tip.Hash.String(),
		TipTime:        tip.Timestamp,
		Owner:          s.guard.Owner().String(),
		PlatformWallet: s.ledger.PlatformWallet().String(),
		PlatformFeeBps: s.ledger.Rules().PlatformFeeBps,
		Paused:         s.guard.Paused(),
		Launches:       count,
	}, nil
}

func (s *Server) handleChainGetBlock(req *Request) (interface{}, *Error) {
	var params HeightParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	blk, err := s.clock.GetBlock(params.Height)
	if errors.Is(err, chain.ErrBlockNotFound) {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("no block at height %d", params.Height)}
	}
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return blk, nil
}

func (s *Server) handleBankGetBalance(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	bal, err := s.bank.Balance(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &BalanceResult{Address: addr.String(), Balance: bal}, nil
}

func (s *Server) handleAuthGetNonce(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	next, err := s.nonces.Next(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &NonceResult{Address: addr.String(), Next: next}, nil
}

// ── Launch reads ────────────────────────────────────────────────────────

func (s *Server) handleLaunchGet(req *Request) (interface{}, *Error) {
	var params LaunchIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	l, err := s.ledger.GetLaunch(params.LaunchID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return l, nil
}

func (s *Server) handleLaunchGetStats(req *Request) (interface{}, *Error) {
	var params LaunchIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	st, err := s.ledger.GetLaunchStats(params.LaunchID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return st, nil
}

func (s *Server) handleLaunchGetContribution(req *Request) (interface{}, *Error) {
	var params ContributionParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	c, err := s.ledger.GetUserContribution(params.LaunchID, addr)
	if err != nil {
		return nil, ledgerError(err)
	}
	return c, nil
}

func (s *Server) handleLaunchList(req *Request) (interface{}, *Error) {
	params := ListParam{From: 1, Limit: 20}
	if req.Params != nil {
		if err := parseParams(req, &params); err != nil {
			return nil, err
		}
	}
	if params.Limit == 0 || params.Limit > maxListLimit {
		params.Limit = maxListLimit
	}
	total, err := s.ledger.LaunchCount()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	launches, err := s.ledger.Launches(params.From, params.Limit)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if launches == nil {
		launches = []*lptypes.Launch{}
	}
	return &LaunchListResult{Total: total, Launches: launches}, nil
}

func (s *Server) handleLaunchContributions(req *Request) (interface{}, *Error) {
	var params LaunchIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	list, err := s.ledger.Contributions(params.LaunchID)
	if err != nil {
		return nil, ledgerError(err)
	}
	if list == nil {
		list = []*lptypes.Contribution{}
	}
	return &ContributionListResult{Contributions: list}, nil
}

func (s *Server) handleLaunchFindContributions(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	list, err := s.ledger.FindContributions(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if list == nil {
		list = []*lptypes.Contribution{}
	}
	return &ContributionListResult{Contributions: list}, nil
}

// ── Registry reads ──────────────────────────────────────────────────────

func (s *Server) handleRegistryGetToken(req *Request) (interface{}, *Error) {
	var params LaunchIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	res := &TokenResult{LaunchID: params.LaunchID}
	if tok, ok := s.ledger.DeployedToken(params.LaunchID); ok {
		res.Token = tok.String()
		res.Found = true
	}
	return res, nil
}

func (s *Server) handleRegistryGetCount(req *Request) (interface{}, *Error) {
	return &CountResult{Count: s.ledger.DeploymentCount()}, nil
}

func (s *Server) handleRegistryList(req *Request) (interface{}, *Error) {
	entries := s.ledger.Deployments()
	out := make([]DeploymentResult, len(entries))
	for i, e := range entries {
		out[i] = DeploymentResult{
			LaunchID:     e.LaunchID,
			Token:        e.Token.String(),
			Registrar:    e.Registrar.String(),
			RegisteredAt: e.RegisteredAt,
		}
	}
	return &DeploymentListResult{Deployments: out}, nil
}

// ── Signed calls ────────────────────────────────────────────────────────

type signedHandler func(caller types.Address, payload json.RawMessage) (interface{}, *Error)

// signed wraps h so it runs only once the request envelope authenticates,
// receiving the recovered caller and the raw payload.
func (s *Server) signed(h signedHandler) handler {
	return func(req *Request) (interface{}, *Error) {
		var p SignedParams
		if err := parseParams(req, &p); err != nil {
			return nil, err
		}
		if len(p.Payload) == 0 {
			return nil, &Error{Code: CodeInvalidParams, Message: "payload is required"}
		}
		caller, rpcErr := s.authenticate(req.Method, &p)
		if rpcErr != nil {
			return nil, rpcErr
		}
		return h(caller, p.Payload)
	}
}

func (s *Server) handleLaunchCreate(caller types.Address, payload json.RawMessage) (interface{}, *Error) {
	var p CreateLaunchPayload
	if err := decodeParams(payload, &p); err != nil {
		return nil, err
	}
	id, err := s.ledger.CreateLaunch(caller, p)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &CreateLaunchResult{LaunchID: id}, nil
}

func (s *Server) handleLaunchBuy(caller types.Address, payload json.RawMessage) (interface{}, *Error) {
	var p BuyPayload
	if err := decodeParams(payload, &p); err != nil {
		return nil, err
	}
	purchase, err := s.ledger.BuyTokens(caller, p.LaunchID, p.Amount)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &purchase, nil
}

func (s *Server) handleLaunchFinalize(caller types.Address, payload json.RawMessage) (interface{}, *Error) {
	var p LaunchIDParam
	if err := decodeParams(payload, &p); err != nil {
		return nil, err
	}
	ok, err := s.ledger.FinalizeLaunch(caller, p.LaunchID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &FinalizeResult{LaunchID: p.LaunchID, Successful: ok}, nil
}

func (s *Server) handleLaunchClaim(caller types.Address, payload json.RawMessage) (interface{}, *Error) {
	var p LaunchIDParam
	if err := decodeParams(payload, &p); err != nil {
		return nil, err
	}
	tokens, err := s.ledger.ClaimTokens(caller, p.LaunchID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &ClaimResult{LaunchID: p.LaunchID, Tokens: tokens}, nil
}

func (s *Server) handleLaunchRefund(caller types.Address, payload json.RawMessage) (interface{}, *Error) {
	var p LaunchIDParam
	if err := decodeParams(payload, &p); err != nil {
		return nil, err
	}
	amount, err := s.ledger.RequestRefund(caller, p.LaunchID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &RefundResult{LaunchID: p.LaunchID, Amount: amount}, nil
}

func (s *Server) handleLaunchRegisterToken(caller types.Address, payload json.RawMessage) (interface{}, *Error) {
	var p RegisterTokenPayload
	if err := decodeParams(payload, &p); err != nil {
		return nil, err
	}
	tok, err := types.HexToTokenID(p.Token)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid token: %v", err)}
	}
	creator, rpcErr := parseAddress(p.Creator)
	if rpcErr != nil {
		return nil, rpcErr
	}
	reg := lptypes.TokenRegistration{
		Token:   tok,
		Name:    p.Name,
		Symbol:  p.Symbol,
		Supply:  p.Supply,
		Creator: creator,
	}
	ok, err := s.ledger.RegisterToken(caller, p.LaunchID, reg)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &RegisterTokenResult{LaunchID: p.LaunchID, Token: tok.String(), Registered: ok}, nil
}

func (s *Server) handleAdminPause(caller types.Address, payload json.RawMessage) (interface{}, *Error) {
	var p PausePayload
	if err := decodeParams(payload, &p); err != nil {
		return nil, err
	}
	paused, err := s.ledger.PauseContract(caller, p.Paused)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &PauseResult{Paused: paused}, nil
}
