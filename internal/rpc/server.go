// Package rpc serves the launchpad over JSON-RPC 2.0: chain and launch reads,
// plus signed calls that drive the ledger.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-launchpad/config"
	"github.com/Klingon-tech/klingnet-launchpad/internal/bank"
	"github.com/Klingon-tech/klingnet-launchpad/internal/chain"
	"github.com/Klingon-tech/klingnet-launchpad/internal/guard"
	"github.com/Klingon-tech/klingnet-launchpad/internal/launchpad"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
)

// maxBodySize caps request bodies at 1 MiB.
const maxBodySize = 1 << 20

// Backend is the node state the server exposes.
type Backend struct {
	Ledger  *launchpad.Ledger
	Bank    *bank.Bank
	Clock   *chain.Clock
	Guard   *guard.Guard
	Genesis *config.Genesis
	Nonces  *NonceStore
}

// handler serves one JSON-RPC method.
type handler func(req *Request) (interface{}, *Error)

// Server answers JSON-RPC calls over HTTP POST.
type Server struct {
	addr    string
	ledger  *launchpad.Ledger
	bank    *bank.Bank
	clock   *chain.Clock
	guard   *guard.Guard
	genesis *config.Genesis
	nonces  *NonceStore
	routes  map[string]handler
	server  *http.Server
	logger  zerolog.Logger
	ln      net.Listener

	allowed []netip.Prefix // empty allows every client
	cors    []string       // empty sends no CORS headers
}

// New creates a new RPC server. The optional rpcCfg controls IP filtering
// and CORS; without it every client is allowed and CORS is off.
func New(addr string, b Backend, rpcCfg ...config.RPCConfig) *Server {
	s := &Server{
		addr:    addr,
		ledger:  b.Ledger,
		bank:    b.Bank,
		clock:   b.Clock,
		guard:   b.Guard,
		genesis: b.Genesis,
		nonces:  b.Nonces,
		logger:  klog.RPC,
	}
	if len(rpcCfg) > 0 {
		s.allowed = parseAllowedIPs(rpcCfg[0].AllowedIPs)
		s.cors = rpcCfg[0].CORSOrigins
	}
	s.routes = map[string]handler{
		"chain_getInfo":            s.handleChainGetInfo,
		"chain_getBlock":           s.handleChainGetBlock,
		"bank_getBalance":          s.handleBankGetBalance,
		"auth_getNonce":            s.handleAuthGetNonce,
		"launch_get":               s.handleLaunchGet,
		"launch_getStats":          s.handleLaunchGetStats,
		"launch_getContribution":   s.handleLaunchGetContribution,
		"launch_list":              s.handleLaunchList,
		"launch_contributions":     s.handleLaunchContributions,
		"launch_findContributions": s.handleLaunchFindContributions,
		"registry_getToken":        s.handleRegistryGetToken,
		"registry_getCount":        s.handleRegistryGetCount,
		"registry_list":            s.handleRegistryList,

		"launch_create":        s.signed(s.handleLaunchCreate),
		"launch_buy":           s.signed(s.handleLaunchBuy),
		"launch_finalize":      s.signed(s.handleLaunchFinalize),
		"launch_claim":         s.signed(s.handleLaunchClaim),
		"launch_refund":        s.signed(s.handleLaunchRefund),
		"launch_registerToken": s.signed(s.handleLaunchRegisterToken),
		"admin_pause":          s.signed(s.handleAdminPause),
	}

	s.server = &http.Server{
		Handler:      s.accessControl(http.HandlerFunc(s.handleRequest)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Methods lists the served method names in order.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.routes))
	for name := range s.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseAllowedIPs turns IP and CIDR entries into prefixes, skipping
// entries that are neither.
func parseAllowedIPs(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, entry := range entries {
		if p, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured one
// when listening on port 0.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// accessControl applies the client IP allow list and CORS before next.
func (s *Server) accessControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.allowed) > 0 && !s.clientAllowed(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		s.setCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) clientAllowed(remote string) bool {
	ap, err := netip.ParseAddrPort(remote)
	if err != nil {
		return false
	}
	ip := ap.Addr().Unmap()
	for _, p := range s.allowed {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// handleRequest decodes one JSON-RPC call and routes it.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var wire struct {
		Request
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}
	req := wire.Request
	if len(wire.Params) > 0 && string(wire.Params) != "null" {
		// Handlers decode the bytes as sent; signed payloads must not be
		// re-encoded before verification.
		req.Params = wire.Params
	}
	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, `jsonrpc must be "2.0"`)
		return
	}

	h, ok := s.routes[req.Method]
	if !ok {
		writeError(w, req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
		return
	}
	result, rpcErr := h(&req)
	if rpcErr != nil {
		s.logger.Debug().Str("method", req.Method).Int("code", rpcErr.Code).Msg(rpcErr.Message)
		writeJSON(w, Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID})
		return
	}
	writeJSON(w, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// setCORSHeaders echoes a configured origin back to the browser.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	for _, o := range s.cors {
		if o == "*" || o == origin {
			w.Header().Set("Access-Control-Allow-Origin", o)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			return
		}
	}
}

// parseParams decodes req.Params into target; absent params are an error.
// Params read off the wire arrive as json.RawMessage and decode unchanged.
func parseParams(req *Request, target interface{}) *Error {
	switch p := req.Params.(type) {
	case nil:
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	case json.RawMessage:
		return decodeParams(p, target)
	}
	data, err := json.Marshal(req.Params)
	if err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params"}
	}
	return decodeParams(data, target)
}

func decodeParams(data []byte, target interface{}) *Error {
	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
