// Package rpcclient provides a JSON-RPC 2.0 client for launchpad nodes.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Klingon-tech/klingnet-launchpad/internal/rpc"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// defaultTimeout bounds one HTTP round trip.
const defaultTimeout = 10 * time.Second

// Client is a JSON-RPC 2.0 HTTP client. It is safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Uint64

	chainMu sync.Mutex
	chainID string // cached from chain_getInfo
}

// New creates a client for endpoint, e.g. "http://127.0.0.1:9545".
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, defaultTimeout)
}

// NewWithTimeout creates a client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

// response mirrors rpc.Response with the result left undecoded.
type response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    *rpc.ErrorData `json:"data,omitempty"`
	} `json:"error,omitempty"`
	ID uint64 `json:"id"`
}

// RPCError is returned when the server responds with an error. Codespace
// is set for ledger rejections, whose Code is the ledger's error code.
type RPCError struct {
	Code      int
	Message   string
	Codespace string
}

func (e *RPCError) Error() string {
	if e.Codespace != "" {
		return fmt.Sprintf("%s error %d: %s", e.Codespace, e.Code, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsCode reports whether err is a server error with the given codespace
// and code. Use an empty codespace for JSON-RPC protocol errors.
func IsCode(err error, codespace string, code int) bool {
	var e *RPCError
	return errors.As(err, &e) && e.Codespace == codespace && e.Code == code
}

// Call invokes method and decodes the result into result, which may be
// nil to discard it.
func (c *Client) Call(method string, params, result interface{}) error {
	return c.CallContext(context.Background(), method, params, result)
}

// CallContext is Call bounded by ctx.
func (c *Client) CallContext(ctx context.Context, method string, params, result interface{}) error {
	id := c.nextID.Add(1)
	body, err := json.Marshal(rpc.Request{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		e := &RPCError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
		if rpcResp.Error.Data != nil {
			e.Codespace = rpcResp.Error.Data.Codespace
		}
		return e
	}
	if rpcResp.ID != id {
		return fmt.Errorf("response id %d does not match request %d", rpcResp.ID, id)
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// NextNonce returns the lowest nonce the node accepts from addr.
func (c *Client) NextNonce(addr types.Address) (uint64, error) {
	var res rpc.NonceResult
	if err := c.Call("auth_getNonce", rpc.AddressParam{Address: addr.String()}, &res); err != nil {
		return 0, err
	}
	return res.Next, nil
}

// ChainID returns the node's chain id, fetched once and cached.
func (c *Client) ChainID() (string, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()
	if c.chainID != "" {
		return c.chainID, nil
	}
	var info rpc.ChainInfoResult
	if err := c.Call("chain_getInfo", nil, &info); err != nil {
		return "", fmt.Errorf("fetch chain id: %w", err)
	}
	if info.ChainID == "" {
		return "", fmt.Errorf("node reported an empty chain id")
	}
	c.chainID = info.ChainID
	return c.chainID, nil
}

// CallSigned signs payload with signer under nonce for the node's chain
// and invokes method.
func (c *Client) CallSigned(signer crypto.Signer, method string, nonce uint64, payload, result interface{}) error {
	chainID, err := c.ChainID()
	if err != nil {
		return err
	}
	params, err := rpc.SignEnvelope(signer, chainID, method, nonce, payload)
	if err != nil {
		return err
	}
	return c.Call(method, params, result)
}

// Send signs payload with the signer's next nonce and invokes method.
func (c *Client) Send(signer crypto.Signer, method string, payload, result interface{}) error {
	nonce, err := c.NextNonce(crypto.AddressFromPubKey(signer.PublicKey()))
	if err != nil {
		return fmt.Errorf("fetch nonce: %w", err)
	}
	return c.CallSigned(signer, method, nonce, payload, result)
}
