package betfair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultRPCURL = "https://api.betfair.com/exchange/betting/json-rpc/v1"
	methodPrefix  = "SportsAPING/v1.0/"
	rpcTimeout    = 15 * time.Second
)

// rpcClient issues JSON-RPC calls against the exchange betting API and
// unwraps the envelope. Calls are sequential per session, so the
// correlation id is fixed at 1.
type rpcClient struct {
	appKey     string
	rpcURL     string
	httpClient *http.Client
}

func newRPCClient(appKey string) *rpcClient {
	return &rpcClient{
		appKey:     appKey,
		rpcURL:     defaultRPCURL,
		httpClient: &http.Client{Timeout: rpcTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// call wraps method/params into the RPC envelope, posts it with the
// session token, and returns the raw result payload.
func (c *rpcClient) call(ctx context.Context, token, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  methodPrefix + method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, &RPCError{Method: method, Detail: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, &RPCError{Method: method, Detail: "create request", Err: err}
	}
	req.Header.Set("X-Application", c.appKey)
	req.Header.Set("X-Authentication", token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RPCError{Method: method, Detail: "execute request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RPCError{Method: method, Detail: "read response body", Err: err}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &RPCError{Method: method, Detail: fmt.Sprintf("invalid JSON response: %s", truncate(raw, 200))}
	}
	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		return nil, &RPCError{Method: method, Detail: "upstream error: " + string(envelope.Error)}
	}

	return envelope.Result, nil
}
