// Package clients holds thin HTTP clients for the downloaders the panel
// pushes settings to. Failures here are reported to the side-effect
// dispatcher, never to the UI.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// Aria2 talks to the aria2c JSON-RPC endpoint.
type Aria2 struct {
	URL    string // e.g. http://localhost:6800/jsonrpc
	Secret string
}

type aria2Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type aria2Response struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Aria2) call(ctx context.Context, method string, params ...any) error {
	if a.Secret != "" {
		params = append([]any{"token:" + a.Secret}, params...)
	}
	body, err := json.Marshal(aria2Request{
		JSONRPC: "2.0",
		ID:      "settings-bot",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var out aria2Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("aria2: decode response: %w", err)
	}
	if out.Error != nil {
		return fmt.Errorf("aria2: %s (code %d)", out.Error.Message, out.Error.Code)
	}
	return nil
}

// SetGlobalOption pushes one global option to the running aria2c.
func (a *Aria2) SetGlobalOption(ctx context.Context, key, value string) error {
	return a.call(ctx, "aria2.changeGlobalOption", map[string]string{key: value})
}
