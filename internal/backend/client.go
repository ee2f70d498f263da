package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is a thin HTTP client for the analysis backend. No timeouts are
// imposed here; callers bound latency through ctx if they need to.
type Client struct {
	HTTP *http.Client
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{}}
}

// TsharkHealth is the decoder availability probe response.
type TsharkHealth struct {
	Resolved   bool   `json:"resolved"`
	TsharkPath string `json:"tshark_path,omitempty"`
}

// TsharkVersion probes GET /tshark/version. Resolved=false means the
// backend is up but has no usable decoder.
func (c *Client) TsharkVersion(ctx context.Context, baseURL string) (TsharkHealth, error) {
	var health TsharkHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/tshark/version", nil)
	if err != nil {
		return health, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return health, fmt.Errorf("tshark health probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return health, statusError("tshark health probe", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, fmt.Errorf("tshark health probe: decode: %w", err)
	}
	return health, nil
}

// AnalyzePcap runs the remote analysis for a previously uploaded capture.
// The returned payload is opaque; the host never interprets it.
func (c *Client) AnalyzePcap(ctx context.Context, baseURL, sessionID string, maxPackets int) (json.RawMessage, error) {
	body := map[string]any{"session_id": sessionID}
	if maxPackets > 0 {
		body["max_packets"] = maxPackets
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/tools/analyzePcap", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote analyze: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("remote analyze", resp)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote analyze: read payload: %w", err)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("remote analyze: response is not valid JSON")
	}
	return json.RawMessage(payload), nil
}

// ChatReply mirrors the explanation service response.
type ChatReply struct {
	Query            string `json:"query"`
	Response         string `json:"response"`
	Timestamp        string `json:"timestamp"`
	ContextAvailable bool   `json:"context_available"`
}

// Chat forwards a query plus optional bounded context to POST /chat.
func (c *Client) Chat(ctx context.Context, baseURL, query, chatContext string) (ChatReply, error) {
	var reply ChatReply

	body := map[string]any{"query": query}
	if chatContext != "" {
		body["context"] = chatContext
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return reply, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat", bytes.NewReader(encoded))
	if err != nil {
		return reply, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return reply, fmt.Errorf("chat relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return reply, statusError("chat relay", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return reply, fmt.Errorf("chat relay: decode: %w", err)
	}
	return reply, nil
}

// statusError builds an error from a non-success response, folding in the
// body text best-effort. A body read failure is swallowed so it cannot mask
// the status itself.
func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("%s: backend returned %s", op, resp.Status)
	}
	return fmt.Errorf("%s: backend returned %s: %s", op, resp.Status, msg)
}
