package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client wraps REST access to the venue. Public endpoints need no token;
// private endpoints take the bearer token issued by Login.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

// NewClient builds a REST client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		// Stay well under typical venue rate limits; the engine is
		// cycle-driven so bursts are small.
		limiter: rate.NewLimiter(rate.Limit(8), 16),
	}
}

// Login exchanges API credentials for a bearer token.
func (c *Client) Login(ctx context.Context, apiKey, apiSecret string) (string, error) {
	if apiKey == "" || apiSecret == "" {
		return "", errors.New("venue: API key/secret required")
	}
	body := map[string]string{"api_key": apiKey, "api_secret": apiSecret}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("venue: login returned empty token")
	}
	return resp.Token, nil
}

// GetCandles fetches up to limit most recent bars for an instrument.
func (c *Client) GetCandles(ctx context.Context, instrument, resolution string, limit int) ([]Candle, error) {
	params := url.Values{}
	params.Set("instrument", instrument)
	params.Set("resolution", resolution)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var candles []Candle
	if err := c.do(ctx, http.MethodGet, "/v1/candles", "", params, nil, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// GetTicker fetches the latest traded price for an instrument.
func (c *Client) GetTicker(ctx context.Context, instrument string) (float64, error) {
	params := url.Values{}
	params.Set("instrument", instrument)
	var t Ticker
	if err := c.do(ctx, http.MethodGet, "/v1/ticker", "", params, nil, &t); err != nil {
		return 0, err
	}
	if t.Price <= 0 {
		return 0, fmt.Errorf("venue: ticker for %s returned price %v", instrument, t.Price)
	}
	return t.Price, nil
}

// GetWallet returns the available balance for a settlement currency.
func (c *Client) GetWallet(ctx context.Context, token, currency string) (float64, error) {
	params := url.Values{}
	params.Set("currency", currency)
	var resp struct {
		Currency string  `json:"currency"`
		Balance  float64 `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/wallet", token, params, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// GetPositions returns all venue-reported open positions.
func (c *Client) GetPositions(ctx context.Context, token string) ([]Position, error) {
	var positions []Position
	if err := c.do(ctx, http.MethodGet, "/v1/positions", token, nil, nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// PlaceOrder submits one order and returns the venue ack. It does not wait
// for a fill; confirmation is reconciliation's job.
func (c *Client) PlaceOrder(ctx context.Context, token string, req OrderRequest) (OrderResult, error) {
	var res OrderResult
	if err := c.do(ctx, http.MethodPost, "/v1/orders", token, nil, req, &res); err != nil {
		return OrderResult{}, err
	}
	return res, nil
}

// GetFills returns the most recent fills for an instrument, newest first.
func (c *Client) GetFills(ctx context.Context, token, instrument string, limit int) ([]Fill, error) {
	params := url.Values{}
	params.Set("instrument", instrument)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var fills []Fill
	if err := c.do(ctx, http.MethodGet, "/v1/fills", token, params, nil, &fills); err != nil {
		return nil, err
	}
	return fills, nil
}

// do sends one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path, token string, params url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	endpoint := c.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		return &APIError{
			Status:  res.StatusCode,
			Method:  method,
			Path:    path,
			Message: truncate(string(raw), 200),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
