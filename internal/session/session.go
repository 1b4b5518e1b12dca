// Package session owns the venue bearer token. Expiry is discovered
// reactively: a rejected call triggers one transparent re-authentication and
// one retry, never a loop. This trades an occasional wasted round trip for
// independence from venue clock skew.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"trend-engine/pkg/venue"
)

// Manager holds the token and wraps every private venue call. The token
// never leaves this package except as an attached Authorization header.
type Manager struct {
	client    *venue.Client
	apiKey    string
	apiSecret string

	mu    sync.Mutex
	token string
}

func NewManager(client *venue.Client, apiKey, apiSecret string) *Manager {
	return &Manager{client: client, apiKey: apiKey, apiSecret: apiSecret}
}

// Authenticate exchanges credentials for a fresh bearer token.
func (m *Manager) Authenticate(ctx context.Context) error {
	token, err := m.client.Login(ctx, m.apiKey, m.apiSecret)
	if err != nil {
		m.mu.Lock()
		m.token = ""
		m.mu.Unlock()
		return fmt.Errorf("authenticate: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	logTokenClaims(token)
	return nil
}

func (m *Manager) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// call runs fn with the current token, re-authenticating transparently at
// most once when the venue rejects it. A second consecutive rejection is
// surfaced to the caller.
func (m *Manager) call(ctx context.Context, fn func(token string) error) error {
	token := m.currentToken()
	if token == "" {
		if err := m.Authenticate(ctx); err != nil {
			return err
		}
		token = m.currentToken()
	}

	err := fn(token)
	if err == nil || !venue.IsAuthError(err) {
		return err
	}

	log.Printf("session token rejected, re-authenticating: %v", err)
	if authErr := m.Authenticate(ctx); authErr != nil {
		return fmt.Errorf("re-authentication after rejected call failed: %w", authErr)
	}
	return fn(m.currentToken())
}

// Wallet returns the available balance for a settlement currency.
func (m *Manager) Wallet(ctx context.Context, currency string) (float64, error) {
	var balance float64
	err := m.call(ctx, func(token string) error {
		var err error
		balance, err = m.client.GetWallet(ctx, token, currency)
		return err
	})
	return balance, err
}

// Positions returns all venue-reported open positions.
func (m *Manager) Positions(ctx context.Context) ([]venue.Position, error) {
	var positions []venue.Position
	err := m.call(ctx, func(token string) error {
		var err error
		positions, err = m.client.GetPositions(ctx, token)
		return err
	})
	return positions, err
}

// PlaceOrder submits one order.
func (m *Manager) PlaceOrder(ctx context.Context, req venue.OrderRequest) (venue.OrderResult, error) {
	var res venue.OrderResult
	err := m.call(ctx, func(token string) error {
		var err error
		res, err = m.client.PlaceOrder(ctx, token, req)
		return err
	})
	return res, err
}

// Fills returns the most recent fills for an instrument, newest first.
func (m *Manager) Fills(ctx context.Context, instrument string, limit int) ([]venue.Fill, error) {
	var fills []venue.Fill
	err := m.call(ctx, func(token string) error {
		var err error
		fills, err = m.client.GetFills(ctx, token, instrument, limit)
		return err
	})
	return fills, err
}

// logTokenClaims logs the expiry embedded in a JWT token, purely for
// operator visibility. Opaque tokens are fine; nothing here schedules a
// proactive renewal.
func logTokenClaims(token string) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return
	}
	if claims.ExpiresAt != nil {
		log.Printf("✓ session authenticated, token expires %s", claims.ExpiresAt.Time.UTC().Format("2006-01-02 15:04:05"))
	} else {
		log.Println("✓ session authenticated")
	}
}
