package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trend-engine/internal/journal"
	"trend-engine/internal/risk"
	"trend-engine/internal/state"
	"trend-engine/pkg/db"
)

func testStatus() Status {
	return Status{
		Mode:       "paper",
		Equity:     10000,
		GateLocked: false,
		RiskDay:    risk.DayState{Day: "2025-06-01", StartingEquity: 10000},
		OpenPositions: []state.Position{{
			ID: "t-1", Instrument: "BTCUSDT", Side: "LONG",
			EntryPrice: 30000, StopPrice: 29925, TargetPrice: 30150, Size: 2,
		}},
	}
}

func TestHealthz(t *testing.T) {
	s := NewServer(testStatus, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	s := NewServer(testStatus, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "paper", got.Mode)
	require.Equal(t, 10000.0, got.Equity)
	require.Len(t, got.OpenPositions, 1)
	require.Equal(t, "BTCUSDT", got.OpenPositions[0].Instrument)
}

func TestTradesEndpoint(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(database))
	t.Cleanup(func() { database.Close() })

	j := journal.New(database)
	require.NoError(t, j.InsertOpen(context.Background(), journal.TradeRecord{
		ID: "t-1", Instrument: "BTCUSDT", Side: "LONG",
		EntryPrice: 30000, StopPrice: 29925, TargetPrice: 30150,
		Size: 2, RiskAmount: 30, OpenedAt: time.Now(),
	}))

	s := NewServer(testStatus, j)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trades?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Trades []journal.TradeRecord `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	require.Equal(t, "BTCUSDT", resp.Trades[0].Instrument)
}

func TestTradesEndpointRejectsBadLimit(t *testing.T) {
	s := NewServer(testStatus, nil)

	for _, limit := range []string{"0", "-5", "9999", "abc"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trades?limit="+limit, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := NewServer(testStatus, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testStatus, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
