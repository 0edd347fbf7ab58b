package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Generate(t *testing.T) {
	var gotReq GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reports/generate" {
			t.Errorf("path = %q, want /v1/reports/generate", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(GenerateResponse{
			Ticker:    gotReq.Ticker,
			Direction: "BULLISH",
			Summary:   "momentum continuation likely",
			Support:   []float64{184.2, 182.0},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "", WithTimeout(5*time.Second))

	resp, err := c.Generate(context.Background(), GenerateRequest{
		Ticker:         "AAPL",
		Price:          187.5,
		ChangePercent:  1.2,
		ReferenceClose: 185.3,
		Session:        "regular",
		Signals:        map[string]string{"options_flow": "bullish"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Direction != "BULLISH" {
		t.Errorf("Direction = %q, want BULLISH", resp.Direction)
	}
	if gotReq.Session != "regular" || gotReq.Signals["options_flow"] != "bullish" {
		t.Errorf("request not carried through: %+v", gotReq)
	}
}

func TestClient_GenerateErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "")

	_, err := c.Generate(context.Background(), GenerateRequest{Ticker: "AAPL"})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
	}
	if len(apiErr.Body) == 0 {
		t.Error("expected response body captured")
	}
}

func TestClient_GenerateDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "", WithRetries(3, 10*time.Millisecond))

	if _, err := c.Generate(context.Background(), GenerateRequest{Ticker: "AAPL"}); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("generator calls = %d, want 1 (no retry)", got)
	}
}

func TestClient_PreviousClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/aggs/ticker/AAPL/prev" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Errorf("apiKey = %q, want test-key", r.URL.Query().Get("apiKey"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"AAPL","status":"OK","results":[{"c":185.3,"o":183.1,"h":186.0,"l":182.9,"v":51230000}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "test-key")

	close, err := c.PreviousClose(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("PreviousClose failed: %v", err)
	}
	if close != 185.3 {
		t.Errorf("close = %v, want 185.3", close)
	}
}

func TestClient_PreviousCloseEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker":"NEWIPO","status":"OK","results":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "")

	_, err := c.PreviousClose(context.Background(), "NEWIPO")
	if !errors.Is(err, ErrEmptyBaseline) {
		t.Errorf("err = %v, want ErrEmptyBaseline", err)
	}
}

func TestClient_SnapshotRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"OK","ticker":{"ticker":"AAPL","todaysChange":2.2,"todaysChangePerc":1.19,"lastTrade":{"p":187.5},"prevDay":{"c":185.3}}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "", WithRetries(3, 5*time.Millisecond))

	snap, err := c.Snapshot(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.LastPrice != 187.5 || snap.PrevClose != 185.3 {
		t.Errorf("snapshot = %+v, want lastTrade 187.5 prevDay 185.3", snap)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3 (two retries)", got)
	}
}

func TestClient_NotFoundNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown ticker", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "", WithRetries(3, 5*time.Millisecond))

	if _, err := c.Snapshot(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (404 not retryable)", got)
	}
}
