package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer serves canned hits and captures request details.
func newTestServer(t *testing.T, status int, hits []RawHit) (*httptest.Server, *http.Request) {
	t.Helper()

	var captured http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(hits)
		}
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

// TestHTTPClient_Search tests a successful search call.
func TestHTTPClient_Search(t *testing.T) {
	hits := []RawHit{
		{"formattedAddress": "123 Oak St", "bedrooms": float64(3)},
		{"formattedAddress": "9 Elm Ave"},
	}
	server, captured := newTestServer(t, http.StatusOK, hits)

	client := NewHTTPClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	got, err := client.Search(context.Background(), "owner-1", map[string]any{
		"city":  "Fort Worth",
		"state": "TX",
	})
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(got))
	}
	if got[0]["formattedAddress"] != "123 Oak St" {
		t.Errorf("Unexpected first hit %v", got[0])
	}

	if captured.URL.Path != "/properties" {
		t.Errorf("Expected /properties path, got %q", captured.URL.Path)
	}
	if captured.Header.Get("X-Api-Key") != "test-key" {
		t.Error("Expected API key header")
	}
	query := captured.URL.Query()
	if query.Get("city") != "Fort Worth" || query.Get("state") != "TX" {
		t.Errorf("Expected criteria as query parameters, got %v", query)
	}
}

// TestHTTPClient_APIError tests non-success status handling.
func TestHTTPClient_APIError(t *testing.T) {
	server, _ := newTestServer(t, http.StatusUnauthorized, nil)

	client := NewHTTPClient(Config{BaseURL: server.URL})
	_, err := client.Search(context.Background(), "owner-1", map[string]any{"city": "X"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", apiErr.StatusCode)
	}
}

// TestHTTPClient_QueryBudget tests per-owner quota enforcement.
func TestHTTPClient_QueryBudget(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, []RawHit{})

	client := NewHTTPClient(Config{BaseURL: server.URL, MaxQueries: 2})
	ctx := context.Background()
	criteria := map[string]any{"city": "X"}

	for i := 0; i < 2; i++ {
		if _, err := client.Search(ctx, "owner-1", criteria); err != nil {
			t.Fatalf("Search() %d failed: %v", i, err)
		}
	}

	var quotaErr *QuotaError
	_, err := client.Search(ctx, "owner-1", criteria)
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaError, got %v", err)
	}
	if quotaErr.Limit != 2 {
		t.Errorf("Expected limit 2, got %d", quotaErr.Limit)
	}

	// The budget is per owner.
	if _, err := client.Search(ctx, "owner-2", criteria); err != nil {
		t.Errorf("Expected owner-2 to have a fresh budget: %v", err)
	}

	if remaining := client.Remaining("owner-1"); remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", remaining)
	}
	if remaining := client.Remaining("owner-2"); remaining != 1 {
		t.Errorf("Expected 1 remaining, got %d", remaining)
	}
}

// TestHTTPClient_FailedCallRefundsQuota tests that transport and API errors
// do not burn the budget.
func TestHTTPClient_FailedCallRefundsQuota(t *testing.T) {
	server, _ := newTestServer(t, http.StatusInternalServerError, nil)

	client := NewHTTPClient(Config{BaseURL: server.URL, MaxQueries: 1})
	ctx := context.Background()

	if _, err := client.Search(ctx, "owner-1", map[string]any{"city": "X"}); err == nil {
		t.Fatal("Expected an error from the failing server")
	}
	if remaining := client.Remaining("owner-1"); remaining != 1 {
		t.Errorf("Expected the failed call to be refunded, got %d remaining", remaining)
	}
}

// TestHTTPClient_UnlimitedBudget tests the MaxQueries=0 case.
func TestHTTPClient_UnlimitedBudget(t *testing.T) {
	client := NewHTTPClient(Config{BaseURL: "http://example.invalid"})
	if remaining := client.Remaining("owner-1"); remaining != -1 {
		t.Errorf("Expected -1 for unlimited budget, got %d", remaining)
	}
}
