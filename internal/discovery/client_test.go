package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetLiveURIs_FiltersDeadGateways(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GatewaysResponse{
			Gateways: []GatewayInfo{
				{Host: "gw1", Port: 9000, Alive: true},
				{Host: "gw2", Port: 9000, Alive: false},
				{Host: "gw3", Port: 9000, Alive: true},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	uris, err := client.GetLiveURIs(context.Background())
	if err != nil {
		t.Fatalf("GetLiveURIs failed: %v", err)
	}

	if len(uris) != 2 {
		t.Fatalf("expected 2 live gateways, got %d: %v", len(uris), uris)
	}
}

func TestGetLiveURIs_RetriesOn5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(GatewaysResponse{
			Gateways: []GatewayInfo{{Host: "gw1", Port: 9000, Alive: true}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, WithRetries(3, 0))
	uris, err := client.GetLiveURIs(context.Background())
	if err != nil {
		t.Fatalf("GetLiveURIs failed: %v", err)
	}
	if len(uris) != 1 {
		t.Fatalf("expected 1 gateway, got %d", len(uris))
	}
	if attempts < 2 {
		t.Errorf("expected at least 2 attempts, got %d", attempts)
	}
}

func TestGetLiveURIs_NoRetryOn4xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, WithRetries(3, 0))
	if _, err := client.GetLiveURIs(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}
