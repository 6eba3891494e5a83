package store

import (
	"strings"
	"testing"
)

func TestBuildConnString_EscapesPassword(t *testing.T) {
	cfg := DBConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "gateways",
		User:     "actorlink",
		Password: "p@ss word/!",
	}

	got := buildConnString(cfg)
	if !strings.Contains(got, "p%40ss+word%2F%21") {
		t.Errorf("expected escaped password in connection string, got %q", got)
	}
	if !strings.Contains(got, "sslmode=prefer") {
		t.Errorf("expected default sslmode=prefer, got %q", got)
	}
}

func TestBuildConnString_HonorsSSLMode(t *testing.T) {
	cfg := DBConfig{Host: "h", Port: 1, Name: "n", User: "u", Password: "p", SSLMode: "require"}
	got := buildConnString(cfg)
	if !strings.Contains(got, "sslmode=require") {
		t.Errorf("expected sslmode=require, got %q", got)
	}
}

func TestNoopStore_RoundTrip(t *testing.T) {
	var s NoopStore
	uris, err := s.LoadSeed(nil)
	if err != nil || uris != nil {
		t.Errorf("expected empty, nil-error load from NoopStore, got %v, %v", uris, err)
	}
	if err := s.SaveSeed(nil, nil); err != nil {
		t.Errorf("expected nil error from NoopStore.SaveSeed, got %v", err)
	}
}
