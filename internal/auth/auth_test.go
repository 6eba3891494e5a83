package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func writeTestKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func TestLoadCredentials(t *testing.T) {
	path := writeTestKey(t)

	creds, err := LoadCredentials("client-1", path)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.KeyID != "client-1" {
		t.Errorf("KeyID = %q, want client-1", creds.KeyID)
	}
}

func TestSignRequest_ProducesAllHeaders(t *testing.T) {
	path := writeTestKey(t)
	creds, err := LoadCredentials("client-1", path)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}

	headers, err := creds.SignRequest("GET", "/gateways")
	if err != nil {
		t.Fatalf("SignRequest failed: %v", err)
	}

	for _, h := range []string{HeaderClientKey, HeaderTimestamp, HeaderNonce, HeaderSignature} {
		if headers[h] == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if headers[HeaderClientKey] != "client-1" {
		t.Errorf("HeaderClientKey = %q, want client-1", headers[HeaderClientKey])
	}
}

func TestLoadCredentials_MissingKeyID(t *testing.T) {
	path := writeTestKey(t)
	if _, err := LoadCredentials("", path); err == nil {
		t.Error("expected error for empty key ID")
	}
}
