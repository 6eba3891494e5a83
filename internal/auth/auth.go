// Package auth signs discovery API requests using RSA-PSS, the same
// signature primitive the teacher repo reaches for on its exchange API,
// adapted for a client that may be signing requests bound for more than
// one gateway replica behind the discovery endpoint.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"
)

// domainTag namespaces the signed message so a signature produced here
// can never be replayed against an unrelated API that happens to share
// the same key-ID/timestamp/path shape.
const domainTag = "actorlink-discovery-v1"

// Headers are the names of the signature fields attached to a signed
// discovery request.
const (
	HeaderClientKey = "X-Gateway-Client-Key"
	HeaderTimestamp = "X-Gateway-Client-Timestamp"
	HeaderNonce     = "X-Gateway-Client-Nonce"
	HeaderSignature = "X-Gateway-Client-Signature"
)

// Credentials holds the client key ID and private key used to sign
// requests to the gateway discovery API.
type Credentials struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// LoadCredentials loads credentials from a key ID and a PEM-encoded RSA
// private key file.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("auth: client key ID is required")
	}
	if privateKeyPath == "" {
		return nil, fmt.Errorf("auth: private key path is required")
	}

	privateKey, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: load private key: %w", err)
	}

	return &Credentials{KeyID: keyID, PrivateKey: privateKey}, nil
}

// keyParsers tries each PEM encoding this package accepts, in order.
var keyParsers = []func([]byte) (*rsa.PrivateKey, error){
	parsePKCS8,
	parsePKCS1,
}

func parsePKCS8(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not RSA")
	}
	return rsaKey, nil
}

func parsePKCS1(der []byte) (*rsa.PrivateKey, error) {
	return x509.ParsePKCS1PrivateKey(der)
}

// LoadPrivateKey loads an RSA private key from a PEM file, accepting
// either PKCS#8 or PKCS#1 encoding.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("auth: no PEM block found in %s", path)
	}

	var errs []string
	for _, parse := range keyParsers {
		key, parseErr := parse(block.Bytes)
		if parseErr == nil {
			return key, nil
		}
		errs = append(errs, parseErr.Error())
	}
	return nil, fmt.Errorf("auth: unrecognized private key encoding: %s", strings.Join(errs, "; "))
}

// SignRequest generates the signature fields for a discovery API
// request, folding a per-call nonce into the signed message so the same
// (key, timestamp, method, path) tuple never produces the same bytes on
// the wire twice.
func (c *Credentials) SignRequest(method, path string) (map[string]string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("auth: generate nonce: %w", err)
	}
	nonceHex := hex.EncodeToString(nonce)
	timestampMs := time.Now().UnixMilli()

	signature, err := c.sign(timestampMs, method, path, nonceHex)
	if err != nil {
		return nil, fmt.Errorf("auth: sign request: %w", err)
	}

	return map[string]string{
		HeaderClientKey: c.KeyID,
		HeaderTimestamp: fmt.Sprintf("%d", timestampMs),
		HeaderNonce:     nonceHex,
		HeaderSignature: signature,
	}, nil
}

// sign builds the canonical message for one request and returns its
// base64-encoded RSA-PSS/SHA-512 signature. The message binds the key
// ID into the signed bytes themselves, not just the envelope, so a
// signature can't be replayed under a different client's key ID by an
// intermediary that rewrites headers but not the body.
func (c *Credentials) sign(timestampMs int64, method, path, nonce string) (string, error) {
	message := strings.Join([]string{
		domainTag,
		c.KeyID,
		fmt.Sprintf("%d", timestampMs),
		strings.ToUpper(method),
		path,
		nonce,
	}, "\n")

	hashed := sha512.Sum512([]byte(message))

	opts := &rsa.PSSOptions{SaltLength: sha512.Size}
	signature, err := rsa.SignPSS(rand.Reader, c.PrivateKey, crypto.SHA512, hashed[:], opts)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}
