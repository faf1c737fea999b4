// Package cstest signs webhook bodies and serves signing keys the way the
// platform does, for tests.
package cstest

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	go_json "github.com/goccy/go-json"
)

const keyBits = 2048

type Signer struct {
	key *rsa.PrivateKey
}

func NewSigner(t testing.TB) *Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &Signer{key: key}
}

// PublicKeyPEM returns the public key as a PKCS#1 "RSA PUBLIC KEY" block.
func (s *Signer) PublicKeyPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&s.key.PublicKey),
	}))
}

// PKIXPublicKeyPEM returns the public key as a PKIX "PUBLIC KEY" block.
func (s *Signer) PKIXPublicKeyPEM(t testing.TB) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// Sign returns the base64 RSA-PSS signature of the compacted body.
func (s *Signer) Sign(t testing.TB, body []byte) string {
	t.Helper()
	var buf bytes.Buffer
	if err := go_json.Compact(&buf, body); err != nil {
		t.Fatalf("compact body: %v", err)
	}
	return s.SignBytes(t, buf.Bytes())
}

// SignBytes returns the base64 RSA-PSS signature of payload exactly as given.
func (s *Signer) SignBytes(t testing.TB, payload []byte) string {
	t.Helper()
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

// Header returns a signature header value for body.
func (s *Signer) Header(t testing.TB, body []byte) string {
	t.Helper()
	return "sig=" + s.Sign(t, body)
}

// Body encodes a minimal delivery triggered at triggeredAt.
func Body(t testing.TB, triggeredAt time.Time) []byte {
	t.Helper()
	b, err := go_json.Marshal(map[string]any{
		"module":       "entry",
		"api_key":      "blt0000000000000000",
		"event":        "publish",
		"triggered_at": triggeredAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		"data": map[string]any{
			"entry": map[string]any{"uid": "blt1234", "title": "hello"},
		},
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return b
}

// KeyServer serves a signing-key document and counts requests.
type KeyServer struct {
	*httptest.Server
	calls atomic.Int64
}

func (k *KeyServer) Calls() int64 { return k.calls.Load() }

// NewKeyServer serves {"signing-key": key} with status 200.
func NewKeyServer(t testing.TB, key string) *KeyServer {
	t.Helper()
	body, err := go_json.Marshal(map[string]string{"signing-key": key})
	if err != nil {
		t.Fatalf("marshal key document: %v", err)
	}
	return NewRawKeyServer(t, http.StatusOK, body)
}

// NewRawKeyServer responds to every request with status and body.
func NewRawKeyServer(t testing.TB, status int, body []byte) *KeyServer {
	t.Helper()
	return NewKeyServerFunc(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}

func NewKeyServerFunc(t testing.TB, h http.HandlerFunc) *KeyServer {
	t.Helper()
	ks := &KeyServer{}
	ks.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ks.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(ks.Close)
	return ks
}
