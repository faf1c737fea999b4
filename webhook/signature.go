package webhook

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
)

var (
	errNoPEMBlock = errors.New("no PEM block found")
	errNotRSAKey  = errors.New("public key is not RSA")
)

// ExtractSignature returns the value of the first attribute in a header of
// the form "sig=<base64>[,...]". Anything past the second '=' of that
// attribute is dropped, so base64 padding does not survive extraction.
// A header without a value yields "".
func ExtractSignature(header string) string {
	first, _, _ := strings.Cut(header, ",")
	parts := strings.Split(first, "=")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// decodeSignature decodes standard base64 with or without padding. URL-safe
// characters are accepted as well.
func decodeSignature(token string) ([]byte, error) {
	token = strings.TrimRight(strings.TrimSpace(token), "=")
	token = strings.NewReplacer("-", "+", "_", "/").Replace(token)
	return base64.RawStdEncoding.DecodeString(token)
}

// ParsePublicKey parses a PEM encoded RSA public key. PKCS#1 "RSA PUBLIC KEY"
// blocks are expected; PKIX "PUBLIC KEY" blocks holding an RSA key are also
// accepted.
func ParsePublicKey(data string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(data)))
	if block == nil {
		return nil, errNoPEMBlock
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errNotRSAKey
	}
	return key, nil
}

// verifySignature checks an RSA-PSS SHA-256 signature over the compacted event.
func verifySignature(header, signingKey string, event Event) error {
	key, err := ParsePublicKey(signingKey)
	if err != nil {
		return &Error{Kind: KindKeyParseFailure, Message: "invalid signing key", Cause: err}
	}

	payload, err := event.Payload()
	if err != nil {
		return &Error{Kind: KindInvalidBody, Message: "invalid request body", Cause: err}
	}

	token := ExtractSignature(header)
	sig, err := decodeSignature(token)
	if err != nil || len(sig) == 0 {
		return newError(KindSignatureMismatch, "signature verification failed")
	}

	digest := sha256.Sum256(payload)
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
	if err := rsa.VerifyPSS(key, crypto.SHA256, digest[:], sig, opts); err != nil {
		return newError(KindSignatureMismatch, "signature verification failed")
	}
	return nil
}
