package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadGrant is the payload carried by a signed download token.
type DownloadGrant struct {
	Key       string
	Filename  string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token granting download of key under the given filename.
func (s *SignedURLSigner) Generate(key, filename string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, fmt.Errorf("storage key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(key))
	encodedName := base64.RawURLEncoding.EncodeToString([]byte(filename))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(encodedKey, encodedName, ts)
	return strings.Join([]string{encodedKey, encodedName, ts, signature}, "."), expiresAt, nil
}

// Parse validates a token and returns the embedded grant.
func (s *SignedURLSigner) Parse(token string) (DownloadGrant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadGrant{}, ErrInvalidToken
	}
	encodedKey, encodedName, ts, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(encodedKey, encodedName, ts)), []byte(signature)) {
		return DownloadGrant{}, ErrInvalidToken
	}
	rawKey, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return DownloadGrant{}, ErrInvalidToken
	}
	rawName, err := base64.RawURLEncoding.DecodeString(encodedName)
	if err != nil {
		return DownloadGrant{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return DownloadGrant{}, ErrInvalidToken
	}
	grant := DownloadGrant{Key: string(rawKey), Filename: string(rawName), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(grant.ExpiresAt) {
		return DownloadGrant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(parts ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
