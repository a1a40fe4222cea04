package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"imaginx-backend/internal/apperr"
)

const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

// SecretSource yields the signing secret, e.g. "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw".
type SecretSource interface {
	WebhookSecret(ctx context.Context) (string, error)
}

type StaticSecret string

func (s StaticSecret) WebhookSecret(context.Context) (string, error) {
	return string(s), nil
}

// CachedSecret fetches the secret once and keeps it. A failed fetch is not
// cached so the next delivery retries.
type CachedSecret struct {
	fetch func(ctx context.Context) (string, error)

	mu     sync.Mutex
	secret string
}

func NewCachedSecret(fetch func(ctx context.Context) (string, error)) *CachedSecret {
	return &CachedSecret{fetch: fetch}
}

func (c *CachedSecret) WebhookSecret(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.secret != "" {
		return c.secret, nil
	}
	secret, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	c.secret = secret
	return secret, nil
}

// DecodeSecret returns the HMAC key: the base64 payload after the first "_".
func DecodeSecret(secret string) ([]byte, error) {
	payload := secret
	if i := strings.Index(secret, "_"); i >= 0 {
		payload = secret[i+1:]
	}
	key, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret: %w", err)
	}
	return key, nil
}

// Sign computes base64(HMAC-SHA256(key, "{id}.{timestamp}.{body}")).
func Sign(secret, id, timestamp string, body []byte) (string, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

type Verifier struct {
	secrets   SecretSource
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a verifier. tolerance bounds the distance between the
// webhook-timestamp header and now; zero disables the check.
func NewVerifier(secrets SecretSource, tolerance time.Duration) *Verifier {
	return &Verifier{secrets: secrets, tolerance: tolerance, now: time.Now}
}

func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

func (v *Verifier) VerifyRequest(ctx context.Context, header http.Header, body []byte) error {
	return v.Verify(ctx, header.Get(HeaderID), header.Get(HeaderTimestamp), header.Get(HeaderSignature), body)
}

func (v *Verifier) Verify(ctx context.Context, id, timestamp, signatures string, body []byte) error {
	if id == "" || timestamp == "" || signatures == "" {
		return apperr.E(apperr.InvalidSignature, "missing webhook headers")
	}

	if v.tolerance > 0 {
		sec, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return apperr.E(apperr.InvalidSignature, "invalid webhook timestamp")
		}
		skew := v.now().Sub(time.Unix(sec, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > v.tolerance {
			return apperr.E(apperr.InvalidSignature, "webhook timestamp outside tolerance")
		}
	}

	secret, err := v.secrets.WebhookSecret(ctx)
	if err != nil {
		return apperr.Wrap(apperr.Provider, "failed to get webhook secret", err)
	}
	expected, err := Sign(secret, id, timestamp, body)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "invalid webhook secret", err)
	}

	for _, candidate := range strings.Fields(signatures) {
		_, sig, ok := strings.Cut(candidate, ",")
		if !ok {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return apperr.E(apperr.InvalidSignature, "invalid webhook signature")
}
