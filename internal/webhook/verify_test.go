package webhook_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/webhook"
)

const (
	testSecret    = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"
	testID        = "msg_p5jXN8AQM9LWM0D4loKWxJek"
	testTimestamp = "1614265330"
	testBody      = `{"test": 2432232314}`
	testSignature = "v1,g0hM9SsE+OTPJTGt/tmIKtSyZlE3uFJELVlNIOLJ1OE="
)

func TestSign_KnownVector(t *testing.T) {
	sig, err := webhook.Sign(testSecret, testID, testTimestamp, []byte(testBody))
	require.NoError(t, err)
	assert.Equal(t, testSignature[len("v1,"):], sig)
}

func TestVerify_KnownVector(t *testing.T) {
	v := webhook.NewVerifier(webhook.StaticSecret(testSecret), 0)
	err := v.Verify(context.Background(), testID, testTimestamp, testSignature, []byte(testBody))
	assert.NoError(t, err)
}

func TestVerify_AnyOfMultipleSignatures(t *testing.T) {
	v := webhook.NewVerifier(webhook.StaticSecret(testSecret), 0)
	header := "v1,bm90LXRoZS1yaWdodC1vbmU= " + testSignature + " v2,aGVsbG8="
	assert.NoError(t, v.Verify(context.Background(), testID, testTimestamp, header, []byte(testBody)))
}

func TestVerify_SingleByteTamperRejects(t *testing.T) {
	v := webhook.NewVerifier(webhook.StaticSecret(testSecret), 0)
	ctx := context.Background()

	tamper := func(s string) string {
		b := []byte(s)
		b[len(b)-1] ^= 0x01
		return string(b)
	}

	cases := map[string]func() error{
		"id": func() error {
			return v.Verify(ctx, tamper(testID), testTimestamp, testSignature, []byte(testBody))
		},
		"timestamp": func() error {
			return v.Verify(ctx, testID, tamper(testTimestamp), testSignature, []byte(testBody))
		},
		"body": func() error {
			return v.Verify(ctx, testID, testTimestamp, testSignature, []byte(tamper(testBody)))
		},
		"signature": func() error {
			return v.Verify(ctx, testID, testTimestamp, "v1,"+tamper(testSignature[3:]), []byte(testBody))
		},
	}
	for name, verify := range cases {
		err := verify()
		require.Error(t, err, name)
		assert.True(t, apperr.IsKind(err, apperr.InvalidSignature), name)
	}
}

func TestVerify_MissingHeaders(t *testing.T) {
	v := webhook.NewVerifier(webhook.StaticSecret(testSecret), 0)
	err := v.Verify(context.Background(), "", testTimestamp, testSignature, []byte(testBody))
	assert.True(t, apperr.IsKind(err, apperr.InvalidSignature))
}

func TestVerify_SignatureWithoutVersionIgnored(t *testing.T) {
	v := webhook.NewVerifier(webhook.StaticSecret(testSecret), 0)
	err := v.Verify(context.Background(), testID, testTimestamp, testSignature[3:], []byte(testBody))
	assert.True(t, apperr.IsKind(err, apperr.InvalidSignature))
}

func TestVerify_Tolerance(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := webhook.NewVerifier(webhook.StaticSecret(testSecret), 5*time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()
	body := []byte(`{"status":"succeeded"}`)

	fresh := strconv.FormatInt(now.Add(-time.Minute).Unix(), 10)
	sig, err := webhook.Sign(testSecret, "msg_1", fresh, body)
	require.NoError(t, err)
	assert.NoError(t, v.Verify(ctx, "msg_1", fresh, "v1,"+sig, body))

	stale := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
	sig, err = webhook.Sign(testSecret, "msg_1", stale, body)
	require.NoError(t, err)
	err = v.Verify(ctx, "msg_1", stale, "v1,"+sig, body)
	assert.True(t, apperr.IsKind(err, apperr.InvalidSignature))
}

func TestCachedSecret_FetchesOnceAndRetriesFailures(t *testing.T) {
	calls := 0
	fail := true
	cached := webhook.NewCachedSecret(func(context.Context) (string, error) {
		calls++
		if fail {
			return "", errors.New("provider down")
		}
		return testSecret, nil
	})

	_, err := cached.WebhookSecret(context.Background())
	assert.Error(t, err)

	fail = false
	for i := 0; i < 3; i++ {
		s, err := cached.WebhookSecret(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testSecret, s)
	}
	assert.Equal(t, 2, calls)
}
