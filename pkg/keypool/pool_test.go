package keypool

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRequiresKeys(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestPoolRotatesOnQuotaFailure(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	k, err := p.Current()
	require.NoError(t, err)
	require.Equal(t, "k1", k.Value)

	p.MarkExhausted(k)
	k, err = p.Current()
	require.NoError(t, err)
	require.Equal(t, "k2", k.Value)

	p.MarkExhausted(k)
	k, err = p.Current()
	require.NoError(t, err)
	require.Equal(t, "k3", k.Value)
}

func TestPoolExhaustedFailsFast(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		k, err := p.Current()
		require.NoError(t, err)
		p.MarkExhausted(k)
	}

	_, err = p.Current()
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 3, p.ExhaustedCount())

	p.Reset()
	k, err := p.Current()
	require.NoError(t, err)
	require.Equal(t, "k1", k.Value)
}

func TestPoolDoubleFailureAdvancesOnce(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	k, err := p.Current()
	require.NoError(t, err)

	// Two callers report the same stale key; the cursor must land on k2,
	// not skip ahead to k3.
	p.MarkExhausted(k)
	p.MarkExhausted(k)

	next, err := p.Current()
	require.NoError(t, err)
	require.Equal(t, "k2", next.Value)
	require.Equal(t, 1, p.ExhaustedCount())
}

func TestPoolConcurrentFailures(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3", "k4"})
	require.NoError(t, err)

	k, err := p.Current()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.MarkExhausted(k)
		}()
	}
	wg.Wait()

	next, err := p.Current()
	require.NoError(t, err)
	require.Equal(t, "k2", next.Value)
	require.Equal(t, 1, p.ExhaustedCount())
}

func TestPoolRecoveryInterval(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	p, err := New([]string{"k1", "k2"}, WithRecoveryInterval(time.Hour), WithClock(clock))
	require.NoError(t, err)

	k, err := p.Current()
	require.NoError(t, err)
	p.MarkExhausted(k)
	k2, err := p.Current()
	require.NoError(t, err)
	p.MarkExhausted(k2)

	_, err = p.Current()
	require.ErrorIs(t, err, ErrExhausted)

	now = now.Add(time.Hour + time.Minute)
	recovered, err := p.Current()
	require.NoError(t, err)
	require.NotEmpty(t, recovered.Value)
	require.Equal(t, 0, p.ExhaustedCount())
}

func makeJWT(t *testing.T, exp int64) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]any{"exp": exp, "sub": "api-key"})
	require.NoError(t, err)
	payload := base64.RawURLEncoding.EncodeToString(claims)
	return fmt.Sprintf("%s.%s.sig", header, payload)
}

func TestJWTExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	got, ok := JWTExpiry(makeJWT(t, exp))
	require.True(t, ok)
	require.Equal(t, exp, got.Unix())

	_, ok = JWTExpiry("plain-api-key")
	require.False(t, ok)

	_, ok = JWTExpiry("a.%%%%.c")
	require.False(t, ok)
}

func TestJWTExpired(t *testing.T) {
	now := time.Now()
	require.True(t, JWTExpired(makeJWT(t, now.Add(-time.Minute).Unix()), now))
	require.False(t, JWTExpired(makeJWT(t, now.Add(time.Minute).Unix()), now))
	require.False(t, JWTExpired("plain-api-key", now))
}
