package keypool

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrExhausted signals that every credential in the pool has hit its quota.
// Callers must fail fast on this instead of attempting further requests.
var ErrExhausted = errors.New("keypool: no credentials available")

// Key is one credential plus its stable position in the pool. Position is
// carried so a quota failure can be attributed to the exact key that was
// used, even if the cursor has moved on in the meantime.
type Key struct {
	Index int
	Value string
}

// Pool rotates through an ordered set of credentials for one rate-limited
// provider. A key that reports a quota failure is marked exhausted and the
// cursor advances to the next live key. Exhausted keys stay out of rotation
// until Reset, or until the recovery interval elapses when one is configured.
type Pool struct {
	mu        sync.Mutex
	keys      []string
	current   int
	exhausted map[int]time.Time
	recovery  time.Duration
	nowFn     func() time.Time
}

// Option customises a Pool.
type Option func(*Pool)

// WithRecoveryInterval makes exhausted keys eligible again after d. The
// default (0) keeps keys exhausted until an explicit Reset or a process
// restart, matching daily-quota providers.
func WithRecoveryInterval(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.recovery = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.nowFn = now
		}
	}
}

// New builds a pool from the given credentials. At least one is required.
func New(keys []string, opts ...Option) (*Pool, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("keypool: at least one key required")
	}
	p := &Pool{
		keys:      append([]string(nil), keys...),
		exhausted: make(map[int]time.Time),
		nowFn:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Current returns the credential the cursor points at, or ErrExhausted when
// every key is out of quota.
func (p *Pool) Current() (Key, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.recoverExpired()
	if len(p.exhausted) == len(p.keys) {
		return Key{}, ErrExhausted
	}
	// The cursor may sit on a key exhausted by another caller; walk forward
	// to the next live one without moving past keys that are still valid.
	for i := 0; i < len(p.keys); i++ {
		idx := (p.current + i) % len(p.keys)
		if _, dead := p.exhausted[idx]; !dead {
			p.current = idx
			return Key{Index: idx, Value: p.keys[idx]}, nil
		}
	}
	return Key{}, ErrExhausted
}

// MarkExhausted records a quota failure for the given key and advances the
// cursor. The advance is compare-and-advance: it only fires if the cursor
// still points at the failed key, so two concurrent failures against the
// same key cannot skip a still-valid one.
func (p *Pool) MarkExhausted(k Key) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if k.Index < 0 || k.Index >= len(p.keys) {
		return
	}
	if _, already := p.exhausted[k.Index]; !already {
		p.exhausted[k.Index] = p.nowFn()
	}
	if p.current != k.Index {
		return
	}
	for i := 1; i <= len(p.keys); i++ {
		idx := (k.Index + i) % len(p.keys)
		if _, dead := p.exhausted[idx]; !dead {
			p.current = idx
			return
		}
	}
}

// Reset clears the exhausted set, returning every key to rotation.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exhausted = make(map[int]time.Time)
	p.current = 0
}

// Len reports the pool size.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// ExhaustedCount reports how many keys are currently out of rotation.
func (p *Pool) ExhaustedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recoverExpired()
	return len(p.exhausted)
}

// recoverExpired drops exhaustion marks older than the recovery interval.
// Caller must hold p.mu.
func (p *Pool) recoverExpired() {
	if p.recovery <= 0 {
		return
	}
	now := p.nowFn()
	for idx, at := range p.exhausted {
		if now.Sub(at) >= p.recovery {
			delete(p.exhausted, idx)
		}
	}
}
