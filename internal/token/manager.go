// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSafetyMargin is subtracted from a token's expiry so it is renewed
	// before it can lapse mid-request.
	DefaultSafetyMargin = 10 * time.Second

	// DefaultLifetime is used when the upstream omits the token lifetime.
	DefaultLifetime = 3300 * time.Second

	// minUsable is how long a fresh token stays usable past the safety margin
	// when the upstream reports a lifetime no longer than the margin itself.
	minUsable = time.Second

	refreshKey = "token"
)

// Token is a bearer credential and the absolute time it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Usable reports whether the token can still be handed out at now given the
// safety margin.
func (t Token) Usable(now time.Time, margin time.Duration) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-margin))
}

// Grant is the result of one upstream authentication exchange. A zero
// Lifetime means the upstream did not report one.
type Grant struct {
	AccessToken string
	Lifetime    time.Duration
}

// Source performs the upstream authentication exchange.
type Source interface {
	Fetch(ctx context.Context) (Grant, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Grant, error)

func (f SourceFunc) Fetch(ctx context.Context) (Grant, error) {
	return f(ctx)
}

// Manager hands out a valid Token, refreshing it through its Source when the
// stored one is missing or about to expire. It is safe for concurrent use.
type Manager struct {
	source    Source
	margin    time.Duration
	lifetime  time.Duration
	now       func() time.Time
	onRefresh func(error)

	mu      sync.RWMutex
	current Token

	group singleflight.Group
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSafetyMargin overrides DefaultSafetyMargin.
func WithSafetyMargin(d time.Duration) Option {
	return func(m *Manager) { m.margin = d }
}

// WithDefaultLifetime overrides DefaultLifetime.
func WithDefaultLifetime(d time.Duration) Option {
	return func(m *Manager) { m.lifetime = d }
}

// WithRefreshHook registers fn to be called after every upstream refresh
// attempt with its outcome.
func WithRefreshHook(fn func(error)) Option {
	return func(m *Manager) { m.onRefresh = fn }
}

// NewManager returns a Manager that refreshes through source.
func NewManager(source Source, opts ...Option) *Manager {
	m := &Manager{
		source:    source,
		margin:    DefaultSafetyMargin,
		lifetime:  DefaultLifetime,
		now:       time.Now,
		onRefresh: func(error) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the stored token when it is still usable. Otherwise it
// performs one upstream exchange, shared with any concurrent callers, stores
// the result and returns it. On failure the previously stored token is left
// in place and the error is returned.
func (m *Manager) Token(ctx context.Context) (Token, error) {
	if tok, ok := m.usable(); ok {
		return tok, nil
	}

	// The refresh is shared, so it must not die with whichever caller happened
	// to start it. Each caller still honors its own ctx while waiting.
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		if tok, ok := m.usable(); ok {
			return tok, nil
		}
		return m.refresh(shared)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil //nolint:forcetypeassert
	case <-ctx.Done():
		return Token{}, ctx.Err()
	}
}

// Peek returns the stored token without any I/O, usable or not.
func (m *Manager) Peek() Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Invalidate drops the stored token when it is still rejected, so the next
// Token call refreshes. A token installed after rejected was handed out is
// left alone.
func (m *Manager) Invalidate(rejected string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Value == "" || m.current.Value != rejected {
		return
	}
	m.current = Token{}
	log.Debug("token invalidated")
}

func (m *Manager) usable() (Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current.Usable(m.now(), m.margin) {
		return m.current, true
	}
	return Token{}, false
}

func (m *Manager) refresh(ctx context.Context) (Token, error) {
	start := m.now()

	grant, err := m.source.Fetch(ctx)
	if err == nil && grant.AccessToken == "" {
		err = &AuthError{Err: ErrNoAccessToken}
	}
	m.onRefresh(err)
	if err != nil {
		log.WithError(err).Debug("token refresh failed")
		return Token{}, err
	}

	lifetime := grant.Lifetime
	if lifetime <= 0 {
		lifetime = m.lifetime
	}
	if lifetime <= m.margin {
		log.WithField("lifetime", lifetime).Warn("token lifetime within safety margin, extending")
		lifetime = m.margin + minUsable
	}
	tok := Token{Value: grant.AccessToken, ExpiresAt: start.Add(lifetime)}

	m.mu.Lock()
	// Never replace a newer token with an older result.
	if !tok.ExpiresAt.Before(m.current.ExpiresAt) {
		m.current = tok
	} else {
		tok = m.current
	}
	m.mu.Unlock()

	log.WithField("expires", humanize.Time(tok.ExpiresAt)).Debug("token refreshed")
	return tok, nil
}
