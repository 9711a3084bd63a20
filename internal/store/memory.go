package store

import (
	"context"
	"sync"

	"lingua-client/internal/domain"
)

// Memory is an in-process Store, useful for tests and embedding.
type Memory struct {
	mu   sync.RWMutex
	pair domain.TokenPair
	set  bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (domain.TokenPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return domain.TokenPair{}, domain.ErrNoCredentials
	}
	return m.pair, nil
}

func (m *Memory) Save(_ context.Context, pair domain.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	m.set = true
	return nil
}

func (m *Memory) SetAccessToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return domain.ErrNoCredentials
	}
	m.pair.AccessToken = token
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = domain.TokenPair{}
	m.set = false
	return nil
}
