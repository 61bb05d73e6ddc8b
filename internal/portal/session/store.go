// Package session holds the principal behind each browser session and the
// signed tokens that name those sessions.
package session

import (
	"context"
	"errors"
	"sync"

	"caseportal/internal/portal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps one principal per session id. It is a plain data holder.
type Store interface {
	SetPrincipal(ctx context.Context, sessionID string, p model.Principal) error
	GetPrincipal(ctx context.Context, sessionID string) (model.Principal, error)
	// UpdatePrincipal replaces an existing entry and returns ErrSessionNotFound
	// when there is none, as one step.
	UpdatePrincipal(ctx context.Context, sessionID string, p model.Principal) error
	ClearPrincipal(ctx context.Context, sessionID string) error
}

type MemoryStore struct {
	mu         sync.RWMutex
	principals map[string]model.Principal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{principals: make(map[string]model.Principal)}
}

func (s *MemoryStore) SetPrincipal(_ context.Context, sessionID string, p model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[sessionID] = p
	return nil
}

func (s *MemoryStore) GetPrincipal(_ context.Context, sessionID string) (model.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.principals[sessionID]; ok {
		return p, nil
	}
	return model.Principal{}, ErrSessionNotFound
}

func (s *MemoryStore) UpdatePrincipal(_ context.Context, sessionID string, p model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.principals[sessionID] = p
	return nil
}

// ClearPrincipal is idempotent.
func (s *MemoryStore) ClearPrincipal(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.principals, sessionID)
	return nil
}
