package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseportal/internal/portal/model"

	"github.com/google/uuid"
)

// Manager ties tokens to stored principals. The authentication flow opens and
// closes sessions; every other caller only resolves them.
type Manager struct {
	store  Store
	tokens *Tokens
}

func NewManager(store Store, tokens *Tokens) *Manager {
	return &Manager{store: store, tokens: tokens}
}

// Opened is a freshly issued session.
type Opened struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
	Principal model.Principal
}

// Open stores p under a new session id and issues its token.
func (m *Manager) Open(ctx context.Context, userID string, role model.Role) (*Opened, error) {
	sid := uuid.NewString()
	token, expiresAt, err := m.tokens.Issue(sid, userID)
	if err != nil {
		return nil, err
	}
	p := model.Principal{ID: userID, Role: role, SessionValid: true}
	if err := m.store.SetPrincipal(ctx, sid, p); err != nil {
		return nil, fmt.Errorf("failed to store principal: %w", err)
	}
	return &Opened{SessionID: sid, Token: token, ExpiresAt: expiresAt, Principal: p}, nil
}

// Resolve returns the session id and principal named by token. It returns a
// nil principal when the token is unknown or forged. An expired token resolves
// to its principal with SessionValid=false once, and its entry is dropped.
func (m *Manager) Resolve(ctx context.Context, token string) (string, *model.Principal, error) {
	claims, err := m.tokens.Parse(token)
	expired := errors.Is(err, ErrTokenExpired)
	if err != nil && !expired {
		return "", nil, nil
	}

	p, err := m.store.GetPrincipal(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to load principal: %w", err)
	}
	if p.ID != claims.Subject {
		return "", nil, nil
	}
	if expired {
		if err := m.store.ClearPrincipal(ctx, claims.SessionID); err != nil {
			return "", nil, fmt.Errorf("failed to drop expired session: %w", err)
		}
		p.SessionValid = false
	}
	return claims.SessionID, &p, nil
}

// Update replaces the stored principal, used for the one-time role correction.
// A closed session stays closed.
func (m *Manager) Update(ctx context.Context, sessionID string, p model.Principal) error {
	return m.store.UpdatePrincipal(ctx, sessionID, p)
}

func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.store.ClearPrincipal(ctx, sessionID)
}
