package service

import (
	"context"
	"time"

	"caseportal/internal/portal/model"
	"caseportal/internal/portal/util"
)

func (s *Service) OpenSession(ctx context.Context, req model.OpenSessionReq) (*model.OpenSessionResp, error) {
	opened, err := s.Sessions.Open(ctx, req.UserID, req.Role)
	if err != nil {
		return nil, err
	}
	util.GetLogger().Info("Audit: session opened", "principal_id", opened.Principal.ID, "role", opened.Principal.Role)
	return &model.OpenSessionResp{
		Token:     opened.Token,
		ExpiresAt: opened.ExpiresAt.UTC().Format(time.RFC3339),
		Principal: opened.Principal,
	}, nil
}

// ResolveSession maps a bearer token to its session. Unknown tokens yield a nil principal.
func (s *Service) ResolveSession(ctx context.Context, token string) (string, *model.Principal, error) {
	return s.Sessions.Resolve(ctx, token)
}

func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrUnauthorized
	}
	return s.Sessions.Close(ctx, sessionID)
}
