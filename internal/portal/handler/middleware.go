package handler

import (
	"crypto/subtle"

	"caseportal/internal/portal/model"
	"caseportal/internal/portal/service"
	"caseportal/internal/portal/session"
	"caseportal/internal/portal/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	ctxPrincipal = "principal"
	ctxSessionID = "session_id"
)

// HeaderAuthFlowSecret carries the secret shared with the authentication flow.
const HeaderAuthFlowSecret = "X-Auth-Flow-Secret"

func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, reqID)
		return next(c)
	}
}

// SessionMiddleware resolves the bearer token into the session principal. It
// never rejects: handlers decide whether a missing principal matters.
func SessionMiddleware(svc service.PortalService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := session.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}
			sid, p, err := svc.ResolveSession(c.Request().Context(), token)
			if err != nil {
				util.GetLogger().Error("failed to resolve session", "error", err)
				return errorJSON(c, err)
			}
			if p != nil {
				c.Set(ctxPrincipal, p)
				c.Set(ctxSessionID, sid)
			}
			return next(c)
		}
	}
}

// principalFrom returns the session principal, nil when there is none.
func principalFrom(c echo.Context) *model.Principal {
	p, _ := c.Get(ctxPrincipal).(*model.Principal)
	return p
}

func sessionIDFrom(c echo.Context) string {
	sid, _ := c.Get(ctxSessionID).(string)
	return sid
}

// AuthFlowMiddleware admits only callers presenting the authentication flow's
// shared secret. An empty secret admits nobody.
func AuthFlowMiddleware(secret string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + HeaderAuthFlowSecret,
		Validator: func(key string, c echo.Context) (bool, error) {
			return secret != "" && subtle.ConstantTimeCompare([]byte(key), []byte(secret)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			util.GetLogger().Warn("rejected session open without auth flow secret", "remote_ip", c.RealIP(), "error", err)
			return errorJSON(c, service.ErrUnauthorized)
		},
	})
}
