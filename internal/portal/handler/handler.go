package handler

import (
	"net/http"

	"caseportal/internal/portal/model"
	"caseportal/internal/portal/service"

	"github.com/labstack/echo/v4"
)

type PortalHandler struct {
	Service service.PortalService
}

func NewPortalHandler(s service.PortalService) *PortalHandler {
	return &PortalHandler{Service: s}
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// PostSession handles POST /session. Called by the authentication flow once
// it has verified the user.
func (h *PortalHandler) PostSession(c echo.Context) error {
	var req model.OpenSessionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, err)
	}

	resp, err := h.Service.OpenSession(c.Request().Context(), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetSession handles GET /session
func (h *PortalHandler) GetSession(c echo.Context) error {
	p := principalFrom(c)
	if p == nil {
		return errorJSON(c, service.ErrUnauthorized)
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteSession handles DELETE /session
func (h *PortalHandler) DeleteSession(c echo.Context) error {
	if err := h.Service.CloseSession(c.Request().Context(), sessionIDFrom(c)); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PostNavigationEvaluate handles POST /navigation/evaluate. It answers for
// anonymous callers too, with a redirect to login.
func (h *PortalHandler) PostNavigationEvaluate(c echo.Context) error {
	var req model.EvaluateNavigationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, err)
	}

	d, err := h.Service.EvaluateNavigation(c.Request().Context(), sessionIDFrom(c), principalFrom(c), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
