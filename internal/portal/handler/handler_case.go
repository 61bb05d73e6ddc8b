package handler

import (
	"net/http"

	"caseportal/internal/portal/model"

	"github.com/labstack/echo/v4"
)

// PostCase handles POST /cases
func (h *PortalHandler) PostCase(c echo.Context) error {
	var req model.CreateCaseReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, err)
	}

	created, err := h.Service.CreateCase(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetCases handles GET /cases
func (h *PortalHandler) GetCases(c echo.Context) error {
	var req model.ListCasesReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid parameters")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, err)
	}

	resp, err := h.Service.ListCases(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetCase handles GET /cases/:id
func (h *PortalHandler) GetCase(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return badRequest(c, "Case id required")
	}

	found, err := h.Service.GetCase(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, found)
}

// PostCaseAction handles POST /cases/:id/actions. A retried action on a
// terminal case answers 200 with noop=true.
func (h *PortalHandler) PostCaseAction(c echo.Context) error {
	var req model.ApplyActionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, err)
	}

	resp, err := h.Service.ApplyAction(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetCaseLogs handles GET /cases/:id/logs
func (h *PortalHandler) GetCaseLogs(c echo.Context) error {
	var req model.GetCaseAuditReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid parameters")
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, err)
	}

	resp, err := h.Service.GetCaseAudit(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
