package router

import (
	"net/http"

	"caseportal/internal/portal/handler"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the API. authFlowSecret gates session opening, which
// only the external authentication flow may call.
func RegisterRoutes(e *echo.Echo, h *handler.PortalHandler, gatherer prometheus.Gatherer, authFlowSecret string) {
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID, handler.HeaderAuthFlowSecret},
	}))

	// Health Check
	e.GET("/health", handler.HealthCheck)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/api/v1")
	v1.Use(handler.RequestIDMiddleware)
	v1.Use(handler.SessionMiddleware(h.Service))

	// Session hooks for the authentication flow
	v1.POST("/session", h.PostSession, handler.AuthFlowMiddleware(authFlowSecret))
	v1.GET("/session", h.GetSession)
	v1.DELETE("/session", h.DeleteSession)

	// Access guard
	v1.POST("/navigation/evaluate", h.PostNavigationEvaluate)

	// Cases
	v1.POST("/cases", h.PostCase)
	v1.GET("/cases", h.GetCases)
	v1.GET("/cases/:id", h.GetCase)
	v1.POST("/cases/:id/actions", h.PostCaseAction)
	v1.GET("/cases/:id/logs", h.GetCaseLogs)
}
