package handler

import (
	"errors"
	"net/http"

	"caseportal/internal/portal/lifecycle"
	"caseportal/internal/portal/model"
	"caseportal/internal/portal/service"

	"github.com/labstack/echo/v4"
)

// Helper to map errors to HTTP status and body
func httpError(err error) (int, interface{}) {
	var le *lifecycle.Error
	if errors.As(err, &le) {
		return lifecycleStatus(le.Code), model.ErrorResponse{
			Error: model.ErrorDetail{Code: string(le.Code), Message: le.Error(), Assignee: le.Assignee},
		}
	}

	var detail *model.ErrorDetail
	if errors.As(err, &detail) {
		return http.StatusBadRequest, model.ErrorResponse{Error: *detail}
	}

	var code string
	var msg string
	var status int

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
		code = model.CodeUnauthorized
		msg = "Unauthorized"
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
		code = model.CodeForbidden
		msg = "Permission denied"
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		code = model.CodeNotFound
		msg = "Case not found"
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
		code = model.CodeConflict
		msg = "Case was changed by someone else, reload and retry"
	case errors.Is(err, service.ErrBadRequest):
		status = http.StatusBadRequest
		code = model.CodeBadRequest
		msg = "Invalid input"
	default:
		status = http.StatusInternalServerError
		code = model.CodeInternalError
		msg = err.Error()
	}

	return status, model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: msg},
	}
}

func lifecycleStatus(code lifecycle.Code) int {
	switch code {
	case lifecycle.CodeUnauthorized:
		return http.StatusForbidden
	case lifecycle.CodeAlreadyAssigned, lifecycle.CodeInvalidTransition:
		return http.StatusConflict
	case lifecycle.CodeMissingReason, lifecycle.CodeStructural:
		return http.StatusUnprocessableEntity
	case lifecycle.CodeUnknownAction:
		return http.StatusBadRequest
	case lifecycle.CodeTerminalState:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// errorJSON writes err with the request id attached.
func errorJSON(c echo.Context, err error) error {
	status, body := httpError(err)
	if resp, ok := body.(model.ErrorResponse); ok {
		resp.Error.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
		body = resp
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return errorJSON(c, &model.ErrorDetail{Code: model.CodeBadRequest, Message: msg})
}
