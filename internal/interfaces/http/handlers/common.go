// Package handlers holds the gin handlers of the substructure REST API.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// bindJSON decodes the request body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"), nil)
		return false
	}
	return true
}

// writeError maps an application error to its HTTP status. Server-side
// failures are logged and their message masked.
func writeError(c *gin.Context, err error, log logging.Logger) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{Code: string(code), Message: errors.DefaultMessageForCode(code)}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && status < http.StatusInternalServerError {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
		if resp.Detail == "" && appErr.Cause != nil {
			resp.Detail = appErr.Cause.Error()
		}
	}
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("Request failed",
			logging.String("path", c.FullPath()),
			logging.String("code", string(code)),
			logging.Err(err))
	}
	c.AbortWithStatusJSON(status, resp)
}

//Personal.AI order the ending
