package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "delivery-system/pkg/errors"
)

type HttpResponse struct {
	Status     bool        `json:"status"`
	Body       interface{} `json:"body,omitempty"`
	Message    string      `json:"message"`
	Pagination interface{} `json:"pagination,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, pagination ...interface{}) error {
	response := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	if len(pagination) > 0 {
		response.Pagination = pagination[0]
	}
	return ctx.JSON(code, response)
}

// ErrorResponse maps an application error to the response envelope. Internal
// errors are logged with their cause but only a generic message leaves the
// process.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusCode(err)
	message := err.Error()

	if code == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("internal error",
				zap.String("method", ctx.Request().Method),
				zap.String("uri", ctx.Request().RequestURI),
				zap.Error(err),
			)
		}
		message = "internal server error"
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    struct{}{},
		Message: message,
	})
}
