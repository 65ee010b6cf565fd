package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RestErrorResponse is a REST style error payload for JSON responses.
type RestErrorResponse struct {
	Error RestError `json:"error"`
}

// RestError represents a structured error for REST responses.
type RestError struct {
	Code    int      `json:"-"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e RestError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
	}
	return e.Message
}

// BadRequestError represents a bad request error with field level validation.
type BadRequestError struct {
	FieldViolations map[string][]string
}

func (e *BadRequestError) Error() string {
	if len(e.FieldViolations) == 0 {
		return "bad request"
	}
	var fvErrs []error
	for f, v := range e.FieldViolations {
		fvErrs = append(fvErrs, fmt.Errorf("%s: %s", f, strings.Join(v, ", ")))
	}
	return fmt.Sprintf("bad request: %s", errors.Join(fvErrs...).Error())
}

// RestError converts a BadRequestError into a RestError.
func (e *BadRequestError) RestError() RestError {
	var fvErrs []string
	for f, v := range e.FieldViolations {
		fvErrs = append(fvErrs, fmt.Sprintf("%s: %s", f, strings.Join(v, ", ")))
	}
	return RestError{
		Code:    http.StatusBadRequest,
		Message: http.StatusText(http.StatusBadRequest),
		Details: fvErrs,
	}
}

// ErrorStatus maps a domain error, matched with errors.Is, to a status code.
type ErrorStatus struct {
	Target error
	Code   int
}

// NewEchoErrorMiddleware returns an Echo middleware that transforms errors
// into structured responses. Errors matching one of statuses get that code
// and their own message; anything else unknown is a 500.
func NewEchoErrorMiddleware(statuses ...ErrorStatus) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			restErr := func() RestError {
				var echoErr *echo.HTTPError
				if errors.As(err, &echoErr) {
					msg := http.StatusText(echoErr.Code)
					if echoErr.Message != nil {
						msg = fmt.Sprintf("%v", echoErr.Message)
					}
					return RestError{
						Code:    echoErr.Code,
						Message: msg,
					}
				}

				var brErr *BadRequestError
				if errors.As(err, &brErr) {
					return brErr.RestError()
				}

				for _, s := range statuses {
					if errors.Is(err, s.Target) {
						return RestError{
							Code:    s.Code,
							Message: err.Error(),
						}
					}
				}

				return RestError{
					Code:    http.StatusInternalServerError,
					Message: http.StatusText(http.StatusInternalServerError),
				}
			}()

			return c.JSON(restErr.Code, RestErrorResponse{Error: restErr})
		}
	}
}
