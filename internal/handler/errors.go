package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/service"
)

// errorBody is the JSON shape of every failed booking call.
type errorBody struct {
    Error     string       `json:"error"`
    ErrorCode service.Code `json:"error_code"`
}

// fail renders err.  Anything that is not a *service.Error is reported as
// an internal error without detail.
func fail(c echo.Context, err error) error {
    var se *service.Error
    if !errors.As(err, &se) {
        c.Logger().Error(err)
        se = service.ErrInternal
    }
    return c.JSON(se.Status, errorBody{Error: se.Message, ErrorCode: se.Code})
}

func invalidInput(c echo.Context) error {
    return fail(c, service.ErrInvalidInput)
}

// ErrorHandler renders echo's own errors (unknown route, bad method,
// panics recovered upstream) in the same shape as booking errors.
func ErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        msg := http.StatusText(he.Code)
        if s, ok := he.Message.(string); ok && s != "" {
            msg = s
        }
        code := service.CodeInternal
        switch he.Code {
        case http.StatusNotFound:
            code = "NOT_FOUND"
        case http.StatusMethodNotAllowed:
            code = "METHOD_NOT_ALLOWED"
        case http.StatusUnauthorized:
            code = "UNAUTHORIZED"
        case http.StatusBadRequest:
            code = service.CodeInvalidInput
        }
        _ = c.JSON(he.Code, errorBody{Error: msg, ErrorCode: code})
        return
    }
    _ = fail(c, err)
}
