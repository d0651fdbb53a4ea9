package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"taskboard/internal/service"
)

// errorHandler turns service errors into HTTP errors before echo renders them.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var notFound *service.NotFoundError
		var invalid *service.ValidationError
		switch {
		case errors.As(err, &notFound):
			err = echo.NewHTTPError(http.StatusNotFound, notFound.Error())
		case errors.As(err, &invalid):
			err = echo.NewHTTPError(http.StatusBadRequest, invalid.Error())
		default:
			var he *echo.HTTPError
			if !errors.As(err, &he) {
				log.Printf("[error] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
			}
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

func parseID(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" "+strconv.Quote(raw))
	}
	return uint(id), nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
