package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"taskboard/internal/service"
)

type userHandler struct {
	svc       *service.UserService
	summaries *service.SummaryService
}

func (h *userHandler) list(c echo.Context) error {
	users, err := h.svc.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *userHandler) get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.FindOne(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *userHandler) summary(c echo.Context) error {
	if h.summaries == nil {
		return echo.ErrNotFound
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	summary, err := h.summaries.UserSummary(c.Request().Context(), id, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *userHandler) create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Create(c.Request().Context(), service.UserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *userHandler) update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Update(c.Request().Context(), id, service.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *userHandler) remove(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
