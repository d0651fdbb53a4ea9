package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/service"
)

type taskHandler struct {
	svc *service.TaskService
}

func (h *taskHandler) list(c echo.Context) error {
	tasks, err := h.svc.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *taskHandler) listByUser(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	tasks, err := h.svc.FindByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *taskHandler) get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	task, err := h.svc.FindOne(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *taskHandler) create(c echo.Context) error {
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.input()
	if err != nil {
		return err
	}
	task, err := h.svc.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *taskHandler) update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch, err := req.patch()
	if err != nil {
		return err
	}
	task, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *taskHandler) toggle(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	task, err := h.svc.ToggleComplete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *taskHandler) remove(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
