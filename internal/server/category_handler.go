package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/service"
)

type categoryHandler struct {
	svc *service.CategoryService
}

func (h *categoryHandler) list(c echo.Context) error {
	categories, err := h.svc.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *categoryHandler) get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.svc.FindOne(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

func (h *categoryHandler) create(c echo.Context) error {
	var req createCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	category, err := h.svc.Create(c.Request().Context(), service.CategoryInput{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *categoryHandler) remove(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
