package client

import (
	"context"
	"fmt"
	"net/http"

	"taskboard/internal/model"
)

// NewTask is the body of a create-task request.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	UserID      uint   `json:"userId"`
	CategoryID  *uint  `json:"categoryId,omitempty"`
}

type NewCategory struct {
	Name  string  `json:"name"`
	Color string  `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

type NewUser struct {
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"fullName,omitempty"`
}

func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.getJSON(ctx, "/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.getJSON(ctx, "/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.getJSON(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateTask(ctx context.Context, task NewTask) (*model.Task, error) {
	var created model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ToggleTask(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/toggle", id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

func (c *Client) CreateCategory(ctx context.Context, category NewCategory) (*model.Category, error) {
	var created model.Category
	if err := c.doJSON(ctx, http.MethodPost, "/categories", category, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/categories/%d", id), nil, nil)
}

func (c *Client) CreateUser(ctx context.Context, user NewUser) (*model.User, error) {
	var created model.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
}
