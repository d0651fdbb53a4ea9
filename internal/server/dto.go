package server

import (
	"encoding/json"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

// nullable tells an absent JSON key apart from an explicit null.
type nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Null = true
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	UserID      uint    `json:"userId" validate:"required"`
	CategoryID  *uint   `json:"categoryId"`
}

func (r createTaskRequest) input() (service.TaskInput, error) {
	due, err := parseOptionalDate(r.DueDate)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		DueDate:     due,
		UserID:      r.UserID,
		CategoryID:  zeroAsNil(r.CategoryID),
	}, nil
}

type updateTaskRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	Completed   *bool            `json:"completed"`
	Priority    *string          `json:"priority"`
	DueDate     nullable[string] `json:"dueDate"`
	CategoryID  nullable[uint]   `json:"categoryId"`
}

func (r updateTaskRequest) patch() (service.TaskPatch, error) {
	patch := service.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
	}
	if r.DueDate.Set {
		if r.DueDate.Null || r.DueDate.Value == "" {
			patch.ClearDueDate = true
		} else {
			due, err := model.ParseDate(r.DueDate.Value)
			if err != nil {
				return service.TaskPatch{}, &service.ValidationError{Field: "dueDate", Message: "must be a date like 2025-11-30"}
			}
			patch.DueDate = &due
		}
	}
	if r.CategoryID.Set {
		if r.CategoryID.Null || r.CategoryID.Value == 0 {
			patch.ClearCategory = true
		} else {
			id := r.CategoryID.Value
			patch.CategoryID = &id
		}
	}
	return patch, nil
}

type createCategoryRequest struct {
	Name  string  `json:"name" validate:"required,max=50"`
	Color string  `json:"color" validate:"omitempty,len=7,hexcolor"`
	Icon  *string `json:"icon" validate:"omitempty,max=50"`
}

type createUserRequest struct {
	Username string  `json:"username" validate:"required,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"fullName" validate:"omitempty,max=255"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"fullName" validate:"omitempty,max=255"`
}

func parseOptionalDate(raw *string) (*model.Date, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	due, err := model.ParseDate(*raw)
	if err != nil {
		return nil, &service.ValidationError{Field: "dueDate", Message: "must be a date like 2025-11-30"}
	}
	return &due, nil
}

// zeroAsNil treats the id 0 sent by empty selects as no reference.
func zeroAsNil(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
