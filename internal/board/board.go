// Package board keeps the client-side view of tasks, categories and users.
//
// Every write is followed by a full reload of all three collections. A failed
// load or write leaves the previously loaded collections in place.
package board

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"taskboard/internal/client"
	"taskboard/internal/model"
)

var errTitleRequired = errors.New("title is required")

// Status is the phase of the view.
type Status int

const (
	Loading Status = iota
	Loaded
	Errored
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// API is the subset of *client.Client the board needs.
type API interface {
	Tasks(ctx context.Context) ([]model.Task, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Users(ctx context.Context) ([]model.User, error)
	CreateTask(ctx context.Context, task client.NewTask) (*model.Task, error)
	ToggleTask(ctx context.Context, id uint) (*model.Task, error)
	DeleteTask(ctx context.Context, id uint) error
	Diagnostics() client.Diagnostics
	ResetDiagnostics()
}

// Snapshot is an immutable copy of the view state.
type Snapshot struct {
	Status      Status
	Tasks       []model.Task
	Categories  []model.Category
	Users       []model.User
	Err         string
	Diagnostics client.Diagnostics
}

// Stats are the headline counts above the task list.
type Stats struct {
	Total     int
	Completed int
	Pending   int
	// HighOpen counts high-priority tasks that are not completed.
	HighOpen int
}

func (s Snapshot) Stats() Stats {
	st := Stats{Total: len(s.Tasks)}
	for _, task := range s.Tasks {
		if task.Completed {
			st.Completed++
			continue
		}
		st.Pending++
		if task.Priority == model.PriorityHigh {
			st.HighOpen++
		}
	}
	return st
}

// Draft is the new-task form.
type Draft struct {
	Title       string
	Description string
	Priority    model.Priority
	DueDate     string
	UserID      uint
	CategoryID  uint
}

// Board is safe for concurrent use.
type Board struct {
	api API

	mu    sync.Mutex
	state Snapshot
}

func New(api API) *Board {
	return &Board{api: api, state: Snapshot{Status: Loading}}
}

// Snapshot returns a copy of the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state
	s.Tasks = append([]model.Task(nil), s.Tasks...)
	s.Categories = append([]model.Category(nil), s.Categories...)
	s.Users = append([]model.User(nil), s.Users...)
	return s
}

// Reload fetches all three collections concurrently.
func (b *Board) Reload(ctx context.Context) error {
	b.mu.Lock()
	b.state.Status = Loading
	b.state.Err = ""
	b.mu.Unlock()
	b.api.ResetDiagnostics()

	var (
		tasks      []model.Task
		categories []model.Category
		users      []model.User
		g          errgroup.Group
	)
	g.Go(func() (err error) {
		tasks, err = b.api.Tasks(ctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = b.api.Categories(ctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = b.api.Users(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		b.fail(err)
		return err
	}

	b.mu.Lock()
	b.state.Tasks = nonNil(tasks)
	b.state.Categories = nonNil(categories)
	b.state.Users = nonNil(users)
	b.state.Status = Loaded
	b.state.Diagnostics = b.api.Diagnostics()
	b.mu.Unlock()
	return nil
}

// CreateTask submits the draft and reloads.
func (b *Board) CreateTask(ctx context.Context, draft Draft) error {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		err := errTitleRequired
		b.fail(err)
		return err
	}
	req := client.NewTask{
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		Priority:    string(draft.Priority),
		DueDate:     strings.TrimSpace(draft.DueDate),
		UserID:      draft.UserID,
	}
	if req.Priority == "" {
		req.Priority = string(model.PriorityMedium)
	}
	if draft.CategoryID != 0 {
		id := draft.CategoryID
		req.CategoryID = &id
	}
	if _, err := b.api.CreateTask(ctx, req); err != nil {
		b.fail(err)
		return err
	}
	return b.Reload(ctx)
}

func (b *Board) ToggleTask(ctx context.Context, id uint) error {
	if _, err := b.api.ToggleTask(ctx, id); err != nil {
		b.fail(err)
		return err
	}
	return b.Reload(ctx)
}

func (b *Board) DeleteTask(ctx context.Context, id uint) error {
	if err := b.api.DeleteTask(ctx, id); err != nil {
		b.fail(err)
		return err
	}
	return b.Reload(ctx)
}

// NewDraft returns an empty form pointing at the first known user and category.
func (b *Board) NewDraft() Draft {
	return b.FillDraft(Draft{Priority: model.PriorityMedium})
}

// FillDraft replaces user and category ids that no longer exist with the first available ones.
func (b *Board) FillDraft(d Draft) Draft {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.state.Users) > 0 && !hasUser(b.state.Users, d.UserID) {
		d.UserID = b.state.Users[0].ID
	}
	if len(b.state.Categories) > 0 && !hasCategory(b.state.Categories, d.CategoryID) {
		d.CategoryID = b.state.Categories[0].ID
	}
	if d.Priority == "" {
		d.Priority = model.PriorityMedium
	}
	return d
}

func (b *Board) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Status = Errored
	b.state.Err = err.Error()
	b.state.Diagnostics = b.api.Diagnostics()
}

func hasUser(users []model.User, id uint) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func hasCategory(categories []model.Category, id uint) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
