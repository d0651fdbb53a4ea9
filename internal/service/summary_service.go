package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const dueSoonWindow = 48 * time.Hour

// Summary describes the open work of one user at a point in time.
type Summary struct {
	User    model.User   `json:"user"`
	Pending []model.Task `json:"pending"`
	Overdue int          `json:"overdue"`
	DueSoon int          `json:"dueSoon"`
	Text    string       `json:"text"`
}

// SummaryService builds human-readable summaries for digests and the summary endpoint.
type SummaryService struct {
	taskRepo  *repository.TaskRepository
	userRepo  *repository.UserRepository
	statsRepo *repository.StatsRepository
}

func NewSummaryService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, statsRepo *repository.StatsRepository) *SummaryService {
	return &SummaryService{taskRepo: taskRepo, userRepo: userRepo, statsRepo: statsRepo}
}

// UserSummary lists open tasks of a user, earliest due date first and undated tasks last.
func (s *SummaryService) UserSummary(ctx context.Context, userID uint, now time.Time) (*Summary, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, notFound("User", userID)
		}
		return nil, err
	}
	user.Tasks = nil

	pending, err := s.taskRepo.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortPending(pending)

	summary := &Summary{User: *user, Pending: pending}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Tasks of %s on %s\n", user.Username, now.Format(model.DateLayout)))
	if len(pending) == 0 {
		builder.WriteString("- no open tasks\n")
	}
	for _, task := range pending {
		switch taskState(task, now) {
		case stateOverdue:
			summary.Overdue++
		case stateDueSoon:
			summary.DueSoon++
		}
		builder.WriteString(formatTask(task, now))
	}
	summary.Text = strings.TrimSpace(builder.String())
	return summary, nil
}

// Digest renders one line of task counts per user.
func (s *SummaryService) Digest(ctx context.Context, now time.Time) (string, error) {
	today := model.NewDate(now.Year(), now.Month(), now.Day())
	counts, err := s.statsRepo.CountsByUser(ctx, today)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Task digest %s\n", today))
	if len(counts) == 0 {
		builder.WriteString("- no users yet\n")
	}
	for _, c := range counts {
		builder.WriteString(fmt.Sprintf("- %s: %d open, %d done, %d overdue\n", c.Username, c.Open(), c.Completed, c.Overdue))
	}
	return strings.TrimSpace(builder.String()), nil
}

type dueState int

const (
	stateOnTrack dueState = iota
	stateDueSoon
	stateOverdue
)

func taskState(task model.Task, now time.Time) dueState {
	if task.DueDate == nil {
		return stateOnTrack
	}
	end := task.DueDate.EndOfDay(now.Location())
	switch {
	case now.After(end):
		return stateOverdue
	case end.Sub(now) <= dueSoonWindow:
		return stateDueSoon
	default:
		return stateOnTrack
	}
}

func sortPending(pending []model.Task) {
	sort.SliceStable(pending, func(i, j int) bool {
		switch {
		case pending[i].DueDate == nil && pending[j].DueDate == nil:
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		case pending[i].DueDate == nil:
			return false
		case pending[j].DueDate == nil:
			return true
		default:
			return pending[i].DueDate.Before(pending[j].DueDate.Time)
		}
	})
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	marker := "-"
	switch taskState(task, now) {
	case stateOverdue:
		marker = "!"
	case stateDueSoon:
		marker = "~"
	}
	sb.WriteString(fmt.Sprintf("%s [%s] %s", marker, task.Priority, strings.TrimSpace(task.Title)))

	if task.Category != nil {
		if name := strings.TrimSpace(task.Category.Name); name != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", name))
		}
	}
	if task.DueDate != nil {
		if taskState(task, now) == stateOverdue {
			sb.WriteString(fmt.Sprintf(", due %s, overdue", task.DueDate))
		} else {
			sb.WriteString(fmt.Sprintf(", due %s, %s left", task.DueDate, pluralDays(daysLeft(*task.DueDate, now))))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}

// daysLeft counts started days until the end of the due date, so a task due
// later today has one day left.
func daysLeft(due model.Date, now time.Time) int {
	remaining := due.EndOfDay(now.Location()).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
