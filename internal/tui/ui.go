// Package tui renders the board in a terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/board"
	"taskboard/internal/model"
)

type appState int

const (
	stateList appState = iota
	stateForm
	stateConfirm
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDueDate
	fieldCount
)

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	bannerStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196"))

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

type doneMsg struct{ err error }

// Model is the top-level bubbletea model.
type Model struct {
	ctx    context.Context
	board  *board.Board
	keys   keyMap
	state  appState
	cursor int
	inputs []textinput.Model
	focus  int
	draft  board.Draft
	notice string
	width  int
}

func NewModel(ctx context.Context, b *board.Board) Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 200
		inputs[i] = ti
	}
	inputs[fieldTitle].Placeholder = "Task title *"
	inputs[fieldDescription].Placeholder = "Description"
	inputs[fieldDescription].CharLimit = 2000
	inputs[fieldDueDate].Placeholder = "Due date (YYYY-MM-DD)"
	inputs[fieldDueDate].CharLimit = 10

	return Model{
		ctx:    ctx,
		board:  b,
		keys:   newKeyMap(),
		inputs: inputs,
	}
}

func (m Model) Init() tea.Cmd {
	return m.run(m.board.Reload)
}

func (m Model) run(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: op(m.ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case doneMsg:
		// The board already holds the error; keep the cursor within the new list.
		m.clampCursor()
		return m, nil
	}

	switch m.state {
	case stateForm:
		return m.updateForm(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	default:
		return m.updateList(msg)
	}
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.notice = ""
	tasks := m.board.Snapshot().Tasks

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Reload):
		return m, m.run(m.board.Reload)
	case key.Matches(keyMsg, m.keys.New):
		return m.openForm()
	case key.Matches(keyMsg, m.keys.Toggle):
		if task, ok := m.selected(tasks); ok {
			id := task.ID
			return m, m.run(func(ctx context.Context) error { return m.board.ToggleTask(ctx, id) })
		}
	case key.Matches(keyMsg, m.keys.Delete):
		if _, ok := m.selected(tasks); ok {
			m.state = stateConfirm
		}
	case key.Matches(keyMsg, m.keys.Copy):
		if task, ok := m.selected(tasks); ok {
			if err := clipboard.WriteAll(task.Title); err != nil {
				m.notice = "copy failed: " + err.Error()
			} else {
				m.notice = "copied " + fmt.Sprintf("%q", task.Title)
			}
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		m.state = stateList
		if task, ok := m.selected(m.board.Snapshot().Tasks); ok {
			id := task.ID
			return m, m.run(func(ctx context.Context) error { return m.board.DeleteTask(ctx, id) })
		}
	case key.Matches(keyMsg, m.keys.No):
		m.state = stateList
	}
	return m, nil
}

func (m Model) openForm() (tea.Model, tea.Cmd) {
	m.state = stateForm
	m.draft = m.board.NewDraft()
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.focus = fieldTitle
	return m, m.inputs[fieldTitle].Focus()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Cancel):
			m.state = stateList
			return m, nil
		case key.Matches(keyMsg, m.keys.Submit):
			draft := m.draft
			draft.Title = m.inputs[fieldTitle].Value()
			draft.Description = m.inputs[fieldDescription].Value()
			draft.DueDate = m.inputs[fieldDueDate].Value()
			m.state = stateList
			return m, m.run(func(ctx context.Context) error { return m.board.CreateTask(ctx, draft) })
		case key.Matches(keyMsg, m.keys.Next):
			return m.focusField((m.focus + 1) % fieldCount)
		case key.Matches(keyMsg, m.keys.Prev):
			return m.focusField((m.focus + fieldCount - 1) % fieldCount)
		case key.Matches(keyMsg, m.keys.Priority):
			m.draft.Priority = m.draft.Priority.Next()
			return m, nil
		case key.Matches(keyMsg, m.keys.User):
			m.draft.UserID = nextUser(m.board.Snapshot().Users, m.draft.UserID)
			return m, nil
		case key.Matches(keyMsg, m.keys.Category):
			m.draft.CategoryID = nextCategory(m.board.Snapshot().Categories, m.draft.CategoryID)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) focusField(field int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m, m.inputs[m.focus].Focus()
}

func (m Model) selected(tasks []model.Task) (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.board.Snapshot().Tasks)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	snap := m.board.Snapshot()
	if snap.Status == board.Loading && len(snap.Tasks) == 0 {
		return appStyle.Render("Loading tasks...")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("\n")
	b.WriteString(renderStats(snap.Stats()))
	b.WriteString("\n\n")

	if snap.Status == board.Errored {
		b.WriteString(renderBanner(snap))
		b.WriteString("\n\n")
	}

	switch m.state {
	case stateForm:
		b.WriteString(m.formView(snap))
		b.WriteString("\n\n")
		b.WriteString(statusStyle.Render(helpLine(m.keys.formHelp())))
		return appStyle.Render(b.String())
	case stateConfirm:
		if task, ok := m.selected(snap.Tasks); ok {
			b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %q? (y/n)", task.Title)))
			b.WriteString("\n\n")
		}
	}

	if len(snap.Tasks) == 0 {
		b.WriteString(statusStyle.Render("No tasks yet. Press n to add one."))
		b.WriteString("\n")
	}
	for i, task := range snap.Tasks {
		b.WriteString(m.taskLine(i, task))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("%d tasks · %d categories · %d users", len(snap.Tasks), len(snap.Categories), len(snap.Users))))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(helpLine(m.keys.listHelp())))
	return appStyle.Render(b.String())
}

func (m Model) taskLine(i int, task model.Task) string {
	cursor := "  "
	if i == m.cursor && m.state != stateForm {
		cursor = cursorStyle.Render("> ")
	}
	check := "[ ]"
	title := task.Title
	if task.Completed {
		check = "[x]"
		title = doneStyle.Render(title)
	}

	parts := []string{cursor + check, title, priorityBadge(task.Priority)}
	if task.Category != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(task.Category.Color)).Render("#"+task.Category.Name))
	}
	if task.User != nil {
		parts = append(parts, statusStyle.Render("@"+task.User.Username))
	}
	if task.DueDate != nil {
		parts = append(parts, statusStyle.Render("due "+task.DueDate.String()))
	}
	return strings.Join(parts, " ")
}

func (m Model) formView(snap board.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New task"))
	b.WriteString("\n")
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Priority: %s\n", priorityBadge(m.draft.Priority)))
	b.WriteString(fmt.Sprintf("User:     %s\n", userName(snap.Users, m.draft.UserID)))
	b.WriteString(fmt.Sprintf("Category: %s", categoryName(snap.Categories, m.draft.CategoryID)))
	return b.String()
}

func renderStats(st board.Stats) string {
	return strings.Join([]string{
		fmt.Sprintf("Total %d", st.Total),
		greenStyle.Render(fmt.Sprintf("Completed %d", st.Completed)),
		pendingStyle.Render(fmt.Sprintf("Pending %d", st.Pending)),
		errorStyle.Render(fmt.Sprintf("High priority %d", st.HighOpen)),
	}, " · ")
}

func renderBanner(snap board.Snapshot) string {
	lines := []string{errorStyle.Render(snap.Err)}
	if snap.Diagnostics.LastURL != "" {
		lines = append(lines, "Last attempt: "+snap.Diagnostics.LastURL)
	}
	if snap.Diagnostics.LastError != "" && snap.Diagnostics.LastError != snap.Err {
		lines = append(lines, "Error: "+snap.Diagnostics.LastError)
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

func priorityBadge(p model.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		style = statusStyle
	}
	return style.Render(strings.ToUpper(string(p)))
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

func nextUser(users []model.User, current uint) uint {
	if len(users) == 0 {
		return 0
	}
	for i, u := range users {
		if u.ID == current {
			return users[(i+1)%len(users)].ID
		}
	}
	return users[0].ID
}

// nextCategory cycles through the categories and then "none".
func nextCategory(categories []model.Category, current uint) uint {
	if len(categories) == 0 {
		return 0
	}
	if current == 0 {
		return categories[0].ID
	}
	for i, c := range categories {
		if c.ID == current {
			if i+1 == len(categories) {
				return 0
			}
			return categories[i+1].ID
		}
	}
	return categories[0].ID
}

func userName(users []model.User, id uint) string {
	for _, u := range users {
		if u.ID == id {
			return u.Username
		}
	}
	return "(none)"
}

func categoryName(categories []model.Category, id uint) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return "(none)"
}
