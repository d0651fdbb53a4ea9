package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

const chatID = 42

type sentMessage struct {
	ChatID string
	Text   string
	Markup string
}

type fakeBotAPI struct {
	mu      sync.Mutex
	sent    []sentMessage
	acks    int
	updates []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"t","username":"taskboard_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.sent = append(f.sent, sentMessage{
			ChatID: r.PostForm.Get("chat_id"),
			Text:   r.PostForm.Get("text"),
			Markup: r.PostForm.Get("reply_markup"),
		})
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	case strings.HasSuffix(r.URL.Path, "/answerCallbackQuery"):
		f.acks++
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		if len(f.updates) == 0 {
			time.Sleep(10 * time.Millisecond)
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		next := f.updates[0]
		f.updates = f.updates[1:]
		_, _ = w.Write([]byte(`{"ok":true,"result":[` + next + `]}`))
	default:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func (f *fakeBotAPI) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeBotAPI) last(t *testing.T) sentMessage {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeBotAPI) ackCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acks
}

// textsSince joins every message text sent after the first mark messages.
func (f *fakeBotAPI) textsSince(mark int) string {
	msgs := f.messages()
	var parts []string
	for _, m := range msgs[mark:] {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

type harness struct {
	bot *Bot
	api *fakeBotAPI
	svc Services
	ctx context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(repository.Options{
		Driver:   repository.DriverSQLite,
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	statsRepo, err := repository.NewStatsRepository(db)
	require.NoError(t, err)
	svc := Services{
		Users:      service.NewUserService(userRepo),
		Categories: service.NewCategoryService(categoryRepo),
		Tasks:      service.NewTaskService(taskRepo, userRepo, categoryRepo),
		Summaries:  service.NewSummaryService(taskRepo, userRepo, statsRepo),
	}

	fake := &fakeBotAPI{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	b, err := NewWithEndpoint("token", srv.URL+"/bot%s/%s", svc)
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC) }

	return &harness{bot: b, api: fake, svc: svc, ctx: context.Background()}
}

var (
	alice = &tgbotapi.User{ID: 100, UserName: "alice", FirstName: "Alice", LastName: "Smith"}
	bob   = &tgbotapi.User{ID: 200, UserName: "bob", FirstName: "Bob"}
)

func textUpdate(from *tgbotapi.User, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.SplitN(text, " ", 2)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func callbackUpdate(from *tgbotapi.User, data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 1, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    from,
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
		Data:    data,
	}}
}

func (h *harness) send(from *tgbotapi.User, texts ...string) {
	for _, text := range texts {
		h.bot.handleUpdate(h.ctx, textUpdate(from, text))
	}
}

func (h *harness) user(t *testing.T, from *tgbotapi.User) *model.User {
	t.Helper()
	u, err := h.svc.Users.FindByUsername(h.ctx, from.UserName)
	require.NoError(t, err)
	return u
}

func (h *harness) task(t *testing.T, owner *tgbotapi.User, input service.TaskInput) *model.Task {
	t.Helper()
	u, err := h.bot.ensureUser(h.ctx, owner)
	require.NoError(t, err)
	input.UserID = u.ID
	task, err := h.svc.Tasks.Create(h.ctx, input)
	require.NoError(t, err)
	return task
}

func datePtr(y int, m time.Month, d int) *model.Date {
	date := model.NewDate(y, m, d)
	return &date
}

func TestStartRegistersTelegramUser(t *testing.T) {
	h := newHarness(t)

	h.send(alice, "/start")

	u := h.user(t, alice)
	require.NotNil(t, u.FullName)
	assert.Equal(t, "Alice Smith", *u.FullName)

	msg := h.api.last(t)
	assert.Equal(t, "42", msg.ChatID)
	assert.Contains(t, msg.Text, "👋 Hi, Alice!")
	assert.Contains(t, msg.Text, "/newtask")
	assert.Contains(t, msg.Markup, menuLabelTasks)

	h.send(&tgbotapi.User{ID: 300, FirstName: "Nameless"}, "/start")
	_, err := h.svc.Users.FindByUsername(h.ctx, "tg300")
	assert.NoError(t, err)
}

func TestNewTaskConversationCreatesTask(t *testing.T) {
	h := newHarness(t)

	h.send(alice, "/newtask")
	assert.Contains(t, h.api.last(t).Text, "Step 1")
	h.send(alice, "buy milk", "2% fat", "Shopping", "high", "2024-06-11")

	assert.False(t, h.bot.hasConversation(alice.ID))

	tasks, err := h.svc.Tasks.FindByUser(h.ctx, h.user(t, alice).ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "buy milk", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "2% fat", *task.Description)
	require.NotNil(t, task.Category)
	assert.Equal(t, "Shopping", task.Category.Name)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2024-06-11", task.DueDate.String())

	msgs := h.api.messages()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Contains(t, msgs[len(msgs)-2].Text, "✅ <b>Task saved</b>")
	list := msgs[len(msgs)-1]
	assert.Contains(t, list.Text, "📋 <b>Open tasks</b>")
	assert.Contains(t, list.Text, "🛒 Shopping")
	assert.Contains(t, list.Text, "⏳ <b>#1</b> Buy milk [high]")
	assert.Contains(t, list.Markup, "complete:1")
	assert.Contains(t, list.Markup, "delete:1")
}

func TestConversationRepromptsOnBadInput(t *testing.T) {
	h := newHarness(t)

	h.send(alice, "/newtask", "   ")
	assert.Contains(t, h.api.last(t).Text, "The title cannot be empty")

	h.send(alice, "call mom", "-", btnSkip, "urgent")
	assert.Equal(t, "Pick Low, Medium or High.", h.api.last(t).Text)
	assert.Equal(t, stagePriority, h.bot.getConversation(alice.ID).stage)

	h.send(alice, "Low", "31/12/2024")
	assert.Contains(t, h.api.last(t).Text, "Cannot read that date")
	assert.Equal(t, stageDueDate, h.bot.getConversation(alice.ID).stage)

	h.send(alice, "skip")
	tasks, err := h.svc.Tasks.FindByUser(h.ctx, h.user(t, alice).ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.PriorityLow, tasks[0].Priority)
	assert.Nil(t, tasks[0].Description)
	assert.Nil(t, tasks[0].CategoryID)
	assert.Nil(t, tasks[0].DueDate)
}

func TestCancelInputDropsConversation(t *testing.T) {
	h := newHarness(t)

	h.send(alice, "/newtask", "draft", btnCancelDialog)
	assert.False(t, h.bot.hasConversation(alice.ID))
	assert.Contains(t, h.api.last(t).Text, "Input cancelled")

	h.send(alice, "/newtask", "draft", "/cancel")
	assert.False(t, h.bot.hasConversation(alice.ID))

	tasks, err := h.svc.Tasks.FindByUser(h.ctx, h.user(t, alice).ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	h.send(alice, "hello")
	assert.Contains(t, h.api.last(t).Text, "I did not get that")
}

func TestTasksListsOnlyOwnOpenTasks(t *testing.T) {
	h := newHarness(t)

	h.send(alice, "/tasks")
	assert.Equal(t, "You have no open tasks. Add one with /newtask.", h.api.last(t).Text)

	overdue := h.task(t, alice, service.TaskInput{Title: "write report", DueDate: datePtr(2024, time.June, 9)})
	done := h.task(t, alice, service.TaskInput{Title: "archived"})
	_, err := h.svc.Tasks.ToggleComplete(h.ctx, done.ID)
	require.NoError(t, err)
	other := h.task(t, bob, service.TaskInput{Title: "bob secret"})

	h.send(alice, "/tasks")
	msg := h.api.last(t)
	assert.Contains(t, msg.Text, "⚠️ <b>#1</b> Write report [medium]")
	assert.Contains(t, msg.Text, "<b>overdue</b>")
	assert.Contains(t, msg.Text, "📁 No category")
	assert.NotContains(t, msg.Text, "Archived")
	assert.NotContains(t, msg.Text, "Bob secret")
	assert.Contains(t, msg.Markup, fmt.Sprintf("complete:%d", overdue.ID))
	assert.NotContains(t, msg.Markup, fmt.Sprintf("complete:%d", other.ID))

	h.send(alice, menuLabelTasks)
	assert.Equal(t, msg.Text, h.api.last(t).Text)
}

func TestCompleteCommand(t *testing.T) {
	h := newHarness(t)
	own := h.task(t, alice, service.TaskInput{Title: "write report"})
	other := h.task(t, bob, service.TaskInput{Title: "bob secret"})

	cases := []struct {
		text string
		want string
	}{
		{"/complete", "Give the task ID: /complete 12"},
		{"/complete abc", "The task ID must be a number."},
		{fmt.Sprintf("/complete %d", other.ID), "Task not found."},
		{"/complete 999", "Task not found."},
		{fmt.Sprintf("/complete %d", own.ID), "✅ Task \"Write report\" completed."},
		{fmt.Sprintf("/complete %d", own.ID), "The task is already completed."},
	}
	for _, tc := range cases {
		h.send(alice, tc.text)
		assert.Equal(t, tc.want, h.api.last(t).Text, tc.text)
	}

	task, err := h.svc.Tasks.FindOne(h.ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, task.Completed)
}

func TestDeleteCommand(t *testing.T) {
	h := newHarness(t)
	own := h.task(t, alice, service.TaskInput{Title: "old note"})
	other := h.task(t, bob, service.TaskInput{Title: "bob secret"})

	h.send(alice, fmt.Sprintf("/delete %d", other.ID))
	assert.Equal(t, "Task not found.", h.api.last(t).Text)

	h.send(alice, fmt.Sprintf("/delete %d", own.ID))
	assert.Equal(t, "🗑 Task \"Old note\" deleted.", h.api.last(t).Text)

	_, err := h.svc.Tasks.FindOne(h.ctx, own.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = h.svc.Tasks.FindOne(h.ctx, other.ID)
	assert.NoError(t, err)
}

func TestCallbackDeleteAsksThenConfirms(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, alice, service.TaskInput{Title: "write report"})

	h.bot.handleUpdate(h.ctx, callbackUpdate(alice, fmt.Sprintf("delete:%d", task.ID)))
	assert.Equal(t, 1, h.api.ackCount())
	msg := h.api.last(t)
	assert.Equal(t, fmt.Sprintf("Delete task \"Write report\" (#%d)?", task.ID), msg.Text)
	assert.Contains(t, msg.Markup, btnConfirm)

	mark := len(h.api.messages())
	h.send(alice, btnConfirm)
	assert.Contains(t, h.api.textsSince(mark), "🗑 Task \"Write report\" deleted.")
	_, ok := h.bot.getConfirmation(alice.ID)
	assert.False(t, ok)

	_, err := h.svc.Tasks.FindOne(h.ctx, task.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCallbackCompleteCanBeCancelled(t *testing.T) {
	h := newHarness(t)
	task := h.task(t, alice, service.TaskInput{Title: "write report"})
	other := h.task(t, bob, service.TaskInput{Title: "bob secret"})

	h.bot.handleUpdate(h.ctx, callbackUpdate(alice, fmt.Sprintf("complete:%d", other.ID)))
	assert.Equal(t, "Task not found.", h.api.last(t).Text)

	h.bot.handleUpdate(h.ctx, callbackUpdate(alice, fmt.Sprintf("complete:%d", task.ID)))
	assert.Equal(t, fmt.Sprintf("Mark task \"Write report\" (#%d) as completed?", task.ID), h.api.last(t).Text)

	h.send(alice, "maybe")
	assert.Equal(t, "Confirm or cancel completing the task.", h.api.last(t).Text)

	h.send(alice, btnCancel)
	assert.Equal(t, "🔹 Main menu", h.api.last(t).Text)
	_, ok := h.bot.getConfirmation(alice.ID)
	assert.False(t, ok)

	got, err := h.svc.Tasks.FindOne(h.ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	h.bot.handleUpdate(h.ctx, callbackUpdate(alice, fmt.Sprintf("confirm:%d", task.ID)))
	got, err = h.svc.Tasks.FindOne(h.ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, 3, h.api.ackCount())
}

func TestReportAndCategories(t *testing.T) {
	h := newHarness(t)

	h.send(alice, "/categories")
	assert.Equal(t, "No categories yet. Add one while creating a task.", h.api.last(t).Text)

	_, err := h.svc.Categories.Create(h.ctx, service.CategoryInput{Name: "Work"})
	require.NoError(t, err)
	h.send(alice, menuLabelCategories)
	assert.Equal(t, "📂 <b>Categories</b>\n• 💼 Work", h.api.last(t).Text)

	h.send(alice, "/report")
	assert.Equal(t, "<b>Tasks of alice on 2024-06-10</b>\n- no open tasks", h.api.last(t).Text)
}

func TestGroupChatsAreIgnored(t *testing.T) {
	h := newHarness(t)
	update := textUpdate(alice, "/start")
	update.Message.Chat.Type = "group"

	h.bot.handleUpdate(h.ctx, update)

	assert.Empty(t, h.api.messages())
	_, err := h.svc.Users.FindByUsername(h.ctx, "alice")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestStartPollsUntilCancelled(t *testing.T) {
	h := newHarness(t)
	h.api.mu.Lock()
	h.api.updates = []string{`{"update_id":7,"message":{"message_id":1,"date":0,` +
		`"from":{"id":100,"is_bot":false,"first_name":"Alice","username":"alice"},` +
		`"chat":{"id":42,"type":"private"},"text":"/help",` +
		`"entities":[{"type":"bot_command","offset":0,"length":5}]}}`}
	h.api.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.bot.Start(ctx) }()

	require.Eventually(t, func() bool {
		for _, m := range h.api.messages() {
			if strings.HasPrefix(m.Text, "ℹ️ <b>Help</b>") {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestFormatTaskIcons(t *testing.T) {
	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	desc := "<draft>"

	cases := map[string]struct {
		task model.Task
		want string
	}{
		"undated": {model.Task{ID: 1, Title: "read", Priority: model.PriorityLow}, "🟢 <b>#1</b> Read [low]\n"},
		"due soon": {
			model.Task{ID: 2, Title: "pay", Priority: model.PriorityHigh, DueDate: datePtr(2024, time.June, 11)},
			"⏳ <b>#2</b> Pay [high]\n   ⏰ Due 2024-06-11\n",
		},
		"overdue with description": {
			model.Task{ID: 3, Title: "file", Priority: model.PriorityMedium, DueDate: datePtr(2024, time.June, 1), Description: &desc},
			"⚠️ <b>#3</b> File [medium]\n   ⏰ Due 2024-06-01, <b>overdue</b>\n   📝 &lt;draft&gt;\n",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatTask(tc.task, now))
		})
	}
}

func TestInputHelpers(t *testing.T) {
	assert.True(t, isSkipInput(" Skip "))
	assert.True(t, isSkipInput(btnSkip))
	assert.False(t, isSkipInput("skipper"))
	assert.True(t, isConfirmInput("yes"))
	assert.True(t, isCancelInput(btnCancel))
	assert.True(t, isCancelDialogInput(btnCancelDialog))
	assert.False(t, isCancelInput(btnCancelDialog))

	assert.Equal(t, "Groceries and…", shortTitle("groceries and more", 14))
	assert.Equal(t, "Short", shortTitle("short", 14))

	_, err := parseID("12x")
	assert.Error(t, err)
}
