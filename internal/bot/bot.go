// Package bot answers private Telegram chats. Each chat works on the tasks of
// the taskboard user whose username matches the Telegram username.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stagePriority
	stageDueDate
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbConfirmPrefix  = "confirm:"
)

const commandList = "• /newtask: add a task step by step\n" +
	"• /tasks: open tasks with complete and delete buttons\n" +
	"• /complete &lt;id&gt;: mark a task completed (e.g. /complete 3)\n" +
	"• /delete &lt;id&gt;: delete a task\n" +
	"• /categories: list categories\n" +
	"• /report: your open tasks by due date\n" +
	"• /cancel: drop the current input"

var errAlreadyCompleted = errors.New("task already completed")

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// Services are the collaborators the bot calls into.
type Services struct {
	Users      *service.UserService
	Categories *service.CategoryService
	Tasks      *service.TaskService
	Summaries  *service.SummaryService
}

// Bot aggregates the Telegram API with the task services.
type Bot struct {
	api           *tgbotapi.BotAPI
	svc           Services
	now           func() time.Time
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, svc Services) (*Bot, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, svc)
}

// NewWithEndpoint targets a custom Bot API endpoint such as a local bot server.
func NewWithEndpoint(token, endpoint string, svc Services) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		svc:           svc,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	log.Println("[info] start polling updates")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled. Start again whenever you like.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your taskboard tasks at hand.</b>\n\nCommands:\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+commandList)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	summary, err := b.svc.Summaries.UserSummary(ctx, user.ID, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, notify.FormatHTML(summary.Text))
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The title cannot be empty. What should the task be called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ Add a short description (or press Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			description := text
			state.input.Description = &description
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Pick a category or type a new one (Skip for none).", b.categoryKeyboard(ctx))
	case stageCategory:
		if !isSkipInput(text) {
			category, err := b.svc.Categories.FindOrCreate(ctx, service.CategoryInput{Name: text})
			if err != nil {
				return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Category rejected: %s", escape(err.Error())), b.categoryKeyboard(ctx))
			}
			state.input.CategoryID = &category.ID
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🚦 Priority: Low, Medium or High? (Skip keeps Medium)", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			priority, ok := model.ParsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "Pick Low, Medium or High.", priorityKeyboard())
			}
			value := string(priority)
			state.input.Priority = &value
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(chatID, "⏰ Due date as <code>2025-11-30</code> (or Skip).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := model.ParseDate(text)
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "Cannot read that date. Use <code>2025-11-30</code> or Skip.", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		err := b.finishTaskCreation(ctx, msg.From, state.input, chatID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "Conversation reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	input.UserID = user.ID
	task, err := b.svc.Tasks.Create(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}

	log.Printf("[info] task created id=%d user=%d priority=%s", task.ID, user.ID, task.Priority)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Description != nil && *task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(*task.Description)))
	}
	if task.Category != nil {
		summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", escape(task.Category.Name)))
	}
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	log.Printf("[info] list tasks for user=%d", user.ID)
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give the task ID: /complete 12")
	}
	taskID, err := parseID(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task ID must be a number.")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.completeTask(ctx, user, taskID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(msg.Chat.ID, "Task not found.")
	case errors.Is(err, errAlreadyCompleted):
		return b.sendText(msg.Chat.ID, "The task is already completed.")
	case err != nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Task \"%s\" completed.", escape(normalizeTitle(task.Title))))
}

// handleDelete removes a task right away; the list buttons ask first.
func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give the task ID: /delete 12")
	}
	taskID, err := parseID(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task ID must be a number.")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.userTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "Task not found.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	if err := b.svc.Tasks.Remove(ctx, taskID); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not delete the task: %s", escape(err.Error())))
	}

	log.Printf("[info] task deleted id=%d user=%d", task.ID, user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Task \"%s\" deleted.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	categories, err := b.svc.Categories.FindAll(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load categories: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet. Add one while creating a task.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", categoryLabel(cat.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
		}
		return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Confirm or cancel completing the task."
		if req.action == actionDelete {
			prompt = "Confirm or cancel deleting the task."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.ackCallback(cb.ID)

	data := cb.Data
	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		log.Printf("[info] callback complete request user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbCompletePrefix))
		taskID, err := parseID(strings.TrimPrefix(data, cbCompletePrefix))
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, chatID, cb.From, taskID, actionComplete)
	case strings.HasPrefix(data, cbDeletePrefix):
		log.Printf("[info] callback delete request user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbDeletePrefix))
		taskID, err := parseID(strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, chatID, cb.From, taskID, actionDelete)
	case strings.HasPrefix(data, cbConfirmPrefix):
		taskID, err := parseID(strings.TrimPrefix(data, cbConfirmPrefix))
		if err != nil {
			return nil
		}
		return b.completeTaskAndRefresh(ctx, chatID, cb.From, taskID)
	default:
		return nil
	}
}

func (b *Bot) ackCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, action confirmationAction) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.userTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return err
	}

	title := escape(normalizeTitle(task.Title))
	var text string
	if action == actionDelete {
		text = fmt.Sprintf("Delete task \"%s\" (#%d)?", title, task.ID)
	} else {
		if task.Completed {
			return b.sendText(chatID, "The task is already completed.")
		}
		text = fmt.Sprintf("Mark task \"%s\" (#%d) as completed?", title, task.ID)
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.completeTask(ctx, user, taskID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
	case errors.Is(err, errAlreadyCompleted):
		return b.sendTextWithRemove(chatID, "The task was already completed.")
	case err != nil:
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	log.Printf("[info] task completed id=%d user=%d", task.ID, user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("✅ Task \"%s\" completed.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.userTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
		}
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	if err := b.svc.Tasks.Remove(ctx, taskID); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	log.Printf("[info] task deleted id=%d user=%d", task.ID, user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 Task \"%s\" deleted.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

// userTask loads a task owned by user; tasks of other users read as missing.
func (b *Bot) userTask(ctx context.Context, user *model.User, id uint) (*model.Task, error) {
	task, err := b.svc.Tasks.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != user.ID {
		return nil, &service.NotFoundError{Resource: "Task", ID: id}
	}
	return task, nil
}

func (b *Bot) completeTask(ctx context.Context, user *model.User, id uint) (*model.Task, error) {
	task, err := b.userTask(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, errAlreadyCompleted
	}
	return b.svc.Tasks.ToggleComplete(ctx, id)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	input := service.UserInput{Username: telegramUsername(from)}
	if name := strings.TrimSpace(from.FirstName + " " + from.LastName); name != "" {
		input.FullName = &name
	}
	user, err := b.svc.Users.Upsert(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("register telegram user %d: %w", from.ID, err)
	}
	return user, nil
}

// telegramUsername falls back to tg<id> for accounts without a username.
func telegramUsername(from *tgbotapi.User) string {
	if name := strings.TrimSpace(from.UserName); name != "" {
		return name
	}
	return fmt.Sprintf("tg%d", from.ID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	return b.sendText(chatID, "🔹 Main menu")
}

// handleMenuAlias routes the main menu buttons to their commands.
func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch {
	case matchesInput(msg.Text, menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case matchesInput(msg.Text, menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case matchesInput(msg.Text, menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case matchesInput(msg.Text, menuLabelHelp):
		return true, b.handleHelp(msg)
	}
	return false, nil
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func parseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
