package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"sort"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/model"
)

const (
	btnSkip             = "⏭️ Skip"
	btnConfirm          = "✅ Confirm"
	btnCancel           = "↩️ Cancel"
	btnCancelDialog     = "⏪ Cancel input"
	noCategory          = "No category"
	noCategoryKey       = "__no_category__"
	iconDefault         = "🟢"
	iconDue             = "⏳"
	iconOverdue         = "⚠️"
	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelCategories = "📂 Categories"
	menuLabelHelp       = "ℹ️ Help"
)

const (
	dueSoonWindow      = 48 * time.Hour
	maxCategoryButtons = 6
)

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.svc.Tasks.FindByUser(ctx, user.ID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}

	now := b.now()
	type categoryGroup struct {
		Name  string
		Tasks []model.Task
	}

	groups := make(map[string]*categoryGroup)
	order := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		key, display := normalizedCategory(task.Category)
		group, ok := groups[key]
		if !ok {
			group = &categoryGroup{Name: display}
			groups[key] = group
			order = append(order, key)
		}
		group.Tasks = append(group.Tasks, task)
	}

	if len(groups) == 0 {
		return b.sendText(chatID, "You have no open tasks. Add one with /newtask.")
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == noCategoryKey {
			return false
		}
		if order[j] == noCategoryKey {
			return true
		}
		return strings.Compare(groups[order[i]].Name, groups[order[j]].Name) < 0
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	builder.WriteString("Tap a button to complete or delete a task.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, key := range order {
		section := groups[key]
		sort.SliceStable(section.Tasks, func(i, j int) bool {
			a, c := section.Tasks[i], section.Tasks[j]
			switch {
			case a.DueDate != nil && c.DueDate != nil:
				if !a.DueDate.Equal(c.DueDate.Time) {
					return a.DueDate.Before(c.DueDate.Time)
				}
			case a.DueDate != nil:
				return true
			case c.DueDate != nil:
				return false
			}
			return a.ID < c.ID
		})

		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", section.Name))
		for _, task := range section.Tasks {
			builder.WriteString(formatTask(task, now))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func formatTask(task model.Task, now time.Time) string {
	var b strings.Builder
	icon := iconDefault
	overdue := task.Overdue(now)
	if overdue {
		icon = iconOverdue
	} else if task.DueDate != nil && task.DueDate.EndOfDay(now.Location()).Sub(now) <= dueSoonWindow {
		icon = iconDue
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s [%s]\n", icon, task.ID, escape(normalizeTitle(task.Title)), task.Priority))
	if task.DueDate != nil {
		if overdue {
			b.WriteString(fmt.Sprintf("   ⏰ Due %s, <b>overdue</b>\n", task.DueDate))
		} else {
			b.WriteString(fmt.Sprintf("   ⏰ Due %s\n", task.DueDate))
		}
	}
	if task.Description != nil && *task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(*task.Description)))
	}
	return b.String()
}

func normalizedCategory(category *model.Category) (string, string) {
	if category == nil {
		return noCategoryKey, categoryLabel(noCategory)
	}
	trimmed := strings.TrimSpace(category.Name)
	if trimmed == "" {
		return noCategoryKey, categoryLabel(noCategory)
	}
	return strings.ToLower(trimmed), categoryLabel(trimmed)
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "study":
		icon = "🎓"
	case "work":
		icon = "💼"
	case "shopping", "groceries":
		icon = "🛒"
	case "health":
		icon = "🩺"
	case "personal", "home":
		icon = "🧩"
	case strings.ToLower(noCategory):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}

func shortTitle(title string, maxLen int) string {
	clean := normalizeTitle(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func escape(s string) string {
	return html.EscapeString(s)
}

// replyKeyboard lays out one button per label, one row per slice.
func replyKeyboard(oneTime bool, rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, labels := range rows {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, row)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = oneTime
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnConfirm, btnCancel, btnCancelDialog})
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(false,
		[]string{menuLabelNewTask, menuLabelTasks},
		[]string{menuLabelCategories, menuLabelHelp},
	)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnCancelDialog})
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnSkip}, []string{btnCancelDialog})
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	levels := make([]string, 0, len(model.Priorities))
	for _, p := range model.Priorities {
		levels = append(levels, normalizeTitle(string(p)))
	}
	return replyKeyboard(true, levels, []string{btnSkip, btnCancelDialog})
}

// categoryKeyboard offers the first few existing categories, two per row.
func (b *Bot) categoryKeyboard(ctx context.Context) tgbotapi.ReplyKeyboardMarkup {
	categories, err := b.svc.Categories.FindAll(ctx)
	if err != nil {
		log.Printf("category keyboard: %v", err)
	}
	if len(categories) > maxCategoryButtons {
		categories = categories[:maxCategoryButtons]
	}
	var rows [][]string
	for i := 0; i < len(categories); i += 2 {
		row := []string{categories[i].Name}
		if i+1 < len(categories) {
			row = append(row, categories[i+1].Name)
		}
		rows = append(rows, row)
	}
	rows = append(rows, []string{btnSkip, btnCancelDialog})
	return replyKeyboard(true, rows...)
}

// matchesInput compares text to the accepted answers, ignoring case and surrounding space.
func matchesInput(text string, accepted ...string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	for _, a := range accepted {
		if value == strings.ToLower(a) {
			return true
		}
	}
	return false
}

func isSkipInput(text string) bool {
	return matchesInput(text, "-", btnSkip, "skip")
}

func isConfirmInput(text string) bool {
	return matchesInput(text, btnConfirm, "confirm", "yes")
}

func isCancelInput(text string) bool {
	return matchesInput(text, btnCancel, "cancel", "no")
}

func isCancelDialogInput(text string) bool {
	return matchesInput(text, btnCancelDialog, "cancel input")
}
