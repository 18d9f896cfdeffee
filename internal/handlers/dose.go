package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/DoseboT/internal/adherence"
	"github.com/Kerhoff/DoseboT/internal/service"
)

// DoseCallbackPrefix is the callback-data prefix for dose buttons; the full
// data is "dose:<medication_id>:<YYYY-MM-DD>:<HH.MM>". The dose time is
// encoded with a dot because the router splits callback data on colons.
const DoseCallbackPrefix = "dose"

func encodeDoseTime(t string) string { return strings.ReplaceAll(t, ":", ".") }
func decodeDoseTime(t string) string { return strings.ReplaceAll(t, ".", ":") }

// parseMarkStatus maps a /mark status word to a dose status, case
// insensitively; "clear" is an alias for unmarked.
func parseMarkStatus(raw string) adherence.Status {
	raw = strings.ToLower(raw)
	if raw == "clear" {
		return adherence.StatusUnmarked
	}
	return adherence.Status(raw)
}

// statusEmoji returns an emoji representing a dose status.
func statusEmoji(s adherence.Status) string {
	switch s {
	case adherence.StatusTaken:
		return "✅"
	case adherence.StatusMissed:
		return "❌"
	default:
		return "⬜"
	}
}

// dayStatusLine renders the aggregated day status for a header line.
func dayStatusLine(s adherence.DayStatus) string {
	switch s {
	case adherence.DayAllTaken:
		return "✅ All doses taken"
	case adherence.DayHasMissed:
		return "❌ Some doses missed"
	case adherence.DayUnmarked:
		return "⬜ Doses still unmarked"
	default:
		return "💤 No doses scheduled"
	}
}

// todayText renders the day overview message body.
func todayText(overview *service.DayOverview) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💊 *Doses for %s*\n%s\n\n",
		overview.Date.Format("Mon, 02 Jan 2006"), dayStatusLine(overview.Status)))

	for _, md := range overview.Medications {
		sb.WriteString(fmt.Sprintf("*#%d* — %s\n", md.Medication.ID, md.Medication.Label()))
		for _, dose := range md.Doses {
			sb.WriteString(fmt.Sprintf("  %s %s\n", statusEmoji(dose.Status), dose.Time))
		}
		sb.WriteString("\n")
	}

	if len(overview.Medications) == 0 {
		sb.WriteString("Nothing is scheduled for this day.")
	} else {
		sb.WriteString("_Tap a button to cycle a dose through taken → missed → unmarked._")
	}
	return sb.String()
}

// todayKeyboard builds one inline button per dose, wired to the dose callback.
func todayKeyboard(overview *service.DayOverview) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	day := overview.Date.Format("2006-01-02")

	for _, md := range overview.Medications {
		var row []tgbotapi.InlineKeyboardButton
		for _, dose := range md.Doses {
			label := fmt.Sprintf("%s #%d %s", statusEmoji(dose.Status), md.Medication.ID, dose.Time)
			data := fmt.Sprintf("%s:%d:%s:%s", DoseCallbackPrefix, md.Medication.ID, day, encodeDoseTime(dose.Time))
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ---------------------------------------------------------------------------
// TodayHandler – /today [YYYY-MM-DD]
// ---------------------------------------------------------------------------

// TodayHandler handles the /today command to show a day's doses.
type TodayHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewTodayHandler creates a new TodayHandler.
func NewTodayHandler(svc *service.Service, logger *logrus.Logger) *TodayHandler {
	return &TodayHandler{svc: svc, logger: logger}
}

// Handle processes the /today command.
func (h *TodayHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	day := h.svc.Today()
	if len(args) > 0 {
		t, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Date must be YYYY-MM-DD."))
			return nil
		}
		day = t
	}

	overview, err := h.svc.DayForChat(context.Background(), message.Chat.ID, day)
	if err != nil {
		return fmt.Errorf("day overview: %w", err)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, todayText(overview))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(overview.Medications) > 0 {
		msg.ReplyMarkup = todayKeyboard(overview)
	}
	bot.Send(msg)
	return nil
}

// ---------------------------------------------------------------------------
// MarkHandler – /mark <id> <HH:MM> <taken/missed/clear> [YYYY-MM-DD]
// ---------------------------------------------------------------------------

// MarkHandler handles the /mark command to set a dose status explicitly.
type MarkHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMarkHandler creates a new MarkHandler.
func NewMarkHandler(svc *service.Service, logger *logrus.Logger) *MarkHandler {
	return &MarkHandler{svc: svc, logger: logger}
}

// Handle processes the /mark command.
func (h *MarkHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) < 3 {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"❌ Usage: `/mark <id> <HH:MM> <taken/missed/clear> [YYYY-MM-DD]`")
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}

	medID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Medication ID must be a number."))
		return nil
	}

	status := parseMarkStatus(args[2])

	day := h.svc.Today()
	if len(args) > 3 {
		t, parseErr := time.Parse("2006-01-02", args[3])
		if parseErr != nil {
			bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Date must be YYYY-MM-DD."))
			return nil
		}
		day = t
	}

	ctx := context.Background()
	user, err := h.svc.EnsureUser(ctx, message.From.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	marked, err := h.svc.MarkDose(ctx, message.Chat.ID, medID, day, args[1], status, user.ID)
	if err != nil {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ "+err.Error()))
		return nil
	}

	bot.Send(tgbotapi.NewMessage(message.Chat.ID,
		fmt.Sprintf("%s Dose #%d %s on %s marked %s.",
			statusEmoji(marked), medID, args[1], day.Format("2006-01-02"), marked)))
	return nil
}

// ---------------------------------------------------------------------------
// DoseCallbackHandler – inline keyboard taps on /today
// ---------------------------------------------------------------------------

// DoseCallbackHandler cycles a dose's status when its inline button is tapped
// and refreshes the day overview message in place.
type DoseCallbackHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewDoseCallbackHandler creates a new DoseCallbackHandler.
func NewDoseCallbackHandler(svc *service.Service, logger *logrus.Logger) *DoseCallbackHandler {
	return &DoseCallbackHandler{svc: svc, logger: logger}
}

// HandleCallback processes a "dose:<id>:<date>:<time>" callback.
func (h *DoseCallbackHandler) HandleCallback(bot *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 3 || query.Message == nil {
		return fmt.Errorf("malformed dose callback data")
	}

	medID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("malformed medication id in callback: %w", err)
	}
	day, err := time.Parse("2006-01-02", args[1])
	if err != nil {
		return fmt.Errorf("malformed date in callback: %w", err)
	}
	doseTime := decodeDoseTime(args[2])

	ctx := context.Background()
	chatID := query.Message.Chat.ID

	user, err := h.svc.EnsureUser(ctx, query.From.ID, query.From.UserName, query.From.FirstName, query.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	status, err := h.svc.CycleDose(ctx, chatID, medID, day, doseTime, user.ID)
	if err != nil {
		return fmt.Errorf("cycle dose: %w", err)
	}

	// Redraw the overview so the tapped button reflects the new status.
	overview, err := h.svc.DayForChat(ctx, chatID, day)
	if err != nil {
		return fmt.Errorf("day overview: %w", err)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, query.Message.MessageID,
		todayText(overview), todayKeyboard(overview))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(edit); err != nil {
		return fmt.Errorf("failed to refresh day overview: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":       chatID,
		"medication_id": medID,
		"dose_time":     doseTime,
		"status":        status,
	}).Info("Dose cycled via button")

	return nil
}
