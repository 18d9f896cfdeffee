package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/DoseboT/internal/adherence"
	"github.com/Kerhoff/DoseboT/internal/service"
)

// tierEmoji maps an adherence tier to its badge.
func tierEmoji(t adherence.Tier) string {
	switch t {
	case adherence.TierExcellent:
		return "🏆"
	case adherence.TierGood:
		return "🟢"
	case adherence.TierFair:
		return "🟡"
	default:
		return "🔴"
	}
}

// parsePeriod reads an optional positive integer argument, falling back to def.
func parsePeriod(args []string, def int) (int, bool) {
	if len(args) == 0 {
		return def, true
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ---------------------------------------------------------------------------
// StatsHandler – /stats [days]
// ---------------------------------------------------------------------------

// StatsHandler handles the /stats command to show an adherence report.
type StatsHandler struct {
	svc         *service.Service
	logger      *logrus.Logger
	defaultDays int
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc *service.Service, logger *logrus.Logger, defaultDays int) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger, defaultDays: defaultDays}
}

// Handle processes the /stats command.
func (h *StatsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	days, ok := parsePeriod(args, h.defaultDays)
	if !ok {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Period must be a positive number of days."))
		return nil
	}

	report, err := h.svc.Report(context.Background(), message.Chat.ID, days)
	if err != nil {
		return fmt.Errorf("adherence report: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *Adherence, last %d days*\n%s — %s\n\n",
		days, report.From.Format("02 Jan"), report.To.Format("02 Jan 2006")))

	t := report.Totals
	if t.Scheduled == 0 {
		sb.WriteString("No doses were scheduled in this period.")
	} else {
		sb.WriteString(fmt.Sprintf("%s *%d%%* taken (%s)\n", tierEmoji(t.Tier), t.Percent, t.Tier))
		sb.WriteString(fmt.Sprintf("✅ Taken: %d\n❌ Missed: %d\n⬜ Unmarked: %d\n📋 Scheduled: %d\n",
			t.Taken, t.Missed, t.Unmarked, t.Scheduled))

		if len(report.PerMedication) > 1 {
			sb.WriteString("\n*By medication:*\n")
			for _, med := range report.PerMedication {
				sb.WriteString(fmt.Sprintf("%s %s — %d%% (%d/%d)\n",
					tierEmoji(med.Stats.Tier), med.Name, med.Stats.Percent,
					med.Stats.Taken, med.Stats.Scheduled))
			}
		}
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"days":    days,
	}).Info("Adherence report sent")

	return nil
}

// ---------------------------------------------------------------------------
// StreakHandler – /streak [days]
// ---------------------------------------------------------------------------

// StreakHandler handles the /streak command.
type StreakHandler struct {
	svc         *service.Service
	logger      *logrus.Logger
	defaultDays int
}

// NewStreakHandler creates a new StreakHandler.
func NewStreakHandler(svc *service.Service, logger *logrus.Logger, defaultDays int) *StreakHandler {
	return &StreakHandler{svc: svc, logger: logger, defaultDays: defaultDays}
}

// Handle processes the /streak command.
func (h *StreakHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	days, ok := parsePeriod(args, h.defaultDays)
	if !ok {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Period must be a positive number of days."))
		return nil
	}

	report, err := h.svc.Streaks(context.Background(), message.Chat.ID, days)
	if err != nil {
		return fmt.Errorf("streak report: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔥 *Streaks, last %d days*\n\n", days))
	sb.WriteString(fmt.Sprintf("🔥 Current streak: *%d* days\n", report.CurrentStreak))
	sb.WriteString(fmt.Sprintf("🏅 Longest streak: *%d* days\n", report.LongestStreak))
	sb.WriteString(fmt.Sprintf("📈 Active days: *%d%%*\n", report.ActiveDayRate))

	if report.CurrentStreak == 0 {
		sb.WriteString("\n_Take a dose today to start a new streak!_")
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}

// ---------------------------------------------------------------------------
// WeeklyHandler – /weekly [weeks]
// ---------------------------------------------------------------------------

// WeeklyHandler handles the /weekly command to show the weekly trend.
type WeeklyHandler struct {
	svc          *service.Service
	logger       *logrus.Logger
	defaultWeeks int
}

// NewWeeklyHandler creates a new WeeklyHandler.
func NewWeeklyHandler(svc *service.Service, logger *logrus.Logger, defaultWeeks int) *WeeklyHandler {
	return &WeeklyHandler{svc: svc, logger: logger, defaultWeeks: defaultWeeks}
}

// Handle processes the /weekly command.
func (h *WeeklyHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	weeks, ok := parsePeriod(args, h.defaultWeeks)
	if !ok {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Period must be a positive number of weeks."))
		return nil
	}

	buckets, err := h.svc.WeeklyTrend(context.Background(), message.Chat.ID, weeks)
	if err != nil {
		return fmt.Errorf("weekly trend: %w", err)
	}

	max := 0
	for _, b := range buckets {
		if b.Count > max {
			max = b.Count
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Doses taken per week, last %d weeks*\n\n", weeks))
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("`%s` %s %d\n",
			b.Start.Format("02 Jan"), bar(b.Count, max), b.Count))
	}
	if max == 0 {
		sb.WriteString("\n_No doses taken yet in this period._")
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}

// bar renders a count as a block bar scaled to the busiest week.
func bar(count, max int) string {
	const width = 10
	if max == 0 || count == 0 {
		return "▫️"
	}
	n := count * width / max
	if n == 0 {
		n = 1
	}
	return strings.Repeat("▪️", n)
}
