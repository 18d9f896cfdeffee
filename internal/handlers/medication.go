package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/DoseboT/internal/adherence"
	"github.com/Kerhoff/DoseboT/internal/models"
	"github.com/Kerhoff/DoseboT/internal/repository"
	"github.com/Kerhoff/DoseboT/internal/service"
)

var weekdayNames = map[string]adherence.Weekday{
	"sun": adherence.Sunday, "mon": adherence.Monday, "tue": adherence.Tuesday,
	"wed": adherence.Wednesday, "thu": adherence.Thursday, "fri": adherence.Friday,
	"sat": adherence.Saturday,
}

// parseWeekdays converts a comma list like "mon,wed,fri" to weekday numbers.
func parseWeekdays(raw string) ([]int64, error) {
	var days []int64
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if len(name) > 3 {
			name = name[:3]
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		days = append(days, int64(day))
	}
	return days, nil
}

// parseAddMedArgs parses the /addmed argument list:
//
//	<name> [dosage] at <HH:MM,HH:MM> [on <mon,wed,...>] [from <YYYY-MM-DD>] [until <YYYY-MM-DD>]
//
// Everything before "at" is the medication name; a trailing name word with a
// digit in it is treated as the dosage.
func parseAddMedArgs(args []string, today time.Time) (*models.Medication, error) {
	atIdx := -1
	for i, a := range args {
		if strings.EqualFold(a, "at") {
			atIdx = i
			break
		}
	}
	if atIdx <= 0 || atIdx == len(args)-1 {
		return nil, fmt.Errorf("usage: /addmed <name> [dosage] at <HH:MM,HH:MM> [on <mon,wed,...>]")
	}

	nameWords := args[:atIdx]
	dosage := ""
	if len(nameWords) > 1 && strings.ContainsAny(nameWords[len(nameWords)-1], "0123456789") {
		dosage = nameWords[len(nameWords)-1]
		nameWords = nameWords[:len(nameWords)-1]
	}

	med := &models.Medication{
		Name:      strings.Join(nameWords, " "),
		Dosage:    dosage,
		Frequency: adherence.FrequencyDaily,
		StartDate: today,
	}
	for _, t := range strings.Split(args[atIdx+1], ",") {
		med.Times = append(med.Times, strings.TrimSpace(t))
	}

	rest := args[atIdx+2:]
	for i := 0; i < len(rest); i++ {
		if i == len(rest)-1 {
			return nil, fmt.Errorf("missing value after %q", rest[i])
		}
		value := rest[i+1]
		switch strings.ToLower(rest[i]) {
		case "on":
			days, err := parseWeekdays(value)
			if err != nil {
				return nil, err
			}
			med.Weekdays = days
			if len(days) == 1 {
				med.Frequency = adherence.FrequencyWeekly
			} else {
				med.Frequency = adherence.FrequencyCustom
			}
		case "from":
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return nil, fmt.Errorf("from date must be YYYY-MM-DD")
			}
			med.StartDate = t
		case "until":
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return nil, fmt.Errorf("until date must be YYYY-MM-DD")
			}
			med.EndDate = &t
		default:
			return nil, fmt.Errorf("unexpected argument %q", rest[i])
		}
		i++
	}

	return med, nil
}

// ---------------------------------------------------------------------------
// AddMedHandler – /addmed <name> [dosage] at <times> [on <weekdays>]
// ---------------------------------------------------------------------------

// AddMedHandler handles the /addmed command to register a medication schedule.
type AddMedHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewAddMedHandler creates a new AddMedHandler.
func NewAddMedHandler(svc *service.Service, logger *logrus.Logger) *AddMedHandler {
	return &AddMedHandler{svc: svc, logger: logger}
}

// Handle processes the /addmed command.
func (h *AddMedHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	med, err := parseAddMedArgs(args, h.svc.Today())
	if err != nil {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"❌ "+err.Error()+"\nExample: `/addmed Amoxicillin 500mg at 08:00,20:00`")
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}

	user, err := h.svc.EnsureUser(ctx, message.From.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	med.ChatID = message.Chat.ID
	med.CreatedByID = user.ID

	med, err = h.svc.CreateMedication(ctx, med)
	if err != nil {
		var invalid *adherence.InvalidScheduleError
		if errors.As(err, &invalid) {
			msg := tgbotapi.NewMessage(message.Chat.ID, "❌ "+invalid.Error())
			bot.Send(msg)
			return nil
		}
		return fmt.Errorf("create medication: %w", err)
	}

	text := fmt.Sprintf("✅ *Medication added!*\n\n💊 *#%d* — %s\n🕗 %s",
		med.ID, med.Label(), med.TimesLabel())
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)

	h.logger.WithFields(logrus.Fields{
		"chat_id":       message.Chat.ID,
		"user_id":       message.From.ID,
		"medication_id": med.ID,
	}).Info("Medication created")

	return nil
}

// ---------------------------------------------------------------------------
// MedsHandler – /meds
// ---------------------------------------------------------------------------

// MedsHandler handles the /meds command to list the chat's medications.
type MedsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMedsHandler creates a new MedsHandler.
func NewMedsHandler(svc *service.Service, logger *logrus.Logger) *MedsHandler {
	return &MedsHandler{svc: svc, logger: logger}
}

// Handle processes the /meds command.
func (h *MedsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	meds, err := h.svc.Medications.GetByChatID(ctx, message.Chat.ID, repository.MedicationFilters{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("list medications: %w", err)
	}

	if len(meds) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"💊 *No medications tracked yet!*\n\nAdd one with `/addmed <name> at <HH:MM>`")
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}

	var sb strings.Builder
	sb.WriteString("💊 *Tracked medications:*\n\n")
	for _, med := range meds {
		sb.WriteString(fmt.Sprintf("*#%d* — %s\n🕗 %s · %s\n\n",
			med.ID, med.Label(), med.TimesLabel(), scheduleLabel(med)))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}

// scheduleLabel renders a medication's recurrence for list display.
func scheduleLabel(med *models.Medication) string {
	switch med.Frequency {
	case adherence.FrequencyDaily:
		return "every day"
	default:
		names := make([]string, 0, len(med.Weekdays))
		for _, d := range med.Weekdays {
			for name, num := range weekdayNames {
				if int64(num) == d {
					names = append(names, name)
					break
				}
			}
		}
		return "on " + strings.Join(names, ",")
	}
}

// ---------------------------------------------------------------------------
// DelMedHandler – /delmed <id>
// ---------------------------------------------------------------------------

// DelMedHandler handles the /delmed command to delete a medication.
type DelMedHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewDelMedHandler creates a new DelMedHandler.
func NewDelMedHandler(svc *service.Service, logger *logrus.Logger) *DelMedHandler {
	return &DelMedHandler{svc: svc, logger: logger}
}

// Handle processes the /delmed command.
func (h *DelMedHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"❌ Please provide a medication ID.\nUsage: `/delmed 3`")
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ Medication ID must be a number."))
		return nil
	}

	if err := h.svc.DeleteMedication(context.Background(), message.Chat.ID, id); err != nil {
		bot.Send(tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("❌ Could not delete medication #%d.", id)))
		return nil
	}

	bot.Send(tgbotapi.NewMessage(message.Chat.ID,
		fmt.Sprintf("🗑 Medication #%d deleted along with its dose history.", id)))

	h.logger.WithFields(logrus.Fields{
		"chat_id":       message.Chat.ID,
		"medication_id": id,
	}).Info("Medication deleted")

	return nil
}
