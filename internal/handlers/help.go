package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *DoseboT Help*

*Medications:*
• /addmed <name> [dosage] at <HH:MM,HH:MM> [on <mon,wed,...>] - Add a medication
• /meds - Show tracked medications
• /delmed <id> - Delete a medication and its history

*Doses:*
• /today [YYYY-MM-DD] - Show the day's doses with tap-to-mark buttons
• /mark <id> <HH:MM> <taken/missed/clear> [YYYY-MM-DD] - Mark a dose

*Analytics:*
• /stats [days] - Adherence report (default 30 days)
• /streak [days] - Longest and current taken-dose streaks
• /weekly [weeks] - Taken doses per week

_Examples:_
_/addmed Amoxicillin 500mg at 08:00,20:00_
_/addmed Vitamin D at 09:00 on mon,wed,fri_`

	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent help message")

	return nil
}
