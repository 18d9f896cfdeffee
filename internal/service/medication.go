package service

import (
	"context"
	"fmt"

	"github.com/Kerhoff/DoseboT/internal/models"
)

// CreateMedication validates the medication's schedule and persists it.
// Validation fails closed: nothing is stored unless the schedule builds a
// usable rule.
func (s *Service) CreateMedication(ctx context.Context, med *models.Medication) (*models.Medication, error) {
	if med.Name == "" {
		return nil, fmt.Errorf("medication name is required")
	}
	if _, err := med.ScheduleRule(); err != nil {
		return nil, err
	}

	med, err := s.Medications.Create(ctx, med)
	if err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	s.logger.Infof("Created medication %q (id=%d, chat_id=%d)", med.Name, med.ID, med.ChatID)
	return med, nil
}

// DeleteMedication removes a medication and its dose history after checking
// it belongs to the chat.
func (s *Service) DeleteMedication(ctx context.Context, chatID, medicationID int64) error {
	med, err := s.Medications.GetByID(ctx, medicationID)
	if err != nil {
		return fmt.Errorf("failed to get medication %d: %w", medicationID, err)
	}
	if med == nil || med.ChatID != chatID {
		return fmt.Errorf("medication %d not found in this chat", medicationID)
	}

	if err := s.Overrides.DeleteByMedicationID(ctx, medicationID); err != nil {
		return err
	}
	if err := s.Medications.Delete(ctx, medicationID); err != nil {
		return err
	}

	s.logger.Infof("Deleted medication %q (id=%d, chat_id=%d)", med.Name, med.ID, chatID)
	return nil
}
