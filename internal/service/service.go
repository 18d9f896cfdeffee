package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/DoseboT/internal/models"
	"github.com/Kerhoff/DoseboT/internal/repository"
	"github.com/sirupsen/logrus"
)

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	db          *sql.DB
	logger      *logrus.Logger
	Users       repository.UserRepository
	Medications repository.MedicationRepository
	Overrides   repository.DoseOverrideRepository

	now func() time.Time
}

// New creates a new Service with all required dependencies.
func New(db *sql.DB, logger *logrus.Logger,
	users repository.UserRepository,
	medications repository.MedicationRepository,
	overrides repository.DoseOverrideRepository,
) *Service {
	return &Service{
		db: db, logger: logger,
		Users: users, Medications: medications, Overrides: overrides,
		now: time.Now,
	}
}

// EnsureUser retrieves an existing user by Telegram ID, or creates a new one
// if not found. If the user already exists but their profile information has
// changed (username, first name, last name), it updates the record.
func (s *Service) EnsureUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	user, err := s.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", telegramID, err)
	}
	if user == nil {
		// User does not exist yet — create a new record.
		now := s.now()
		user = &models.User{
			TelegramID:       telegramID,
			TelegramUsername: username,
			FirstName:        firstName,
			LastName:         lastName,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		user, err = s.Users.Create(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to create user (telegram_id=%d): %w",
				telegramID, err)
		}
		s.logger.Infof("Created new user: %s (telegram_id=%d)", user.DisplayName(), telegramID)
		return user, nil
	}

	// User exists (not nil, no error) — check whether any profile fields need updating.
	needsUpdate := false
	if user.TelegramUsername != username {
		user.TelegramUsername = username
		needsUpdate = true
	}
	if user.FirstName != firstName {
		user.FirstName = firstName
		needsUpdate = true
	}
	if user.LastName != lastName {
		user.LastName = lastName
		needsUpdate = true
	}

	if needsUpdate {
		user.UpdatedAt = s.now()
		user, err = s.Users.Update(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to update user %d: %w", user.ID, err)
		}
		s.logger.Infof("Updated user profile: %s (telegram_id=%d)", user.DisplayName(), telegramID)
	}

	return user, nil
}
