package service

import (
	"context"
	"strings"

	"anoa.com/handchatter/internal/modules/account/repository"
	signupRepo "anoa.com/handchatter/internal/modules/signup/repository"
	"anoa.com/handchatter/pkg/logger"
)

// AvailabilityService answers duplicate checks for identifiers and
// nicknames across both roles.
type AvailabilityService interface {
	// CheckAvailable reports whether value is unused. When ticketID names a
	// live signup ticket the result is recorded on it.
	CheckAvailable(ctx context.Context, field signupRepo.Field, value, ticketID string) (bool, error)
}

type availabilityService struct {
	repo    repository.AccountRepository
	tickets signupRepo.TicketStore
}

func NewAvailabilityService(repo repository.AccountRepository, tickets signupRepo.TicketStore) AvailabilityService {
	return &availabilityService{repo: repo, tickets: tickets}
}

func (s *availabilityService) CheckAvailable(ctx context.Context, field signupRepo.Field, value, ticketID string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, ErrBlankInput
	}

	var (
		taken bool
		err   error
	)
	switch field {
	case signupRepo.FieldNickname:
		taken, err = s.repo.ExistsNickname(ctx, value, 0)
	default:
		field = signupRepo.FieldID
		taken, err = s.repo.ExistsLoginID(ctx, value)
	}
	if err != nil {
		return false, err
	}

	if ticketID != "" && s.tickets != nil {
		checked := value
		if taken {
			checked = ""
		}
		if err := s.tickets.MarkChecked(ctx, ticketID, field, checked); err != nil {
			logger.WithComponent("account").WithError(err).Warn("failed to record duplicate check on signup ticket")
		}
	}

	return !taken, nil
}
