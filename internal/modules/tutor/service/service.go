package service

import (
	"context"
	"errors"
	"strings"

	accountRepo "anoa.com/handchatter/internal/modules/account/repository"
	"anoa.com/handchatter/internal/modules/tutor/dto"
	"anoa.com/handchatter/pkg/apperror"
)

var (
	ErrNoTutors      = apperror.Wrap(apperror.ErrNotFound, "no tutors found")
	ErrTutorNotFound = apperror.Wrap(apperror.ErrNotFound, "tutor not found")
)

// CatalogService is the public tutor listing.
type CatalogService interface {
	// List returns every tutor, or those whose description contains query.
	List(ctx context.Context, query string) ([]dto.TutorCard, error)
	Detail(ctx context.Context, tutorIdx uint) (*dto.TutorCard, error)
}

type catalogService struct {
	accounts accountRepo.AccountRepository
}

func NewCatalogService(accounts accountRepo.AccountRepository) CatalogService {
	return &catalogService{accounts: accounts}
}

func (s *catalogService) List(ctx context.Context, query string) ([]dto.TutorCard, error) {
	tutors, err := s.accounts.FindTutors(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	if len(tutors) == 0 {
		return nil, ErrNoTutors
	}

	cards := make([]dto.TutorCard, 0, len(tutors))
	for i := range tutors {
		cards = append(cards, dto.NewTutorCard(&tutors[i]))
	}
	return cards, nil
}

func (s *catalogService) Detail(ctx context.Context, tutorIdx uint) (*dto.TutorCard, error) {
	account, err := s.accounts.FindByIdx(ctx, tutorIdx)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrTutorNotFound
		}
		return nil, err
	}
	if !account.IsTutor() {
		return nil, ErrTutorNotFound
	}

	card := dto.NewTutorCard(account)
	return &card, nil
}
