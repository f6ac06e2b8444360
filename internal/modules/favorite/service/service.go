package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anoa.com/handchatter/internal/entity"
	accountRepo "anoa.com/handchatter/internal/modules/account/repository"
	"anoa.com/handchatter/internal/modules/favorite/dto"
	"anoa.com/handchatter/internal/modules/favorite/repository"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var ErrTutorNotFound = apperror.Wrap(apperror.ErrNotFound, "tutor not found")

// TutorEventsChannel is the Redis channel carrying events for one tutor.
func TutorEventsChannel(tutorIdx uint) string {
	return fmt.Sprintf("tutor_events:%d", tutorIdx)
}

// FavoriteService manages a student's favorite tutors. The student is always
// the session principal.
type FavoriteService interface {
	Add(ctx context.Context, principal *entity.Principal, tutorIdx uint) error
	Remove(ctx context.Context, principal *entity.Principal, tutorIdx uint) error
	List(ctx context.Context, principal *entity.Principal) ([]dto.FavoriteTutor, error)
}

type favoriteService struct {
	repo        repository.FavoriteRepository
	accounts    accountRepo.AccountRepository
	redisClient *redis.Client
	now         func() time.Time
}

func NewFavoriteService(repo repository.FavoriteRepository, accounts accountRepo.AccountRepository, redisClient *redis.Client) FavoriteService {
	return &favoriteService{
		repo:        repo,
		accounts:    accounts,
		redisClient: redisClient,
		now:         time.Now,
	}
}

func studentOf(principal *entity.Principal) (uint, error) {
	if principal == nil {
		return 0, apperror.ErrUnauthorized
	}
	if principal.Role != entity.RoleStudent {
		return 0, apperror.Wrap(apperror.ErrForbidden, "only students can keep favorites")
	}
	return principal.AccountIdx, nil
}

func (s *favoriteService) Add(ctx context.Context, principal *entity.Principal, tutorIdx uint) error {
	studentIdx, err := studentOf(principal)
	if err != nil {
		return err
	}

	tutor, err := s.accounts.FindByIdx(ctx, tutorIdx)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return ErrTutorNotFound
		}
		return err
	}
	if !tutor.IsTutor() {
		return ErrTutorNotFound
	}

	favorite, err := s.repo.Add(ctx, studentIdx, tutorIdx)
	if err != nil {
		return err
	}

	s.publish(ctx, principal, favorite)
	return nil
}

// publish notifies the tutor's event stream. Delivery is best effort.
func (s *favoriteService) publish(ctx context.Context, principal *entity.Principal, favorite *entity.Favorite) {
	if s.redisClient == nil {
		return
	}
	entry := logger.WithComponent("favorite").WithField("tutor_idx", favorite.TutorIdx)

	event := dto.FavoriteEvent{
		Type:      dto.EventFavoriteAdded,
		TutorIdx:  favorite.TutorIdx,
		CreatedAt: favorite.CreatedAt,
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if student, err := s.accounts.FindByIdx(ctx, principal.AccountIdx); err == nil {
		event.StudentNickname = student.Nickname
	}

	payload, err := json.Marshal(event)
	if err != nil {
		entry.WithError(err).Warn("failed to encode favorite event")
		return
	}
	if err := s.redisClient.Publish(ctx, TutorEventsChannel(favorite.TutorIdx), payload).Err(); err != nil {
		entry.WithError(err).Warn("failed to publish favorite event")
	}
}

func (s *favoriteService) Remove(ctx context.Context, principal *entity.Principal, tutorIdx uint) error {
	studentIdx, err := studentOf(principal)
	if err != nil {
		return err
	}
	return s.repo.Remove(ctx, studentIdx, tutorIdx)
}

func (s *favoriteService) List(ctx context.Context, principal *entity.Principal) ([]dto.FavoriteTutor, error) {
	studentIdx, err := studentOf(principal)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTutors(ctx, studentIdx)
}
