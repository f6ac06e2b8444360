package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/internal/modules/favorite/dto"
	"anoa.com/handchatter/pkg/apperror"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	Add(ctx context.Context, studentIdx, tutorIdx uint) (*entity.Favorite, error)
	Remove(ctx context.Context, studentIdx, tutorIdx uint) error
	ListTutors(ctx context.Context, studentIdx uint) ([]dto.FavoriteTutor, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, studentIdx, tutorIdx uint) (*entity.Favorite, error) {
	favorite := &entity.Favorite{StudentIdx: studentIdx, TutorIdx: tutorIdx}

	err := r.db.WithContext(ctx).Create(favorite).Error
	switch {
	case err == nil:
		return favorite, nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, apperror.Wrap(apperror.ErrConflict, "tutor is already in favorites")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return nil, apperror.Wrap(apperror.ErrNotFound, "tutor not found")
	}
	return nil, fmt.Errorf("add favorite: %w", errors.Join(apperror.ErrPersistence, err))
}

func (r *favoriteRepository) Remove(ctx context.Context, studentIdx, tutorIdx uint) error {
	result := r.db.WithContext(ctx).
		Where("student_idx = ? AND tutor_idx = ?", studentIdx, tutorIdx).
		Delete(&entity.Favorite{})
	if result.Error != nil {
		return fmt.Errorf("remove favorite: %w", errors.Join(apperror.ErrPersistence, result.Error))
	}
	if result.RowsAffected == 0 {
		return apperror.Wrap(apperror.ErrNotFound, "favorite not found")
	}
	return nil
}

// ListTutors returns the student's favorite tutors in the order they were added.
func (r *favoriteRepository) ListTutors(ctx context.Context, studentIdx uint) ([]dto.FavoriteTutor, error) {
	tutors := []dto.FavoriteTutor{}
	err := r.db.WithContext(ctx).
		Table("favorites").
		Select("accounts.idx AS tutor_idx, accounts.nickname, accounts.description, accounts.profile_img, accounts.price").
		Joins("JOIN accounts ON accounts.idx = favorites.tutor_idx").
		Where("favorites.student_idx = ?", studentIdx).
		Order("favorites.id").
		Scan(&tutors).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", errors.Join(apperror.ErrPersistence, err))
	}
	return tutors, nil
}
