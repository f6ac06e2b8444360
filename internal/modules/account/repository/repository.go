package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/pkg/apperror"
	"gorm.io/gorm"
)

// AccountRepository is the credential store for students and tutors.
// Lookups that find nothing return apperror.ErrNotFound and unique index
// violations return apperror.ErrConflict.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByIdx(ctx context.Context, idx uint) (*entity.Account, error)
	FindByLoginID(ctx context.Context, role entity.Role, loginID string) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) ([]entity.Account, error)
	FindByLoginIDAndEmail(ctx context.Context, loginID, email string) (*entity.Account, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*entity.Account, error)
	ExistsLoginID(ctx context.Context, loginID string) (bool, error)
	ExistsNickname(ctx context.Context, nickname string, excludeIdx uint) (bool, error)
	UpdateProfile(ctx context.Context, account *entity.Account) error
	UpdatePassword(ctx context.Context, idx uint, passwordHash string) error
	Delete(ctx context.Context, idx uint) error
	FindTutors(ctx context.Context, query string) ([]entity.Account, error)
	Ping(ctx context.Context) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, apperror.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, errors.Join(apperror.ErrPersistence, err))
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if account.ProfileImg == "" {
		account.ProfileImg = entity.DefaultProfileImg
	}
	if account.Provider == "" {
		account.Provider = entity.ProviderLocal
	}
	return translate("create account", r.db.WithContext(ctx).Create(account).Error)
}

// first returns the lowest-idx match. Find with a slice keeps a miss out of
// the gorm logger, which First reports as a record-not-found error.
func (r *accountRepository) first(ctx context.Context, op string, query any, args ...any) (*entity.Account, error) {
	var accounts []entity.Account
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("idx").
		Limit(1).
		Find(&accounts).Error
	if err != nil {
		return nil, translate(op, err)
	}
	if len(accounts) == 0 {
		return nil, apperror.ErrNotFound
	}
	return &accounts[0], nil
}

func (r *accountRepository) FindByIdx(ctx context.Context, idx uint) (*entity.Account, error) {
	return r.first(ctx, "find account", "idx = ?", idx)
}

func (r *accountRepository) FindByLoginID(ctx context.Context, role entity.Role, loginID string) (*entity.Account, error) {
	return r.first(ctx, "find account by id", "role = ? AND login_id = ?", role, loginID)
}

// FindByEmail returns students before tutors.
func (r *accountRepository) FindByEmail(ctx context.Context, email string) ([]entity.Account, error) {
	var accounts []entity.Account
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order(gorm.Expr("CASE WHEN role = ? THEN 0 ELSE 1 END", entity.RoleStudent)).
		Order("idx").
		Find(&accounts).Error
	if err != nil {
		return nil, translate("find accounts by email", err)
	}
	return accounts, nil
}

func (r *accountRepository) FindByLoginIDAndEmail(ctx context.Context, loginID, email string) (*entity.Account, error) {
	return r.first(ctx, "find account by id and email", "login_id = ? AND email = ?", loginID, email)
}

func (r *accountRepository) FindByProvider(ctx context.Context, provider, providerID string) (*entity.Account, error) {
	return r.first(ctx, "find account by provider", "provider = ? AND provider_id = ?", provider, providerID)
}

func (r *accountRepository) ExistsLoginID(ctx context.Context, loginID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("login_id = ?", loginID).
		Count(&count).Error
	if err != nil {
		return false, translate("check login id", err)
	}
	return count > 0, nil
}

// ExistsNickname ignores the account excludeIdx so an unchanged nickname is
// not reported as taken by its owner. Pass 0 to check all accounts.
func (r *accountRepository) ExistsNickname(ctx context.Context, nickname string, excludeIdx uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&entity.Account{}).Where("nickname = ?", nickname)
	if excludeIdx != 0 {
		q = q.Where("idx <> ?", excludeIdx)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, translate("check nickname", err)
	}
	return count > 0, nil
}

func (r *accountRepository) UpdateProfile(ctx context.Context, account *entity.Account) error {
	res := r.db.WithContext(ctx).Model(&entity.Account{Idx: account.Idx}).
		Select("nickname", "profile_img", "description", "price", "des_video", "level").
		Updates(account)
	if res.Error != nil {
		return translate("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *accountRepository) UpdatePassword(ctx context.Context, idx uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("idx = ?", idx).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return translate("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// Delete removes the account together with every favorite that references it.
func (r *accountRepository) Delete(ctx context.Context, idx uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_idx = ? OR tutor_idx = ?", idx, idx).
			Delete(&entity.Favorite{}).Error; err != nil {
			return translate("delete favorites", err)
		}

		res := tx.Delete(&entity.Account{}, "idx = ?", idx)
		if res.Error != nil {
			return translate("delete account", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		return nil
	})
}

// FindTutors lists tutors, filtered by a case-insensitive substring of the
// description when query is not empty.
func (r *accountRepository) FindTutors(ctx context.Context, query string) ([]entity.Account, error) {
	q := r.db.WithContext(ctx).Where("role = ?", entity.RoleTutor)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("description ILIKE ?", "%"+escapeLike(query)+"%")
	}

	var tutors []entity.Account
	if err := q.Order("idx").Find(&tutors).Error; err != nil {
		return nil, translate("find tutors", err)
	}
	return tutors, nil
}

func (r *accountRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
