package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/internal/modules/account/dto"
	"anoa.com/handchatter/internal/modules/account/repository"
	search "anoa.com/handchatter/internal/modules/search/service"
	session "anoa.com/handchatter/internal/modules/session/service"
	signupRepo "anoa.com/handchatter/internal/modules/signup/repository"
	"anoa.com/handchatter/pkg/apperror"
	commonDto "anoa.com/handchatter/pkg/dto"
	"anoa.com/handchatter/pkg/logger"
	"anoa.com/handchatter/pkg/password"
	"anoa.com/handchatter/pkg/sanitize"
	"anoa.com/handchatter/pkg/storage"
	"anoa.com/handchatter/pkg/validator"
	"github.com/sirupsen/logrus"
)

type AccountService interface {
	Signup(ctx context.Context, role entity.Role, input dto.SignupInput, ticketID string, document *commonDto.UploadFile) error
	Login(ctx context.Context, role entity.Role, input dto.LoginInput) (*dto.LoginResult, error)
	Logout(ctx context.Context, token string) error
	GetInfo(ctx context.Context, principal *entity.Principal) (*entity.Account, error)
	EditProfile(ctx context.Context, role entity.Role, principal *entity.Principal, input dto.EditProfileInput, image *commonDto.UploadFile) error
	ChangePassword(ctx context.Context, role entity.Role, principal *entity.Principal, input dto.ChangePasswordInput) error
	Delete(ctx context.Context, role entity.Role, principal *entity.Principal, input dto.DeleteAccountInput) (*dto.DeleteResult, error)
}

type Options struct {
	// RequireTicket enforces duplicate checks and email verification on
	// signup through the signup ticket.
	RequireTicket bool
}

type accountService struct {
	repo     repository.AccountRepository
	sessions session.SessionService
	tickets  signupRepo.TicketStore
	index    search.TutorIndex
	images   storage.ImageStorage
	docs     storage.DocumentStorage
	opts     Options
}

func NewAccountService(
	repo repository.AccountRepository,
	sessions session.SessionService,
	tickets signupRepo.TicketStore,
	index search.TutorIndex,
	images storage.ImageStorage,
	docs storage.DocumentStorage,
	opts Options,
) AccountService {
	return &accountService{
		repo:     repo,
		sessions: sessions,
		tickets:  tickets,
		index:    index,
		images:   images,
		docs:     docs,
		opts:     opts,
	}
}

func accountLog() *logrus.Entry {
	return logger.WithComponent("account")
}

func (s *accountService) Signup(ctx context.Context, role entity.Role, input dto.SignupInput, ticketID string, document *commonDto.UploadFile) error {
	loginID := strings.TrimSpace(input.ID)
	nickname := strings.TrimSpace(input.Nickname)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if s.opts.RequireTicket {
		ticket, err := s.tickets.Get(ctx, ticketID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		if ticket == nil || ticket.CheckedID == "" || ticket.CheckedID != loginID ||
			ticket.CheckedNickname == "" || ticket.CheckedNickname != nickname {
			return ErrDuplicateCheckRequired
		}
		if ticket.VerifiedEmail == "" || ticket.VerifiedEmail != email {
			return ErrEmailNotVerified
		}
	}

	if loginID == "" || nickname == "" || input.Password == "" || email == "" {
		return ErrMissingFields
	}
	if !validator.IsEmail(email) {
		return ErrInvalidEmail
	}
	if role == entity.RoleTutor && document == nil {
		return ErrDocumentRequired
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return err
	}

	account := &entity.Account{
		Role:         role,
		LoginID:      loginID,
		Nickname:     nickname,
		PasswordHash: hash,
		Email:        email,
		Provider:     entity.ProviderLocal,
		ProfileImg:   entity.DefaultProfileImg,
	}

	if role == entity.RoleTutor {
		key, err := s.docs.UploadDocument(ctx, document.Reader, document.FileName, document.ContentType)
		if err != nil {
			return err
		}
		account.CredentialDoc = key
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if account.CredentialDoc != "" {
			if delErr := s.docs.DeleteDocument(ctx, account.CredentialDoc); delErr != nil {
				accountLog().WithError(delErr).Warn("failed to remove orphaned credential document")
			}
		}
		if errors.Is(err, apperror.ErrConflict) {
			return ErrAccountTaken
		}
		return err
	}

	if s.opts.RequireTicket {
		if err := s.tickets.Consume(ctx, ticketID); err != nil {
			accountLog().WithError(err).Warn("failed to consume signup ticket")
		}
	}

	if account.IsTutor() {
		if err := s.index.IndexTutor(account); err != nil {
			accountLog().WithError(err).Warn("failed to index tutor")
		}
	}

	accountLog().WithFields(logrus.Fields{"role": role, "idx": account.Idx}).Info("account created")
	return nil
}

func (s *accountService) Login(ctx context.Context, role entity.Role, input dto.LoginInput) (*dto.LoginResult, error) {
	loginID := strings.TrimSpace(input.ID)
	if loginID == "" || input.Password == "" {
		return nil, ErrBlankInput
	}

	account, err := s.repo.FindByLoginID(ctx, role, loginID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if err := password.Compare(account.PasswordHash, input.Password); err != nil {
		return nil, ErrPasswordMismatch
	}

	principal := entity.Principal{Role: account.Role, AccountIdx: account.Idx, LoginID: account.LoginID}
	token, err := s.sessions.Create(ctx, principal)
	if err != nil {
		return nil, err
	}

	searchToken, err := s.index.GenerateSearchToken()
	if err != nil {
		accountLog().WithError(err).Warn("failed to generate search token")
	}

	return &dto.LoginResult{Principal: principal, Token: token, SearchToken: searchToken}, nil
}

func (s *accountService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

func (s *accountService) GetInfo(ctx context.Context, principal *entity.Principal) (*entity.Account, error) {
	if principal == nil {
		return nil, apperror.ErrUnauthorized
	}

	account, err := s.repo.FindByIdx(ctx, principal.AccountIdx)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrUnauthorized
	}
	return account, err
}

// confirmPassword re-checks the current password of a local account. Kakao
// accounts carry a random hash their owner never saw, so the session alone
// vouches for them.
func confirmPassword(account *entity.Account, plain string) error {
	if account.Provider == entity.ProviderKakao {
		return nil
	}
	if plain == "" {
		return ErrMissingFields
	}
	if err := password.Compare(account.PasswordHash, plain); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// owned loads the principal's account after checking it matches the role of
// the route.
func (s *accountService) owned(ctx context.Context, role entity.Role, principal *entity.Principal) (*entity.Account, error) {
	if principal == nil {
		return nil, apperror.ErrUnauthorized
	}
	if principal.Role != role {
		return nil, apperror.Wrap(apperror.ErrForbidden, string(role)+" access required")
	}
	return s.GetInfo(ctx, principal)
}

func (s *accountService) EditProfile(ctx context.Context, role entity.Role, principal *entity.Principal, input dto.EditProfileInput, image *commonDto.UploadFile) error {
	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" || (role == entity.RoleTutor && input.Price == nil) {
		return ErrMissingFields
	}

	account, err := s.owned(ctx, role, principal)
	if err != nil {
		return err
	}

	if err := confirmPassword(account, input.Password); err != nil {
		return err
	}

	if nickname != account.Nickname {
		taken, err := s.repo.ExistsNickname(ctx, nickname, account.Idx)
		if err != nil {
			return err
		}
		if taken {
			return ErrNicknameTaken
		}
		account.Nickname = nickname
	}

	oldImage := account.ProfileImg
	if image != nil {
		url, err := s.images.UploadImage(ctx, image.Reader, image.FileName)
		if err != nil {
			return err
		}
		account.ProfileImg = url
	}

	if account.IsTutor() {
		account.Level = strings.TrimSpace(input.Level)
		account.Price = *input.Price
		account.DesVideo = strings.TrimSpace(input.DesVideo)
		account.Description = sanitize.Text(input.Description)
	}

	if err := s.repo.UpdateProfile(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return ErrNicknameTaken
		}
		return err
	}

	if image != nil && storage.ExtractPublicID(oldImage) != "" {
		if err := s.images.DeleteImage(ctx, oldImage); err != nil {
			accountLog().WithError(err).Warn("failed to delete previous profile image")
		}
	}

	if account.IsTutor() {
		if err := s.index.IndexTutor(account); err != nil {
			accountLog().WithError(err).Warn("failed to reindex tutor")
		}
	}
	return nil
}

func (s *accountService) ChangePassword(ctx context.Context, role entity.Role, principal *entity.Principal, input dto.ChangePasswordInput) error {
	if input.NewPassword == "" {
		return ErrMissingFields
	}

	account, err := s.owned(ctx, role, principal)
	if err != nil {
		return err
	}

	if err := confirmPassword(account, input.Password); err != nil {
		return err
	}

	hash, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, account.Idx, hash)
}

func (s *accountService) Delete(ctx context.Context, role entity.Role, principal *entity.Principal, input dto.DeleteAccountInput) (*dto.DeleteResult, error) {
	if principal == nil {
		return nil, apperror.ErrUnauthorized
	}
	if principal.Role != role {
		return nil, apperror.Wrap(apperror.ErrForbidden, string(role)+" access required")
	}
	if strings.TrimSpace(input.ID) != principal.LoginID {
		return nil, ErrIDMismatch
	}

	account, err := s.GetInfo(ctx, principal)
	if err != nil {
		return nil, err
	}
	if err := confirmPassword(account, input.Password); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, account.Idx); err != nil {
		return nil, err
	}

	entry := accountLog().WithField("idx", account.Idx)
	if account.IsTutor() {
		if err := s.index.DeleteTutor(account.Idx); err != nil {
			entry.WithError(err).Warn("failed to remove tutor from search index")
		}
		if err := s.docs.DeleteDocument(ctx, account.CredentialDoc); err != nil {
			entry.WithError(err).Warn("failed to delete credential document")
		}
	}
	if storage.ExtractPublicID(account.ProfileImg) != "" {
		if err := s.images.DeleteImage(ctx, account.ProfileImg); err != nil {
			entry.WithError(err).Warn("failed to delete profile image")
		}
	}

	result := &dto.DeleteResult{SessionCleared: true}
	if err := s.sessions.DestroyAll(ctx, account.Idx); err != nil {
		entry.WithError(err).Error("account deleted but sessions could not be destroyed")
		result.SessionCleared = false
	}

	entry.Info("account deleted")
	return result, nil
}
