package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anoa.com/handchatter/internal/modules/account/repository"
	session "anoa.com/handchatter/internal/modules/session/service"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/cache"
	"anoa.com/handchatter/pkg/mailer"
	"anoa.com/handchatter/pkg/password"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	resetTokenTTL    = 15 * time.Minute
	resetMailSubject = "[Hand Chatter] Password reset"
)

// RecoveryService finds forgotten identifiers and resets passwords.
type RecoveryService interface {
	SearchID(ctx context.Context, email string) (string, error)
	// SearchPassword mails a single-use reset link to the account when id
	// and email belong to the same account. The token never leaves by any
	// other route.
	SearchPassword(ctx context.Context, id, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type resetTicket struct {
	AccountIdx uint `json:"account_idx"`
}

type recoveryService struct {
	repo     repository.AccountRepository
	sessions session.SessionService
	rdb      *redis.Client
	sender   mailer.Sender
	resetURL string
}

// NewRecoveryService mails reset links pointing at resetURL with the token
// appended as a query parameter.
func NewRecoveryService(repo repository.AccountRepository, sessions session.SessionService, rdb *redis.Client, sender mailer.Sender, resetURL string) RecoveryService {
	return &recoveryService{repo: repo, sessions: sessions, rdb: rdb, sender: sender, resetURL: resetURL}
}

func resetKey(token string) string {
	return "pwreset:" + token
}

func (s *recoveryService) SearchID(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrBlankInput
	}

	accounts, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", apperror.New(http.StatusBadRequest, "no account uses this email", apperror.ErrNotFound)
	}
	return accounts[0].LoginID, nil
}

func (s *recoveryService) SearchPassword(ctx context.Context, id, email string) error {
	id = strings.TrimSpace(id)
	email = strings.ToLower(strings.TrimSpace(email))
	if id == "" || email == "" {
		return ErrBlankInput
	}

	account, err := s.repo.FindByLoginIDAndEmail(ctx, id, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.New(http.StatusBadRequest, "invalid id or email", apperror.ErrNotFound)
		}
		return err
	}

	token := uuid.NewString()
	if err := cache.SetJSON(ctx, s.rdb, resetKey(token), resetTicket{AccountIdx: account.Idx}, resetTokenTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := s.resetURL + "?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(
		"<h2>Password reset</h2><p>Open the link below within %d minutes to choose a new password.</p><p><a href=\"%s\">%s</a></p>",
		int(resetTokenTTL.Minutes()), link, link,
	)
	if err := s.sender.Send(ctx, account.Email, resetMailSubject, body); err != nil {
		_ = s.rdb.Del(ctx, resetKey(token)).Err()
		accountLog().WithError(err).WithField("account_idx", account.Idx).Error("failed to send password reset email")
		return apperror.New(http.StatusInternalServerError, "failed to send password reset email", errors.Join(apperror.ErrMailDelivery, err))
	}
	return nil
}

func (s *recoveryService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}

	var ticket resetTicket
	found, err := cache.Take(ctx, s.rdb, resetKey(token), &ticket)
	if err != nil {
		return err
	}
	if !found {
		return ErrResetTokenInvalid
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, ticket.AccountIdx, hash); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	if err := s.sessions.DestroyAll(ctx, ticket.AccountIdx); err != nil {
		accountLog().WithError(err).Warn("failed to revoke sessions after password reset")
	}
	return nil
}
