package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	signupRepo "anoa.com/handchatter/internal/modules/signup/repository"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/cache"
	"anoa.com/handchatter/pkg/logger"
	"anoa.com/handchatter/pkg/mailer"
	"anoa.com/handchatter/pkg/validator"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	mailSubject = "[Hand Chatter] Email verification"

	codeBase  = 100_000
	codeRange = 1_000_000
)

var (
	ErrChallengeMismatch = apperror.New(http.StatusBadRequest, "verification code does not match", apperror.ErrBadRequest)
	ErrChallengeNotFound = apperror.New(http.StatusBadRequest, "no pending verification for this email", apperror.ErrNotFound)
)

// Challenge is the server-held verification code for one email address.
// Submissions are counted under a sibling key so concurrent guesses cannot
// share a stale count.
type Challenge struct {
	Code     int       `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

type Options struct {
	CodeTTL        time.Duration
	MaxAttempts    int
	ResendInterval time.Duration
}

type VerificationService interface {
	// IssueChallenge mails a fresh code to email and returns it.
	IssueChallenge(ctx context.Context, email string) (int, error)
	// VerifyChallenge consumes the pending challenge when submitted matches.
	// A non-empty ticketID is marked as having verified email.
	VerifyChallenge(ctx context.Context, email string, submitted int, ticketID string) error
}

type verificationService struct {
	rdb     *redis.Client
	sender  mailer.Sender
	tickets signupRepo.TicketStore
	opts    Options
	genCode func() (int, error)
	now     func() time.Time
}

func NewVerificationService(rdb *redis.Client, sender mailer.Sender, tickets signupRepo.TicketStore, opts Options) VerificationService {
	return &verificationService{
		rdb:     rdb,
		sender:  sender,
		tickets: tickets,
		opts:    opts,
		genCode: GenerateCode,
		now:     time.Now,
	}
}

// GenerateCode returns a code in [100000, 1099999].
func GenerateCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + codeBase, nil
}

// CheckChallenge reports whether submitted equals expected. A zero
// submission never matches.
func CheckChallenge(submitted, expected int) bool {
	return submitted != 0 && submitted == expected
}

func challengeKey(email string) string {
	return "verification:email:" + email
}

func attemptsKey(email string) string {
	return "verification:attempts:" + email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *verificationService) IssueChallenge(ctx context.Context, email string) (int, error) {
	email = normalizeEmail(email)
	if !validator.IsEmail(email) {
		return 0, apperror.Wrap(apperror.ErrInvalidInput, "invalid email address")
	}

	allowed, err := cache.CheckAndSetRateLimit(ctx, s.rdb, email, "verification_email", s.opts.ResendInterval)
	if err != nil {
		return 0, err
	}
	if !allowed {
		ttl, _ := cache.GetRateLimitTTL(ctx, s.rdb, email, "verification_email")
		return 0, apperror.Wrap(apperror.ErrRateLimitExceeded,
			fmt.Sprintf("please wait %d seconds before requesting another code", int(ttl.Seconds())))
	}

	code, err := s.genCode()
	if err != nil {
		return 0, fmt.Errorf("failed to generate verification code: %w", err)
	}

	body := fmt.Sprintf("<h2>Please enter the verification code</h2><h3>%d</h3>", code)
	if err := s.sender.Send(ctx, email, mailSubject, body); err != nil {
		logger.WithComponent("verification").WithError(err).WithField("email", email).Error("failed to send verification email")
		_ = cache.ClearRateLimit(ctx, s.rdb, email, "verification_email")
		return 0, apperror.New(http.StatusInternalServerError, "failed to send verification email", errors.Join(apperror.ErrMailDelivery, err))
	}

	challenge := Challenge{Code: code, IssuedAt: s.now()}
	if err := cache.SetJSON(ctx, s.rdb, challengeKey(email), challenge, s.opts.CodeTTL); err != nil {
		return 0, fmt.Errorf("failed to store verification challenge: %w", errors.Join(apperror.ErrPersistence, err))
	}
	if err := s.rdb.Set(ctx, attemptsKey(email), 0, s.opts.CodeTTL).Err(); err != nil {
		return 0, fmt.Errorf("failed to reset verification attempts: %w", errors.Join(apperror.ErrPersistence, err))
	}

	return code, nil
}

func (s *verificationService) VerifyChallenge(ctx context.Context, email string, submitted int, ticketID string) error {
	email = normalizeEmail(email)
	log := logger.WithComponent("verification").WithFields(logrus.Fields{"email": email})

	var challenge Challenge
	found, err := cache.GetJSON(ctx, s.rdb, challengeKey(email), &challenge)
	if err != nil {
		return err
	}
	if !found {
		return ErrChallengeNotFound
	}

	attempts, err := s.countAttempt(ctx, email)
	if err != nil {
		return err
	}
	if s.opts.MaxAttempts > 0 && attempts > int64(s.opts.MaxAttempts) {
		return apperror.Wrap(apperror.ErrTooManyAttempts, "too many wrong codes, request a new one")
	}

	if !CheckChallenge(submitted, challenge.Code) {
		log.WithField("attempts", attempts).Warn("verification code mismatch")
		return ErrChallengeMismatch
	}

	// Only the request that deletes the challenge wins.
	deleted, err := s.rdb.Del(ctx, challengeKey(email)).Result()
	if err != nil {
		return fmt.Errorf("failed to consume verification challenge: %w", err)
	}
	if deleted == 0 {
		return ErrChallengeNotFound
	}
	_ = s.rdb.Del(ctx, attemptsKey(email)).Err()

	if ticketID != "" && s.tickets != nil {
		if err := s.tickets.MarkEmailVerified(ctx, ticketID, email); err != nil {
			return err
		}
	}

	log.Info("email verified")
	return nil
}

// countAttempt records one submission before the code is compared.
func (s *verificationService) countAttempt(ctx context.Context, email string) (int64, error) {
	key := attemptsKey(email)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count verification attempt: %w", err)
	}
	if n == 1 {
		// Counter was missing, bound it by the challenge lifetime.
		if err := s.rdb.Expire(ctx, key, s.opts.CodeTTL).Err(); err != nil {
			return 0, fmt.Errorf("failed to expire verification attempts: %w", err)
		}
	}
	return n, nil
}
