package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/cache"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionService binds a signed cookie token to a principal stored in Redis.
// The token carries only the session id, so deleting the Redis record revokes
// it immediately.
type SessionService interface {
	Create(ctx context.Context, principal entity.Principal) (string, error)
	Resolve(ctx context.Context, token string) (*entity.Principal, error)
	Destroy(ctx context.Context, token string) error
	DestroyAll(ctx context.Context, accountIdx uint) error
	TTL() time.Duration
}

type sessionService struct {
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionService(rdb *redis.Client, secret string, ttl time.Duration) SessionService {
	return &sessionService{
		rdb:    rdb,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func sessionKey(sid string) string {
	return "session:" + sid
}

func accountSessionsKey(accountIdx uint) string {
	return "account_sessions:" + strconv.FormatUint(uint64(accountIdx), 10)
}

func (s *sessionService) TTL() time.Duration {
	return s.ttl
}

func (s *sessionService) Create(ctx context.Context, principal entity.Principal) (string, error) {
	sid := uuid.NewString()
	now := s.now()

	claims := jwt.RegisteredClaims{
		ID:        sid,
		Subject:   principal.LoginID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := cache.SetJSON(ctx, s.rdb, sessionKey(sid), principal, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.SAdd(ctx, accountSessionsKey(principal.AccountIdx), sid)
	pipe.Expire(ctx, accountSessionsKey(principal.AccountIdx), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to index session: %w", err)
	}

	return signed, nil
}

func (s *sessionService) parse(token string) (string, error) {
	if token == "" {
		return "", apperror.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", apperror.ErrUnauthorized
	}

	return claims.ID, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*entity.Principal, error) {
	sid, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	var principal entity.Principal
	found, err := cache.GetJSON(ctx, s.rdb, sessionKey(sid), &principal)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return nil, apperror.ErrUnauthorized
	}

	return &principal, nil
}

func (s *sessionService) Destroy(ctx context.Context, token string) error {
	sid, err := s.parse(token)
	if err != nil {
		return err
	}

	var principal entity.Principal
	found, err := cache.Take(ctx, s.rdb, sessionKey(sid), &principal)
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	if !found {
		return apperror.ErrUnauthorized
	}

	if err := s.rdb.SRem(ctx, accountSessionsKey(principal.AccountIdx), sid).Err(); err != nil {
		return fmt.Errorf("failed to unindex session: %w", err)
	}
	return nil
}

// DestroyAll revokes every session of an account, e.g. after deletion.
func (s *sessionService) DestroyAll(ctx context.Context, accountIdx uint) error {
	setKey := accountSessionsKey(accountIdx)

	sids, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range sids {
		pipe.Del(ctx, sessionKey(sid))
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to destroy sessions: %w", err)
	}
	return nil
}
