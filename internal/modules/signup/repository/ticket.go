package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Field names a signup value that must be checked for duplicates.
type Field string

const (
	FieldID       Field = "id"
	FieldNickname Field = "nickname"
)

// Ticket records the signup form progress of one browser.
type Ticket struct {
	CheckedID       string `json:"checked_id"`
	CheckedNickname string `json:"checked_nickname"`
	VerifiedEmail   string `json:"verified_email"`
}

type TicketStore interface {
	Issue(ctx context.Context) (string, error)
	Get(ctx context.Context, ticketID string) (*Ticket, error)
	MarkChecked(ctx context.Context, ticketID string, field Field, value string) error
	MarkEmailVerified(ctx context.Context, ticketID, email string) error
	Consume(ctx context.Context, ticketID string) error
	TTL() time.Duration
}

type ticketStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTicketStore(rdb *redis.Client, ttl time.Duration) TicketStore {
	return &ticketStore{rdb: rdb, ttl: ttl}
}

func ticketKey(id string) string {
	return "signup:" + id
}

func (s *ticketStore) TTL() time.Duration {
	return s.ttl
}

func (s *ticketStore) Issue(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := cache.SetJSON(ctx, s.rdb, ticketKey(id), Ticket{}, s.ttl); err != nil {
		return "", fmt.Errorf("failed to issue signup ticket: %w", err)
	}
	return id, nil
}

func (s *ticketStore) Get(ctx context.Context, ticketID string) (*Ticket, error) {
	if ticketID == "" {
		return nil, apperror.ErrNotFound
	}

	var t Ticket
	found, err := cache.GetJSON(ctx, s.rdb, ticketKey(ticketID), &t)
	if err != nil {
		return nil, fmt.Errorf("failed to load signup ticket: %w", err)
	}
	if !found {
		return nil, apperror.ErrNotFound
	}
	return &t, nil
}

// MarkChecked records value as duplicate-checked. An empty value clears the
// field. Unknown or expired tickets are ignored.
func (s *ticketStore) MarkChecked(ctx context.Context, ticketID string, field Field, value string) error {
	return s.update(ctx, ticketID, func(t *Ticket) {
		switch field {
		case FieldID:
			t.CheckedID = value
		case FieldNickname:
			t.CheckedNickname = value
		}
	})
}

func (s *ticketStore) MarkEmailVerified(ctx context.Context, ticketID, email string) error {
	return s.update(ctx, ticketID, func(t *Ticket) {
		t.VerifiedEmail = email
	})
}

func (s *ticketStore) Consume(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return nil
	}
	return s.rdb.Del(ctx, ticketKey(ticketID)).Err()
}

func (s *ticketStore) update(ctx context.Context, ticketID string, mutate func(*Ticket)) error {
	if ticketID == "" {
		return nil
	}

	t, err := s.Get(ctx, ticketID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	mutate(t)
	if _, err := cache.UpdateJSON(ctx, s.rdb, ticketKey(ticketID), t); err != nil {
		return fmt.Errorf("failed to update signup ticket: %w", err)
	}
	return nil
}
