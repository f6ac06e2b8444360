package service

import (
	"context"
	"testing"

	"anoa.com/handchatter/internal/entity"
	signupRepo "anoa.com/handchatter/internal/modules/signup/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailable(t *testing.T) {
	e := newEnv(t)
	e.repo.seed(t, entity.RoleTutor, "bob", "Bobby", "pw", "b@x.com")
	svc := NewAvailabilityService(e.repo, e.tickets)
	ctx := context.Background()

	tests := []struct {
		name  string
		field signupRepo.Field
		value string
		want  bool
	}{
		{"free id", signupRepo.FieldID, "alice", true},
		{"id taken by other role", signupRepo.FieldID, "bob", false},
		{"id trimmed", signupRepo.FieldID, "  bob ", false},
		{"free nickname", signupRepo.FieldNickname, "Ally", true},
		{"nickname taken", signupRepo.FieldNickname, "Bobby", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.CheckAvailable(ctx, tt.field, tt.value, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err := svc.CheckAvailable(ctx, signupRepo.FieldID, "   ", "")
	assert.ErrorIs(t, err, ErrBlankInput)
}

func TestCheckAvailable_RecordsOnTicket(t *testing.T) {
	e := newEnv(t)
	e.repo.seed(t, entity.RoleStudent, "bob", "Bobby", "pw", "b@x.com")
	svc := NewAvailabilityService(e.repo, e.tickets)
	ctx := context.Background()

	ticketID, err := e.tickets.Issue(ctx)
	require.NoError(t, err)

	ok, err := svc.CheckAvailable(ctx, signupRepo.FieldID, "alice", ticketID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.CheckAvailable(ctx, signupRepo.FieldNickname, "Ally", ticketID)
	require.NoError(t, err)
	require.True(t, ok)

	ticket, err := e.tickets.Get(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, "alice", ticket.CheckedID)
	assert.Equal(t, "Ally", ticket.CheckedNickname)

	// a later failed check invalidates the earlier pass
	ok, err = svc.CheckAvailable(ctx, signupRepo.FieldID, "bob", ticketID)
	require.NoError(t, err)
	assert.False(t, ok)

	ticket, err = e.tickets.Get(ctx, ticketID)
	require.NoError(t, err)
	assert.Empty(t, ticket.CheckedID)
	assert.Equal(t, "Ally", ticket.CheckedNickname)
}

func TestCheckAvailable_UnknownTicketIgnored(t *testing.T) {
	e := newEnv(t)
	svc := NewAvailabilityService(e.repo, e.tickets)

	ok, err := svc.CheckAvailable(context.Background(), signupRepo.FieldID, "alice", "missing")
	require.NoError(t, err)
	assert.True(t, ok)
}
