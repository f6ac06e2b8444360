package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/handchatter/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*miniredis.Miniredis, TicketStore) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewTicketStore(rdb, 30*time.Minute)
}

func TestTicketLifecycle(t *testing.T) {
	mr, store := newStore(t)
	ctx := context.Background()

	id, err := store.Issue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mr.TTL("signup:"+id))

	require.NoError(t, store.MarkChecked(ctx, id, FieldID, "alice"))
	require.NoError(t, store.MarkChecked(ctx, id, FieldNickname, "Ally"))
	require.NoError(t, store.MarkEmailVerified(ctx, id, "a@x.com"))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Ticket{CheckedID: "alice", CheckedNickname: "Ally", VerifiedEmail: "a@x.com"}, *got)
	assert.Equal(t, 30*time.Minute, mr.TTL("signup:"+id))

	require.NoError(t, store.MarkChecked(ctx, id, FieldID, ""))
	got, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.CheckedID)

	require.NoError(t, store.Consume(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTicket_UnknownIsIgnored(t *testing.T) {
	mr, store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.MarkChecked(ctx, "", FieldID, "alice"))
	require.NoError(t, store.MarkEmailVerified(ctx, "missing", "a@x.com"))
	assert.Empty(t, mr.Keys())

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTicket_Expires(t *testing.T) {
	mr, store := newStore(t)
	ctx := context.Background()

	id, err := store.Issue(ctx)
	require.NoError(t, err)

	mr.FastForward(31 * time.Minute)

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
