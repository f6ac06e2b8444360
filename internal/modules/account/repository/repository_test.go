package repository

import (
	"context"
	"testing"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/internal/testutil"
	"anoa.com/handchatter/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
}

func TestAccountRepository_Integration(t *testing.T) {
	db := testutil.NewPostgres(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	student := &entity.Account{Role: entity.RoleStudent, LoginID: "alice", Nickname: "Ally", PasswordHash: "h", Email: "a@x.com"}
	tutor := &entity.Account{Role: entity.RoleTutor, LoginID: "bob", Nickname: "Bobby", PasswordHash: "h", Email: "a@x.com",
		Description: "Korean sign language, 100% beginner friendly", Price: 20000}
	require.NoError(t, repo.Create(ctx, tutor))
	require.NoError(t, repo.Create(ctx, student))
	assert.Equal(t, entity.DefaultProfileImg, student.ProfileImg)

	t.Run("identifier unique across roles", func(t *testing.T) {
		dup := &entity.Account{Role: entity.RoleTutor, LoginID: "alice", Nickname: "Other", PasswordHash: "h", Email: "z@x.com"}
		assert.ErrorIs(t, repo.Create(ctx, dup), apperror.ErrConflict)
	})

	t.Run("nickname unique across roles", func(t *testing.T) {
		dup := &entity.Account{Role: entity.RoleStudent, LoginID: "carol", Nickname: "Bobby", PasswordHash: "h", Email: "z@x.com"}
		assert.ErrorIs(t, repo.Create(ctx, dup), apperror.ErrConflict)
	})

	t.Run("login lookup is role scoped", func(t *testing.T) {
		got, err := repo.FindByLoginID(ctx, entity.RoleStudent, "alice")
		require.NoError(t, err)
		assert.Equal(t, student.Idx, got.Idx)

		_, err = repo.FindByLoginID(ctx, entity.RoleTutor, "alice")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("exists checks", func(t *testing.T) {
		exists, err := repo.ExistsLoginID(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsNickname(ctx, "Ally", student.Idx)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsNickname(ctx, "Ally", 0)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("email lookup prefers students", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, entity.RoleStudent, got[0].Role)
	})

	t.Run("tutor search escapes wildcards", func(t *testing.T) {
		all, err := repo.FindTutors(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 1)

		hits, err := repo.FindTutors(ctx, "SIGN")
		require.NoError(t, err)
		assert.Len(t, hits, 1)

		hits, err = repo.FindTutors(ctx, "100%")
		require.NoError(t, err)
		assert.Len(t, hits, 1)

		hits, err = repo.FindTutors(ctx, "math")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("update profile and password", func(t *testing.T) {
		tutor.Nickname = "Bobster"
		tutor.Price = 0
		require.NoError(t, repo.UpdateProfile(ctx, tutor))
		require.NoError(t, repo.UpdatePassword(ctx, tutor.Idx, "new-hash"))

		got, err := repo.FindByIdx(ctx, tutor.Idx)
		require.NoError(t, err)
		assert.Equal(t, "Bobster", got.Nickname)
		assert.Equal(t, 0, got.Price)
		assert.Equal(t, "new-hash", got.PasswordHash)
	})

	t.Run("delete cascades favorites", func(t *testing.T) {
		require.NoError(t, db.Create(&entity.Favorite{StudentIdx: student.Idx, TutorIdx: tutor.Idx}).Error)

		require.NoError(t, repo.Delete(ctx, tutor.Idx))
		_, err := repo.FindByIdx(ctx, tutor.Idx)
		assert.ErrorIs(t, err, apperror.ErrNotFound)

		var count int64
		require.NoError(t, db.Model(&entity.Favorite{}).Count(&count).Error)
		assert.Zero(t, count)

		assert.ErrorIs(t, repo.Delete(ctx, tutor.Idx), apperror.ErrNotFound)
	})
}
