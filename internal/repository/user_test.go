package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/testing/testdb"
)

func TestUserRepository(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewUserRepository(tdb.DB)
	ctx := context.Background()

	u := &model.User{Username: "alice", Hash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "hash", byName.Hash)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	missing, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &model.User{Username: "alice", Hash: "other"})
	assert.ErrorIs(t, err, database.ErrDuplicate)
}
