package accounts

import (
	"context"
	"testing"

	"github.com/anoixa/mozaiek/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	u, err := repo.EnsureUser(ctx, "tom", "Tom")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "Tom", u.DisplayName)

	again, err := repo.EnsureUser(ctx, "tom", "Thomas")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	got, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thomas", got.DisplayName)

	byName, err := repo.GetUserByUsername(ctx, "tom")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.Error(t, err)
}
