package memorials

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/mozaiek/database/dbtest"
	"github.com/anoixa/mozaiek/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemorial(ownerID uint, name string) *models.Memorial {
	return &models.Memorial{
		OwnerID:      ownerID,
		Name:         name,
		IsPublic:     true,
		BaseImageKey: "memorials/1-abc.jpg",
		BaseImageURL: "http://localhost/memorials/1-abc.jpg",
		ColorSummary: models.ColorSummary{{R: 10, G: 20, B: 30}},
	}
}

func newMemory(memorialID, visitor string) *models.Memory {
	return &models.Memory{
		MemorialID:  memorialID,
		VisitorName: visitor,
		Message:     "we miss you",
		ImageKey:    "memories/1-" + visitor + ".jpg",
		ImageURL:    "http://localhost/memories/1-" + visitor + ".jpg",
	}
}

func setup(t *testing.T) (*Repository, *models.User) {
	db := dbtest.Open(t)
	owner := &models.User{Username: "owner", DisplayName: "Owner"}
	require.NoError(t, db.DB().Create(owner).Error)
	return NewRepository(db), owner
}

// --- 测试 CreateMemorial / GetMemorialByID ---

func TestCreateAndGetMemorial(t *testing.T) {
	repo, owner := setup(t)
	ctx := context.Background()

	m := newMemorial(owner.ID, "Grandma")
	require.NoError(t, repo.CreateMemorial(ctx, m))
	assert.NotEmpty(t, m.ID)

	got, err := repo.GetMemorialByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grandma", got.Name)
	assert.Equal(t, models.ColorSummary{{R: 10, G: 20, B: 30}}, got.ColorSummary)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "Owner", got.Owner.Name())

	_, err = repo.GetMemorialByID(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestCreateMemorialRejectsPublicWithPassword(t *testing.T) {
	repo, owner := setup(t)

	m := newMemorial(owner.ID, "Grandpa")
	m.PasswordHash = "$2a$12$abc"
	err := repo.CreateMemorial(context.Background(), m)
	assert.ErrorIs(t, err, models.ErrPublicWithPassword)
}

// --- 测试 CreateMemory / ListMemories ---

func TestMemoriesKeepContributionOrder(t *testing.T) {
	repo, owner := setup(t)
	ctx := context.Background()

	m := newMemorial(owner.ID, "Grandma")
	require.NoError(t, repo.CreateMemorial(ctx, m))

	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, repo.CreateMemory(ctx, newMemory(m.ID, name)))
		time.Sleep(2 * time.Millisecond)
	}

	memories, err := repo.ListMemories(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, memories, 3)
	assert.Equal(t, "alice", memories[0].VisitorName)
	assert.Equal(t, "carol", memories[2].VisitorName)

	count, err := repo.CountMemories(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestCreateMemoryForMissingMemorial(t *testing.T) {
	repo, _ := setup(t)

	err := repo.CreateMemory(context.Background(), newMemory("missing", "alice"))
	assert.True(t, IsNotFound(err))
}

// --- 测试删除 ---

func TestDeleteMemory(t *testing.T) {
	repo, owner := setup(t)
	ctx := context.Background()

	m := newMemorial(owner.ID, "Grandma")
	require.NoError(t, repo.CreateMemorial(ctx, m))
	mem := newMemory(m.ID, "alice")
	require.NoError(t, repo.CreateMemory(ctx, mem))

	deleted, err := repo.DeleteMemory(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, mem.ImageKey, deleted.ImageKey)

	_, err = repo.DeleteMemory(ctx, mem.ID)
	assert.True(t, IsNotFound(err))
}

func TestDeleteMemorialCascades(t *testing.T) {
	repo, owner := setup(t)
	ctx := context.Background()

	m := newMemorial(owner.ID, "Grandma")
	require.NoError(t, repo.CreateMemorial(ctx, m))
	require.NoError(t, repo.CreateMemory(ctx, newMemory(m.ID, "alice")))
	require.NoError(t, repo.CreateMemory(ctx, newMemory(m.ID, "bob")))

	deleted, memories, err := repo.DeleteMemorial(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)
	assert.Len(t, memories, 2)

	count, err := repo.CountMemories(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, _, err = repo.DeleteMemorial(ctx, m.ID)
	assert.True(t, IsNotFound(err))
}

// --- 测试 ListByOwner ---

func TestListByOwner(t *testing.T) {
	repo, owner := setup(t)
	ctx := context.Background()

	first := newMemorial(owner.ID, "first")
	require.NoError(t, repo.CreateMemorial(ctx, first))
	time.Sleep(2 * time.Millisecond)
	second := newMemorial(owner.ID, "second")
	require.NoError(t, repo.CreateMemorial(ctx, second))
	require.NoError(t, repo.CreateMemory(ctx, newMemory(first.ID, "alice")))

	stranger := &models.User{Username: "stranger", DisplayName: "Stranger"}
	require.NoError(t, repo.db.DB().Create(stranger).Error)
	other := newMemorial(stranger.ID, "other")
	require.NoError(t, repo.CreateMemorial(ctx, other))

	list, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Name)
	assert.EqualValues(t, 0, list[0].MemoryCount)
	assert.Equal(t, "first", list[1].Name)
	assert.EqualValues(t, 1, list[1].MemoryCount)

	others, err := repo.ListByOwner(ctx, stranger.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "other", others[0].Name)

	empty, err := repo.ListByOwner(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReferencedKeys(t *testing.T) {
	repo, owner := setup(t)
	ctx := context.Background()

	m := newMemorial(owner.ID, "Grandma")
	require.NoError(t, repo.CreateMemorial(ctx, m))
	require.NoError(t, repo.CreateMemory(ctx, newMemory(m.ID, "alice")))

	keys, err := repo.ReferencedKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "memorials/1-abc.jpg")
	assert.Contains(t, keys, "memories/1-alice.jpg")
	assert.Len(t, keys, 2)
}
