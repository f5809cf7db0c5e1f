package memorial

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/mozaiek/storage"
)

func (f *fixture) put(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, f.store.SaveWithContext(context.Background(), key, bytes.NewReader([]byte("x")), storage.SaveOptions{}))
}

func TestSweepOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.CreateMemorial(ctx, f.owner.ID, CreateMemorialInput{Name: "Opa", IsPublic: true}, photo())
	require.NoError(t, err)
	f.addMemories(t, m.ID, "", 2)

	now := time.Now()
	fresh := fmt.Sprintf("memories/%d-fresh01.jpg", now.UnixMilli())
	f.put(t, "memorials/1000-orphan1.jpg")
	f.put(t, "memories/2000-orphan2.jpg")
	f.put(t, fresh)
	f.put(t, "memories/not-a-key.jpg")
	f.put(t, "elsewhere/1000-ignored.jpg")

	report, err := f.svc.SweepOrphans(ctx, SweepOptions{DryRun: true, Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Equal(t, 7, report.Scanned)
	assert.ElementsMatch(t, []string{"memorials/1000-orphan1.jpg", "memories/2000-orphan2.jpg"}, report.Orphans)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, map[string]int{"memorials": 1, "memories": 1}, report.ByNamespace)
	assert.Equal(t, 0, report.Deleted)
	assert.Len(t, f.store.Keys(), 8)

	report, err = f.svc.SweepOrphans(ctx, SweepOptions{Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)
	assert.Empty(t, report.Errors)

	_, _, ok := f.store.Object("memorials/1000-orphan1.jpg")
	assert.False(t, ok)
	_, _, ok = f.store.Object(fresh)
	assert.True(t, ok)
	_, _, ok = f.store.Object("elsewhere/1000-ignored.jpg")
	assert.True(t, ok)

	res, err := f.svc.FetchMemorial(ctx, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.View.MemoryCount)
	for _, memory := range res.View.Memories {
		_, _, ok := f.store.Object(memory.ImageKey)
		assert.True(t, ok)
	}
}

type unlistable struct {
	storage.Provider
}

func TestSweepOrphans_RequiresLister(t *testing.T) {
	f := newFixture(t)
	f.svc.storage = unlistable{Provider: f.store}

	_, err := f.svc.SweepOrphans(context.Background(), SweepOptions{})
	assert.ErrorIs(t, err, ErrListingUnsupported)
}
