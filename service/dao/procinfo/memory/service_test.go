package memory

import (
	"context"
	"testing"

	"github.com/saquib-ali-khan/distalgo/service/dao"
	"github.com/saquib-ali-khan/distalgo/service/dao/procinfo"
	"github.com/saquib-ali-khan/distalgo/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SaveLoad(t *testing.T) {
	ctx := context.Background()
	service := New()

	require.Error(t, service.Save(ctx, nil))
	require.Error(t, service.Save(ctx, &procinfo.Record{}))

	record := &procinfo.Record{ID: "p1", Name: "site-1", Type: "lamutex.Site", State: "created"}
	require.NoError(t, service.Save(ctx, record))

	loaded, err := service.Load(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "site-1", loaded.Name)
	assert.False(t, loaded.CreatedAt.IsZero())

	// loads are copies: mutating one does not affect the store
	loaded.State = "mutated"
	reloaded, err := service.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "created", reloaded.State)

	missing, err := service.Load(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestService_Fold(t *testing.T) {
	ctx := context.Background()
	service := New()

	require.NoError(t, service.Fold(ctx, "p1", stats.TagSent, 1))
	require.NoError(t, service.Fold(ctx, "p1", stats.TagSent, 1))
	require.NoError(t, service.Fold(ctx, "p1", stats.TagWallTime, 1.5))
	require.NoError(t, service.Fold(ctx, "p1", stats.TagMemory, 2048))

	record, err := service.Load(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 2, record.Sent)
	assert.Equal(t, 1.5, record.WallTime)
	assert.Equal(t, float64(2048), record.MemoryKB)
}

func TestService_Describe(t *testing.T) {
	ctx := context.Background()
	service := New()

	// reports may precede the identity
	require.NoError(t, service.Fold(ctx, "p1", stats.TagSent, 3))
	require.NoError(t, service.Describe(ctx, "p1", "site-1", "lamutex.Site", "master-1"))

	record, err := service.Load(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "site-1", record.Name)
	assert.Equal(t, "lamutex.Site", record.Type)
	assert.Equal(t, "master-1", record.ParentID)
	assert.Equal(t, 3, record.Sent)

	require.Error(t, service.Describe(ctx, "", "x", "y", "z"))
}

func TestService_UpdateStateAndList(t *testing.T) {
	ctx := context.Background()
	service := New()

	require.NoError(t, service.Save(ctx, &procinfo.Record{ID: "p1", Type: "site", State: "running"}))
	require.NoError(t, service.Save(ctx, &procinfo.Record{ID: "p2", Type: "site", State: "running"}))
	require.NoError(t, service.Save(ctx, &procinfo.Record{ID: "p3", Type: "observer", State: "running"}))

	require.NoError(t, service.UpdateState(ctx, "p2", "failed", 10))

	failed, err := service.List(ctx, dao.NewParameter("State", "failed"))
	require.NoError(t, err)
	require.Equal(t, 1, len(failed))
	assert.Equal(t, "p2", failed[0].ID)
	assert.Equal(t, 10, failed[0].ExitCode)
	assert.True(t, failed[0].Terminal())

	sites, err := service.List(ctx, dao.NewParameter("Type", "site"))
	require.NoError(t, err)
	assert.Equal(t, 2, len(sites))

	runningSites, err := service.List(ctx,
		dao.NewParameter("Type", "site"),
		dao.NewParameter("State", "running"))
	require.NoError(t, err)
	require.Equal(t, 1, len(runningSites))
	assert.Equal(t, "p1", runningSites[0].ID)

	all, err := service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, len(all))

	require.NoError(t, service.Delete(ctx, "p3"))
	all, err = service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, len(all))
}
