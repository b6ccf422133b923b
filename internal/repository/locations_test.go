package repository

import (
	"context"
	"testing"
	"time"

	"wisefido-presence/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLocationRepo(t *testing.T) *LocationRepository {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewLocationRepository(client, zap.NewNop())
}

func TestLocationPutGetList(t *testing.T) {
	repo := setupLocationRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &models.Location{ID: "kitchen", Name: "Kitchen", FloorID: "floor1"}))
	require.NoError(t, repo.Put(ctx, &models.Location{ID: "studio", Name: "Studio", FloorID: "floor2"}))

	location, err := repo.Get(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", location.Name)

	locations, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 2)

	_, err = repo.Get(ctx, "cellar")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOccupant(t *testing.T) {
	repo := setupLocationRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &models.Location{ID: "kitchen", Name: "Kitchen"}))

	now := time.Unix(1000, 0)
	require.NoError(t, repo.SetOccupant(ctx, "kitchen", "person-1", true, now))
	require.NoError(t, repo.SetOccupant(ctx, "kitchen", "person-2", true, now))

	location, err := repo.Get(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"person-1": true, "person-2": true}, location.Occupants)
	assert.Equal(t, now.Unix(), location.LastUpdate)

	require.NoError(t, repo.SetOccupant(ctx, "kitchen", "person-1", false, now.Add(time.Minute)))
	// 重复移除是空操作
	require.NoError(t, repo.SetOccupant(ctx, "kitchen", "person-1", false, now.Add(2*time.Minute)))

	location, err = repo.Get(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"person-2": true}, location.Occupants)
}

func TestSetOccupant_MissingLocation(t *testing.T) {
	repo := setupLocationRepo(t)

	err := repo.SetOccupant(context.Background(), "ghost-room", "person-1", true, time.Unix(1000, 0))
	assert.ErrorIs(t, err, ErrNotFound)
}
