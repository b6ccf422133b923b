package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupReadingRepo(t *testing.T) *ReadingRepository {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewReadingRepository(client, zap.NewNop())
}

func TestReadingAppendAndList(t *testing.T) {
	repo := setupReadingRepo(t)
	ctx := context.Background()

	// 2024-01-15 附近的三条读取，乱序写入
	base := int64(1705300000)
	_, err := repo.Append(ctx, "kitchen", "tag-1", 40, base+20)
	require.NoError(t, err)
	_, err = repo.Append(ctx, "kitchen", "tag-2", 55, base)
	require.NoError(t, err)
	_, err = repo.Append(ctx, "kitchen", "tag-1", 48, base+10)
	require.NoError(t, err)

	// 另一位置的读取不串档
	_, err = repo.Append(ctx, "studio", "tag-3", 60, base)
	require.NoError(t, err)

	readings, err := repo.ListByLocationDate(ctx, "kitchen", DateKey(base))
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, "tag-2", readings[0].TagID)
	assert.Equal(t, "tag-1", readings[1].TagID)
	assert.Equal(t, int64(base+20), readings[2].Timestamp)
}

func TestReadingAppend_UniqueIDs(t *testing.T) {
	repo := setupReadingRepo(t)
	ctx := context.Background()

	first, err := repo.Append(ctx, "kitchen", "tag-1", 40, 1000)
	require.NoError(t, err)
	second, err := repo.Append(ctx, "kitchen", "tag-1", 40, 1000)
	require.NoError(t, err)

	// 同一标签同一秒的两次读取都保留
	assert.NotEqual(t, first.ID, second.ID)

	readings, err := repo.ListByLocationDate(ctx, "kitchen", DateKey(1000))
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestReadingAppend_InvalidInput(t *testing.T) {
	repo := setupReadingRepo(t)

	_, err := repo.Append(context.Background(), "", "tag-1", 40, 1000)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReadingList_EmptyPartition(t *testing.T) {
	repo := setupReadingRepo(t)

	readings, err := repo.ListByLocationDate(context.Background(), "kitchen", "2024-01-15")
	require.NoError(t, err)
	assert.Empty(t, readings)
}
