package export

import (
	"context"
	"testing"

	"wisefido-presence/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupExporter(t *testing.T) (*ReadingExporter, *repository.ReadingRepository) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zap.NewNop()

	readings := repository.NewReadingRepository(client, logger)
	return NewReadingExporter(readings, logger), readings
}

func TestExportLocationDay(t *testing.T) {
	exporter, readings := setupExporter(t)
	ctx := context.Background()

	base := int64(1705300000)
	_, err := readings.Append(ctx, "kitchen", "tag-1", 40, base)
	require.NoError(t, err)
	_, err = readings.Append(ctx, "kitchen", "tag-2", 55, base+10)
	require.NoError(t, err)

	f, err := exporter.ExportLocationDay(ctx, "kitchen", repository.DateKey(base))
	require.NoError(t, err)

	rows, err := f.GetRows("Readings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Reading ID", "Tag ID", "Time", "RSSI"}, rows[0])
	assert.Equal(t, "tag-1", rows[1][1])
	assert.Equal(t, "tag-2", rows[2][1])
}

func TestExportLocationDay_Empty(t *testing.T) {
	exporter, _ := setupExporter(t)

	f, err := exporter.ExportLocationDay(context.Background(), "kitchen", "2024-01-15")
	require.NoError(t, err)

	rows, err := f.GetRows("Readings")
	require.NoError(t, err)
	// 只有表头
	require.Len(t, rows, 1)
}

func TestExportLocationDayToFile(t *testing.T) {
	exporter, readings := setupExporter(t)
	ctx := context.Background()

	_, err := readings.Append(ctx, "kitchen", "tag-1", 40, 1705300000)
	require.NoError(t, err)

	path := t.TempDir() + "/readings.xlsx"
	require.NoError(t, exporter.ExportLocationDayToFile(ctx, "kitchen", repository.DateKey(1705300000), path))
	assert.FileExists(t, path)
}
