package presence

import (
	"context"
	"testing"

	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupResolver(t *testing.T) (*Resolver, *repository.PeopleRepository, *repository.LocationRepository) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zap.NewNop()

	people := repository.NewPeopleRepository(client, logger)
	locations := repository.NewLocationRepository(client, logger)
	return NewResolver(people, locations, logger), people, locations
}

func createPersonAt(t *testing.T, people *repository.PeopleRepository, personType, location string) string {
	t.Helper()
	ctx := context.Background()
	id, err := people.Create(ctx, personType, "Test", "Person", "", "")
	require.NoError(t, err)
	if location != "" {
		_, err = people.SetCurrentLocation(ctx, id, location, 1000)
		require.NoError(t, err)
	}
	return id
}

func TestGetPeopleByLocation_EmptyStore(t *testing.T) {
	resolver, _, _ := setupResolver(t)

	byLocation, err := resolver.GetPeopleByLocation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, byLocation)
}

func TestGetPeopleByLocation_Grouping(t *testing.T) {
	resolver, people, _ := setupResolver(t)
	ctx := context.Background()

	a := createPersonAt(t, people, models.PersonTypeResident, "kitchen")
	b := createPersonAt(t, people, models.PersonTypeVisitor, "kitchen")
	c := createPersonAt(t, people, models.PersonTypeVisitor, "studio")
	// 不在场的人员不出现在任何分组
	createPersonAt(t, people, models.PersonTypeResident, "")

	byLocation, err := resolver.GetPeopleByLocation(ctx)
	require.NoError(t, err)
	require.Len(t, byLocation, 2)
	assert.ElementsMatch(t, []string{a, b}, byLocation["kitchen"])
	assert.Equal(t, []string{c}, byLocation["studio"])

	// 组内按人员ID排序
	assert.IsIncreasing(t, byLocation["kitchen"])
}

func TestGetPeopleByLocation_OrphanedLocationKept(t *testing.T) {
	resolver, people, locations := setupResolver(t)
	ctx := context.Background()

	// 只有 kitchen 有位置文档；demolished-wing 没有
	require.NoError(t, locations.Put(ctx, &models.Location{ID: "kitchen", Name: "Kitchen"}))
	id := createPersonAt(t, people, models.PersonTypeResident, "demolished-wing")

	byLocation, err := resolver.GetPeopleByLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, byLocation["demolished-wing"])
}

func TestGetVisitorSummary(t *testing.T) {
	resolver, people, _ := setupResolver(t)
	ctx := context.Background()

	summary, err := resolver.GetVisitorSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.Equal(t, "flat", summary.Trend)
	assert.Empty(t, summary.Rooms)

	createPersonAt(t, people, models.PersonTypeVisitor, "kitchen")
	createPersonAt(t, people, models.PersonTypeVisitor, "kitchen")
	createPersonAt(t, people, models.PersonTypeVisitor, "studio")
	// 住户和不在场的访客不计入
	createPersonAt(t, people, models.PersonTypeResident, "kitchen")
	createPersonAt(t, people, models.PersonTypeVisitor, "")

	summary, err = resolver.GetVisitorSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, "up", summary.Trend)
	assert.Equal(t, map[string]int{"kitchen": 2, "studio": 1}, summary.Rooms)
}

func TestGetFloorOccupancy(t *testing.T) {
	resolver, people, locations := setupResolver(t)
	ctx := context.Background()

	require.NoError(t, locations.Put(ctx, &models.Location{ID: "kitchen", FloorID: "floor1"}))
	require.NoError(t, locations.Put(ctx, &models.Location{ID: "living-room", FloorID: "floor1"}))
	require.NoError(t, locations.Put(ctx, &models.Location{ID: "studio", FloorID: "floor2"}))

	createPersonAt(t, people, models.PersonTypeResident, "kitchen")
	createPersonAt(t, people, models.PersonTypeVisitor, "kitchen")
	createPersonAt(t, people, models.PersonTypeVisitor, "studio")

	occupancy, err := resolver.GetFloorOccupancy(ctx, "floor1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"kitchen": 2, "living-room": 0}, occupancy)
}
