// Package presence 提供"谁在哪里"的聚合视图
//
// 视图按需从人员文档推导，不做增量索引维护。权威状态始终是每个
// Person 的 locations.current 字段，位置文档上的 occupants 只是
// 展示用缓存
package presence

import (
	"context"
	"sort"

	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"

	"go.uber.org/zap"
)

// Resolver 在场解析器
type Resolver struct {
	people    *repository.PeopleRepository
	locations *repository.LocationRepository
	logger    *zap.Logger
}

// NewResolver 创建在场解析器
func NewResolver(
	people *repository.PeopleRepository,
	locations *repository.LocationRepository,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		people:    people,
		locations: locations,
		logger:    logger,
	}
}

// GetPeopleByLocation 按当前位置分组所有在场人员
//
// 时点读取。人员指向的位置可能已被删除：该分组照常返回，
// 不丢弃也不报错。空存储返回空映射
func (r *Resolver) GetPeopleByLocation(ctx context.Context) (map[string][]string, error) {
	people, err := r.people.List(ctx, "")
	if err != nil {
		return nil, err
	}

	byLocation := make(map[string][]string)
	for _, person := range people {
		current := person.Locations.Current
		if current == "" {
			continue
		}
		byLocation[current] = append(byLocation[current], person.ID)
	}

	// 组内排序，调用方得到确定的顺序
	for _, ids := range byLocation {
		sort.Strings(ids)
	}

	return byLocation, nil
}

// GetVisitorSummary 访客汇总（展示用）
// 无数据时返回 count=0 的空结果，从不报错传播到展示层
func (r *Resolver) GetVisitorSummary(ctx context.Context) (*models.VisitorSummary, error) {
	summary := &models.VisitorSummary{
		Trend: "flat",
		Rooms: map[string]int{},
	}

	visitors, err := r.people.List(ctx, models.PersonTypeVisitor)
	if err != nil {
		return nil, err
	}

	for _, visitor := range visitors {
		current := visitor.Locations.Current
		if current == "" {
			continue
		}
		summary.Count++
		summary.Rooms[current]++
	}

	if summary.Count > 0 {
		summary.Trend = "up"
	}

	return summary, nil
}

// GetFloorOccupancy 某楼层各位置的在场人数
func (r *Resolver) GetFloorOccupancy(ctx context.Context, floorID string) (map[string]int, error) {
	locations, err := r.locations.List(ctx)
	if err != nil {
		return nil, err
	}

	floorLocations := map[string]bool{}
	for _, location := range locations {
		if location.FloorID == floorID {
			floorLocations[location.ID] = true
		}
	}

	byLocation, err := r.GetPeopleByLocation(ctx)
	if err != nil {
		return nil, err
	}

	occupancy := make(map[string]int)
	for locationID := range floorLocations {
		occupancy[locationID] = len(byLocation[locationID])
	}

	return occupancy, nil
}
