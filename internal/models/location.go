package models

// Location 位置文档（locations/{id}）
// Occupants 是在场解析结果的派生缓存，权威状态在各 Person 的
// locations.current 字段
type Location struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	FloorID     string          `json:"floor_id"`
	Occupants   map[string]bool `json:"occupants"`
	LastUpdate  int64           `json:"last_update"`
	Status      string          `json:"status"`
}

// VisitorSummary 访客汇总视图（展示用）
type VisitorSummary struct {
	Count int            `json:"count"`
	Trend string         `json:"trend"`
	Rooms map[string]int `json:"rooms"`
}
