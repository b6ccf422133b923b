package models

// 在场变化事件类型
const (
	PresenceEventEntered = "entered"
	PresenceEventLeft    = "left"
)

// ScanEvent 读卡器上报的原始扫描事件（MQTT payload）
type ScanEvent struct {
	TagID    string `json:"tag_id"`
	Location string `json:"location"`
	RSSI     int    `json:"rssi"`
}

// PresenceEvent 在场变化事件（presence:events 流）
// 由摄入和清扫产生，占用缓存消费者据此维护 locations/{id}.occupants
type PresenceEvent struct {
	Type      string `json:"type"` // "entered" 或 "left"
	PersonID  string `json:"person_id"`
	Location  string `json:"location"`
	Timestamp int64  `json:"timestamp"`
}
