package models

// Reading 读取记录（tag_readings/{location_id}/{date}/{reading_id}）
// 创建后不可变，按位置和日期分区以限制单分区大小
type Reading struct {
	ID        string `json:"id"`
	TagID     string `json:"tag_id"`
	Timestamp int64  `json:"timestamp"`
	RSSI      int    `json:"rssi"`
}
