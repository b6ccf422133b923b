package repository

import (
	"fmt"
	"strings"
	"time"
)

// Redis 键布局与文档存储路径保持一致（跨实现稳定）：
//   people/{id}
//   tags/{id}
//   tag_readings/{location_id}/{date}/{reading_id}
//   locations/{id}
//   commands/{type}/{id}
//   readers/{reader_id}/in_range  （hash: tag_id → last_seen）

func personKey(id string) string {
	return "people/" + id
}

func tagKey(id string) string {
	return "tags/" + id
}

func locationKey(id string) string {
	return "locations/" + id
}

func commandKey(cmdType, id string) string {
	return fmt.Sprintf("commands/%s/%s", cmdType, id)
}

func readingKey(locationID, date, id string) string {
	return fmt.Sprintf("tag_readings/%s/%s/%s", locationID, date, id)
}

func inRangeKey(readerID string) string {
	return fmt.Sprintf("readers/%s/in_range", readerID)
}

// NormalizeLocationID 将位置名称规范化为位置ID
// 小写并以连字符替换空格，如 "Living Room" → "living-room"
func NormalizeLocationID(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}

// DateKey 读取日志的日期分区键
func DateKey(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02")
}
