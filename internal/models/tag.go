package models

// LastRead 标签最近一次被读取的信息
type LastRead struct {
	Timestamp int64  `json:"timestamp"`
	Location  string `json:"location"`
	RSSI      int    `json:"rssi"`
}

// Tag 标签文档（tags/{id}），ID 为物理EPC
// OwnerID 是反向引用（查询辅助），人员记录不从属于标签
type Tag struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id,omitempty"`
	LastRead    *LastRead `json:"last_read,omitempty"`
	CurrentRoom string    `json:"current_room,omitempty"`
	LastSeen    int64     `json:"last_seen,omitempty"`
}

// Attribution 读取归属结果
// 显式区分"归属于某人"和"无主读取"，避免散落的缺键判断
type Attribution struct {
	// OwnerID 非空表示读取归属于该人员
	OwnerID string
}

// Attributed 读取是否归属于已知人员
func (a Attribution) Attributed() bool {
	return a.OwnerID != ""
}

// AttributedTo 构造归属结果
func AttributedTo(personID string) Attribution {
	return Attribution{OwnerID: personID}
}

// Unattributed 无主读取
func Unattributed() Attribution {
	return Attribution{}
}
