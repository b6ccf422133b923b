package models

// PersonType 人员类型
const (
	PersonTypeResident = "resident"
	PersonTypeVisitor  = "visitor"
)

// HistoryEntry 位置历史条目
type HistoryEntry struct {
	Location  string `json:"location"`
	Timestamp int64  `json:"timestamp"`
}

// PersonLocations 人员位置信息
// Current 为空字符串表示当前不在任何已知位置
type PersonLocations struct {
	Current string         `json:"current"`
	History []HistoryEntry `json:"history"`
}

// Person 人员文档（people/{id}）
// 住户由住户导入创建，访客由登记流程创建
type Person struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"` // "resident" 或 "visitor"
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	DOB       string          `json:"dob"`
	UserID    string          `json:"user_id,omitempty"`
	RFIDTags  map[string]bool `json:"rfid_tags"`
	Locations PersonLocations `json:"locations"`
	LastSeen  int64           `json:"last_seen,omitempty"`
}

// IsVisitor 是否为访客
func (p *Person) IsVisitor() bool {
	return p.Type == PersonTypeVisitor
}
