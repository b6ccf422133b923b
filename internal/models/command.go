package models

// 命令状态，只允许单向推进：
// pending → in_progress → {completed, failed}
const (
	CommandStatusPending    = "pending"
	CommandStatusInProgress = "in_progress"
	CommandStatusCompleted  = "completed"
	CommandStatusFailed     = "failed"
)

// 命令类型
const (
	CommandTypeWriteRFID = "write_rfid"
	CommandTypeReadRFID  = "read_rfid"
)

// commandStatusRank 状态推进顺序，终态之间不可转换
var commandStatusRank = map[string]int{
	CommandStatusPending:    0,
	CommandStatusInProgress: 1,
	CommandStatusCompleted:  2,
	CommandStatusFailed:     2,
}

// Command 命令文档（commands/{type}/{id}）
// 由登记流程创建，由硬件代理消费并推进状态
type Command struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	TargetID  string            `json:"target_id"`
	Status    string            `json:"status"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
	Params    map[string]string `json:"params"`
}

// IsTerminal 是否处于终态
func (c *Command) IsTerminal() bool {
	return c.Status == CommandStatusCompleted || c.Status == CommandStatusFailed
}

// CanTransition 判断状态转换是否合法（只允许向前推进）
func CanTransition(from, to string) bool {
	fromRank, okFrom := commandStatusRank[from]
	toRank, okTo := commandStatusRank[to]
	if !okFrom || !okTo {
		return false
	}
	// 终态不可再转换，包括 completed ↔ failed
	if from == CommandStatusCompleted || from == CommandStatusFailed {
		return false
	}
	return toRank > fromRank
}
