package repository

import (
	"database/sql"
	"fmt"

	"wisefido-presence/internal/models"

	"go.uber.org/zap"
)

// ArchiveRepository 读取记录的 PostgreSQL 归档仓库
//
// Redis 中的读取日志是在线查询用的短期分区，tag_readings 表是长期
// 归档（保留策略在库侧处理，核心只追加）。归档失败不阻塞摄入
type ArchiveRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewArchiveRepository 创建归档仓库
func NewArchiveRepository(db *sql.DB, logger *zap.Logger) *ArchiveRepository {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Insert 归档一条读取记录
func (r *ArchiveRepository) Insert(reading *models.Reading, locationID string) (int64, error) {
	query := `
		INSERT INTO tag_readings (
			reading_id,
			tag_id,
			location_id,
			rssi,
			read_at
		) VALUES (
			$1, $2, $3, $4, to_timestamp($5)
		)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(
		query,
		reading.ID,
		reading.TagID,
		locationID,
		reading.RSSI,
		reading.Timestamp,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to insert tag_readings: %w", err)
	}

	return id, nil
}

// CountByLocation 统计某位置在时间区间内的读取次数
func (r *ArchiveRepository) CountByLocation(locationID string, from, to int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM tag_readings
		WHERE location_id = $1
		  AND read_at >= to_timestamp($2)
		  AND read_at < to_timestamp($3)
	`

	var count int64
	err := r.db.QueryRow(query, locationID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tag_readings: %w", err)
	}

	return count, nil
}

// LastReadingForTag 查询某标签最近一次归档的读取
func (r *ArchiveRepository) LastReadingForTag(tagID string) (*models.Reading, string, error) {
	query := `
		SELECT reading_id, tag_id, location_id, rssi, EXTRACT(EPOCH FROM read_at)::bigint
		FROM tag_readings
		WHERE tag_id = $1
		ORDER BY read_at DESC
		LIMIT 1
	`

	var reading models.Reading
	var locationID string
	err := r.db.QueryRow(query, tagID).Scan(
		&reading.ID,
		&reading.TagID,
		&locationID,
		&reading.RSSI,
		&reading.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", fmt.Errorf("no archived readings for tag: %s", tagID)
		}
		return nil, "", fmt.Errorf("failed to query tag_readings: %w", err)
	}

	return &reading, locationID, nil
}
