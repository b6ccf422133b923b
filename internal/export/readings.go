// Package export 提供读取日志的 XLSX 导出（运维工具）
package export

import (
	"context"
	"fmt"
	"time"

	"wisefido-presence/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReadingExporter 读取日志导出器
type ReadingExporter struct {
	readings *repository.ReadingRepository
	logger   *zap.Logger
}

// NewReadingExporter 创建导出器
func NewReadingExporter(readings *repository.ReadingRepository, logger *zap.Logger) *ReadingExporter {
	return &ReadingExporter{
		readings: readings,
		logger:   logger,
	}
}

// ExportLocationDay 导出某位置某日的读取日志
// date 格式 "2006-01-02"，返回生成的工作簿
func (e *ReadingExporter) ExportLocationDay(ctx context.Context, locationID, date string) (*excelize.File, error) {
	readings, err := e.readings.ListByLocationDate(ctx, locationID, date)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Readings"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Reading ID", "Tag ID", "Time", "RSSI"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, reading := range readings {
		values := []interface{}{
			reading.ID,
			reading.TagID,
			time.Unix(reading.Timestamp, 0).Format(time.RFC3339),
			reading.RSSI,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	e.logger.Info("Exported readings",
		zap.String("location_id", locationID),
		zap.String("date", date),
		zap.Int("rows", len(readings)),
	)

	return f, nil
}

// ExportLocationDayToFile 导出并写到文件
func (e *ReadingExporter) ExportLocationDayToFile(ctx context.Context, locationID, date, path string) error {
	f, err := e.ExportLocationDay(ctx, locationID, date)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
