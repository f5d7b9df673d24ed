package service

import (
	"context"
	"fmt"
	"time"

	"github.com/routinelog/internal/catalog"
	"github.com/routinelog/internal/db"
)

// HeatmapEntry 是区间内一条已完成的活动记录
type HeatmapEntry struct {
	Date     time.Time
	Activity catalog.Activity
}

// HeatmapRange 返回 [start, end] 内已完成的记录，按日期与活动顺序排列
func (s *ScheduleService) HeatmapRange(ctx context.Context, userID uint, start, end time.Time) ([]HeatmapEntry, error) {
	normalizedStart := NormalizeDate(start)
	normalizedEnd := NormalizeDate(end)
	if normalizedEnd.Before(normalizedStart) {
		return nil, ErrInvalidRange
	}

	var rows []db.ScheduleEntry
	if err := s.db.WithContext(ctx).
		Select("date", "activity").
		Where("user_id = ? AND completed = ?", userID, true).
		Where("date BETWEEN ? AND ?", normalizedStart, normalizedEnd).
		Order("date ASC, activity ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list heatmap entries: %w", err)
	}

	entries := make([]HeatmapEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HeatmapEntry{Date: storedDay(row.Date), Activity: row.Activity})
	}
	return entries, nil
}
