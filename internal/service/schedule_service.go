package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/routinelog/internal/catalog"
	"github.com/routinelog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidDate 日期为空或不是 YYYY-MM-DD
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidRange 开始日期晚于结束日期
	ErrInvalidRange = errors.New("invalid range: start after end")
	// ErrInvalidEntries 提交的条目数与活动目录不一致
	ErrInvalidEntries = errors.New("exactly one entry per activity is required")
	// ErrMissingAccount 写入时未指定账号
	ErrMissingAccount = errors.New("account id is required")
)

// DateLayout 是表单与查询参数使用的 ISO-8601 日期格式
const DateLayout = "2006-01-02"

const (
	maxDescriptionRunes = 500
	streakLookbackDays  = 366
)

// DayEntryInput 对应表单中某一活动的描述与完成状态，按目录顺序提交
type DayEntryInput struct {
	Description string
	Completed   bool
}

// ActivityCount 是区间统计中单项活动的完成次数
type ActivityCount struct {
	Activity catalog.Activity
	Count    int
}

// RangeSummary 汇总区间内每项活动的完成次数，Counts 恒为 10 项且按目录排序
type RangeSummary struct {
	Start  time.Time
	End    time.Time
	Counts []ActivityCount
}

// Names 按目录顺序返回活动名称
func (r RangeSummary) Names() []string {
	names := make([]string, 0, len(r.Counts))
	for _, item := range r.Counts {
		names = append(names, item.Activity.Name())
	}
	return names
}

// Data 按目录顺序返回完成次数
func (r RangeSummary) Data() []int {
	data := make([]int, 0, len(r.Counts))
	for _, item := range r.Counts {
		data = append(data, item.Count)
	}
	return data
}

// Map 返回 活动名称 → 完成次数
func (r RangeSummary) Map() map[string]int {
	result := make(map[string]int, len(r.Counts))
	for _, item := range r.Counts {
		result[item.Activity.Name()] = item.Count
	}
	return result
}

// ScheduleService 负责每日活动记录的写入、查询与统计
type ScheduleService struct {
	db *gorm.DB
}

// NewScheduleService 构造 ScheduleService
func NewScheduleService(gdb *gorm.DB) *ScheduleService {
	return &ScheduleService{db: gdb}
}

// ParseDate 解析 YYYY-MM-DD 并归一化为 UTC 零点
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return parsed, nil
}

// NormalizeDate 取 t 所在时区的日历日，返回该日 UTC 零点
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// storedDay 返回数据库中读出日期对应的日历日。
// 写入时统一为 UTC 零点，驱动可能按本地时区返回，需先转回 UTC
func storedDay(t time.Time) time.Time {
	return NormalizeDate(t.UTC())
}

// UpsertDay 在单个事务中写入某日全部 10 项记录：已存在则原地更新，否则新建
func (s *ScheduleService) UpsertDay(ctx context.Context, userID uint, date time.Time, entries []DayEntryInput) ([]db.ScheduleEntry, error) {
	if userID == 0 {
		return nil, ErrMissingAccount
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	if len(entries) != catalog.Count {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidEntries, len(entries))
	}

	day := NormalizeDate(date)
	rows := make([]db.ScheduleEntry, 0, catalog.Count)
	for i, activity := range catalog.All() {
		rows = append(rows, db.ScheduleEntry{
			UserID:      userID,
			Date:        day,
			Activity:    activity,
			Description: cleanDescription(entries[i].Description),
			Completed:   entries[i].Completed,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "activity"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "completed", "updated_at"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert schedule entries: %w", err)
	}

	return s.GetDay(ctx, userID, day)
}

// GetDay 返回某日的记录，按目录顺序；没有记录时返回空切片
func (s *ScheduleService) GetDay(ctx context.Context, userID uint, date time.Time) ([]db.ScheduleEntry, error) {
	entries := make([]db.ScheduleEntry, 0, catalog.Count)
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, NormalizeDate(date)).
		Order("activity ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// AggregateRange 统计 [start, end] 内每项活动的完成次数，结果恒含 10 项
func (s *ScheduleService) AggregateRange(ctx context.Context, userID uint, start, end time.Time) (*RangeSummary, error) {
	normalizedStart := NormalizeDate(start)
	normalizedEnd := NormalizeDate(end)
	if normalizedEnd.Before(normalizedStart) {
		return nil, ErrInvalidRange
	}

	var rows []struct {
		Activity catalog.Activity
		Total    int
	}
	if err := s.db.WithContext(ctx).Model(&db.ScheduleEntry{}).
		Select("activity, COUNT(*) AS total").
		Where("user_id = ? AND completed = ?", userID, true).
		Where("date BETWEEN ? AND ?", normalizedStart, normalizedEnd).
		Group("activity").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate schedule entries: %w", err)
	}

	totals := make(map[catalog.Activity]int, len(rows))
	for _, row := range rows {
		totals[row.Activity] = row.Total
	}

	summary := &RangeSummary{
		Start:  normalizedStart,
		End:    normalizedEnd,
		Counts: make([]ActivityCount, 0, catalog.Count),
	}
	for _, activity := range catalog.All() {
		summary.Counts = append(summary.Counts, ActivityCount{Activity: activity, Count: totals[activity]})
	}

	return summary, nil
}

// Streaks 返回每项活动截至 asOf（含）的连续完成天数，按目录顺序
func (s *ScheduleService) Streaks(ctx context.Context, userID uint, asOf time.Time) ([]int, error) {
	end := NormalizeDate(asOf)
	start := end.AddDate(0, 0, -streakLookbackDays)

	var rows []db.ScheduleEntry
	if err := s.db.WithContext(ctx).
		Select("activity", "date").
		Where("user_id = ? AND completed = ?", userID, true).
		Where("date BETWEEN ? AND ?", start, end).
		Order("date DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completed entries: %w", err)
	}

	completed := make(map[catalog.Activity]map[time.Time]struct{}, catalog.Count)
	for _, row := range rows {
		days, ok := completed[row.Activity]
		if !ok {
			days = make(map[time.Time]struct{})
			completed[row.Activity] = days
		}
		days[storedDay(row.Date)] = struct{}{}
	}

	streaks := make([]int, 0, catalog.Count)
	for _, activity := range catalog.All() {
		streaks = append(streaks, consecutiveDays(completed[activity], end))
	}
	return streaks, nil
}

func consecutiveDays(days map[time.Time]struct{}, end time.Time) int {
	count := 0
	for cursor := end; ; cursor = cursor.AddDate(0, 0, -1) {
		if _, ok := days[cursor]; !ok {
			return count
		}
		count++
	}
}

func cleanDescription(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) > maxDescriptionRunes {
		trimmed = string([]rune(trimmed)[:maxDescriptionRunes])
	}
	return trimmed
}
