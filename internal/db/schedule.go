package db

import (
	"time"

	"github.com/routinelog/internal/catalog"
	"gorm.io/gorm"
)

// ScheduleEntry 记录某账号某日某项活动的完成情况
// UserID + Date + Activity 采用唯一索引，保证同一天同一活动只有一行
// Date 统一存储为当天 UTC 零点
type ScheduleEntry struct {
	gorm.Model
	UserID      uint             `gorm:"index;index:idx_schedule_entry_unique,unique"`
	Date        time.Time        `gorm:"index;index:idx_schedule_entry_unique,unique"`
	Activity    catalog.Activity `gorm:"index:idx_schedule_entry_unique,unique;not null"`
	Description string
	Completed   bool `gorm:"default:false"`
}

// TableName 固定表名，唯一索引依赖该表
func (ScheduleEntry) TableName() string {
	return "schedule_entries"
}

// Label 返回 "{序号}: {名称}" 形式的活动标签
func (e ScheduleEntry) Label() string {
	return e.Activity.Label()
}
