package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/routinelog/internal/service"
)

// heatmapWindowDays 热力图默认覆盖截至结束日的一年
const heatmapWindowDays = 364

type heatmapDay struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Activities []int  `json:"activities"`
}

type heatmapRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type heatmapSummary struct {
	TotalCompletions int `json:"total_completions"`
	ActiveDays       int `json:"active_days"`
}

type scheduleHeatmapPayload struct {
	Range   heatmapRange   `json:"range"`
	Days    []heatmapDay   `json:"days"`
	Summary heatmapSummary `json:"summary"`
}

// GetScheduleHeatmap 返回截至 end（默认今天）一年内每天完成的活动
func (a *API) GetScheduleHeatmap(c *gin.Context) {
	user := currentUser(c)

	end := service.NormalizeDate(time.Now())
	if raw := c.Query("end"); raw != "" {
		parsed, err := service.ParseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, a.text(c, msgInvalidDate))
			return
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -heatmapWindowDays)

	entries, err := a.schedules.HeatmapRange(c.Request.Context(), user.ID, start, end)
	if err != nil {
		a.handleScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildHeatmapPayload(entries, start, end))
}

// buildHeatmapPayload 按日期聚合；entries 已按日期升序排列
func buildHeatmapPayload(entries []service.HeatmapEntry, start, end time.Time) scheduleHeatmapPayload {
	days := make([]heatmapDay, 0)
	for _, entry := range entries {
		key := entry.Date.Format(service.DateLayout)
		if n := len(days); n == 0 || days[n-1].Date != key {
			days = append(days, heatmapDay{Date: key, Activities: make([]int, 0, 1)})
		}
		last := &days[len(days)-1]
		last.Activities = append(last.Activities, entry.Activity.Position())
		last.Count++
	}

	return scheduleHeatmapPayload{
		Range: heatmapRange{
			Start: start.Format(service.DateLayout),
			End:   end.Format(service.DateLayout),
		},
		Days:    days,
		Summary: heatmapSummary{TotalCompletions: len(entries), ActiveDays: len(days)},
	}
}
