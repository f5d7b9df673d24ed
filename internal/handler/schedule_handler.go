package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/routinelog/internal/catalog"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/logging"
	"github.com/routinelog/internal/service"
	"go.uber.org/zap"
)

// completedCheckboxValue 是复选框勾选时浏览器提交的值
const completedCheckboxValue = "on"

type scheduleRow struct {
	Position        int
	Label           string
	Name            string
	Description     string
	DescriptionHTML template.HTML
	Completed       bool
	Streak          int
}

type activityOption struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Label    string `json:"label"`
}

type scheduleEntryPayload struct {
	Position    int    `json:"position"`
	Activity    string `json:"activity"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type scheduleSummaryPayload struct {
	Activities []string          `json:"activities"`
	Labels     []string          `json:"labels"`
	Data       []int             `json:"data"`
	Range      map[string]string `json:"range"`
}

// ShowIndex 渲染登录后的首页
func (a *API) ShowIndex(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "index.html", gin.H{
		"title": a.text(c, titleIndex),
		"today": time.Now().Format(service.DateLayout),
	})
}

// ShowSchedule 渲染某日的活动表单，未指定日期时表单为空
func (a *API) ShowSchedule(c *gin.Context) {
	user := currentUser(c)
	raw := c.Query("date")
	if raw == "" {
		a.renderSchedule(c, http.StatusOK, "", nil, nil, nil)
		return
	}

	date, err := service.ParseDate(raw)
	if err != nil {
		a.renderSchedule(c, http.StatusBadRequest, raw, nil, nil, gin.H{"error": a.text(c, msgInvalidDate)})
		return
	}

	entries, err := a.schedules.GetDay(c.Request.Context(), user.ID, date)
	if err != nil {
		a.handleSchedulePageError(c, raw, err)
		return
	}

	streaks := a.loadStreaks(c, user.ID, date)
	a.renderSchedule(c, http.StatusOK, raw, entries, streaks, nil)
}

// SubmitSchedule 保存某日全部活动；日期无效时整体拒绝，不写入任何记录
func (a *API) SubmitSchedule(c *gin.Context) {
	user := currentUser(c)
	raw := c.PostForm("schedule_date")

	date, err := service.ParseDate(raw)
	if err != nil {
		a.renderSchedule(c, http.StatusBadRequest, raw, nil, nil, gin.H{"error": a.text(c, msgInvalidDate)})
		return
	}

	entries, err := a.schedules.UpsertDay(c.Request.Context(), user.ID, date, parseDayEntries(c))
	if err != nil {
		a.handleSchedulePageError(c, raw, err)
		return
	}

	logging.FromContext(a.logger, c).Info("schedule saved",
		zap.Uint("user_id", user.ID), zap.String("date", raw))

	streaks := a.loadStreaks(c, user.ID, date)
	a.renderSchedule(c, http.StatusOK, raw, entries, streaks, gin.H{"notice": a.text(c, msgSaved)})
}

// ShowSearch 渲染区间统计页面，默认区间为本月 1 日至今天
func (a *API) ShowSearch(c *gin.Context) {
	today := time.Now()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	a.renderHTML(c, http.StatusOK, "search.html", gin.H{
		"title":     a.text(c, titleSearch),
		"startDate": monthStart.Format(service.DateLayout),
		"endDate":   today.Format(service.DateLayout),
	})
}

// GetScheduleSummary 返回区间内每项活动的完成次数，顺序与活动目录一致
func (a *API) GetScheduleSummary(c *gin.Context) {
	user := currentUser(c)
	rawStart := firstQuery(c, "start_date", "start")
	rawEnd := firstQuery(c, "end_date", "end")

	if rawStart == "" || rawEnd == "" {
		respondError(c, http.StatusBadRequest, a.text(c, msgMissingDates))
		return
	}

	start, err := service.ParseDate(rawStart)
	if err != nil {
		respondError(c, http.StatusBadRequest, a.text(c, msgInvalidDate))
		return
	}
	end, err := service.ParseDate(rawEnd)
	if err != nil {
		respondError(c, http.StatusBadRequest, a.text(c, msgInvalidDate))
		return
	}

	summary, err := a.schedules.AggregateRange(c.Request.Context(), user.ID, start, end)
	if err != nil {
		a.handleScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildSummaryPayload(summary, a.language(c)))
}

// GetScheduleDay 以 JSON 返回某日记录
func (a *API) GetScheduleDay(c *gin.Context) {
	user := currentUser(c)

	date, err := service.ParseDate(c.Query("date"))
	if err != nil {
		respondError(c, http.StatusBadRequest, a.text(c, msgInvalidDate))
		return
	}

	entries, err := a.schedules.GetDay(c.Request.Context(), user.ID, date)
	if err != nil {
		a.handleScheduleError(c, err)
		return
	}

	items := make([]scheduleEntryPayload, 0, len(entries))
	for _, entry := range entries {
		items = append(items, scheduleEntryPayload{
			Position:    entry.Activity.Position(),
			Activity:    entry.Activity.Name(),
			Label:       entry.Label(),
			Description: entry.Description,
			Completed:   entry.Completed,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"date":    date.Format(service.DateLayout),
		"entries": items,
	})
}

func parseDayEntries(c *gin.Context) []service.DayEntryInput {
	entries := make([]service.DayEntryInput, 0, catalog.Count)
	for _, activity := range catalog.All() {
		position := activity.Position()
		entries = append(entries, service.DayEntryInput{
			Description: c.PostForm(fmt.Sprintf("description%d", position)),
			Completed:   c.PostForm(fmt.Sprintf("completed%d", position)) == completedCheckboxValue,
		})
	}
	return entries
}

func buildSummaryPayload(summary *service.RangeSummary, language string) scheduleSummaryPayload {
	labels := make([]string, 0, len(summary.Counts))
	for _, item := range summary.Counts {
		labels = append(labels, item.Activity.LocalizedName(language))
	}
	return scheduleSummaryPayload{
		Activities: summary.Names(),
		Labels:     labels,
		Data:       summary.Data(),
		Range: map[string]string{
			"start": summary.Start.Format(service.DateLayout),
			"end":   summary.End.Format(service.DateLayout),
		},
	}
}

// buildScheduleRows 以活动目录为骨架合并已保存的记录，保证始终 10 行
func buildScheduleRows(entries []db.ScheduleEntry, streaks []int, language string) []scheduleRow {
	byActivity := make(map[catalog.Activity]db.ScheduleEntry, len(entries))
	for _, entry := range entries {
		byActivity[entry.Activity] = entry
	}

	rows := make([]scheduleRow, 0, catalog.Count)
	for i, activity := range catalog.All() {
		row := scheduleRow{
			Position: activity.Position(),
			Label:    activity.Label(),
			Name:     activity.LocalizedName(language),
		}
		if entry, ok := byActivity[activity]; ok {
			row.Description = entry.Description
			row.DescriptionHTML = renderDescription(entry.Description)
			row.Completed = entry.Completed
		}
		if i < len(streaks) {
			row.Streak = streaks[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func activityOptions(language string) []activityOption {
	options := make([]activityOption, 0, catalog.Count)
	for _, activity := range catalog.All() {
		options = append(options, activityOption{
			Position: activity.Position(),
			Name:     activity.LocalizedName(language),
			Label:    activity.Label(),
		})
	}
	return options
}

func (a *API) renderSchedule(c *gin.Context, status int, date string, entries []db.ScheduleEntry, streaks []int, extra gin.H) {
	language := a.language(c)
	data := gin.H{
		"title":      a.text(c, titleSchedule),
		"date":       date,
		"activities": activityOptions(language),
		"rows":       buildScheduleRows(entries, streaks, language),
		"schedules":  entries,
	}
	for key, value := range extra {
		data[key] = value
	}
	a.renderHTML(c, status, "add_schedule.html", data)
}

// loadStreaks 连胜仅用于展示，查询失败时记录日志后忽略
func (a *API) loadStreaks(c *gin.Context, userID uint, date time.Time) []int {
	streaks, err := a.schedules.Streaks(c.Request.Context(), userID, date)
	if err != nil {
		logging.FromContext(a.logger, c).Warn("load streaks failed", zap.Error(err))
		return nil
	}
	return streaks
}

// scheduleErrorStatus 把服务层错误映射为状态码与提示
func (a *API) scheduleErrorStatus(c *gin.Context, err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest, msgInvalidRange
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidEntries):
		return http.StatusBadRequest, msgInvalidDate
	case errors.Is(err, service.ErrMissingAccount):
		return http.StatusUnauthorized, msgUnauthenticated
	default:
		logging.FromContext(a.logger, c).Error("schedule operation failed", zap.Error(err))
		return http.StatusInternalServerError, msgInternal
	}
}

// handleScheduleError 用于 /api 路由，返回 JSON
func (a *API) handleScheduleError(c *gin.Context, err error) {
	status, key := a.scheduleErrorStatus(c, err)
	respondError(c, status, a.text(c, key))
}

// handleSchedulePageError 用于表单页面，带错误信息重新渲染
func (a *API) handleSchedulePageError(c *gin.Context, date string, err error) {
	status, key := a.scheduleErrorStatus(c, err)
	a.renderSchedule(c, status, date, nil, nil, gin.H{"error": a.text(c, key)})
}
