// Package catalog 定义每日记录的 10 项固定活动及其顺序。
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/routinelog/internal/locale"
)

// Activity 是活动的序号标识，从 1 开始，顺序即展示与统计顺序
type Activity int

const (
	Exercise Activity = iota + 1
	Reading
	Music
	Meeting
	ProductUse
	BusinessBriefing
	CustomerCare
	Consultation
	TrustBuilding
	ECommerce
)

// Count 固定活动数量
const Count = 10

// ErrUnknownActivity 在标签或序号无法映射到目录项时返回
var ErrUnknownActivity = errors.New("unknown activity")

const labelSeparator = ": "

type entry struct {
	name   string
	korean string
}

var entries = [Count]entry{
	{name: "exercise", korean: "운동"},
	{name: "reading", korean: "책읽기"},
	{name: "music", korean: "음원듣기"},
	{name: "meeting", korean: "미팅 참석"},
	{name: "product use", korean: "제품이용"},
	{name: "business briefing", korean: "사업설명"},
	{name: "customer care", korean: "소비자 관리"},
	{name: "consultation", korean: "상담"},
	{name: "trust building", korean: "신뢰 쌓기"},
	{name: "e-com", korean: "e-com"},
}

// All 按目录顺序返回全部活动
func All() []Activity {
	items := make([]Activity, 0, Count)
	for i := 1; i <= Count; i++ {
		items = append(items, Activity(i))
	}
	return items
}

// Names 按目录顺序返回活动名称
func Names() []string {
	names := make([]string, 0, Count)
	for _, a := range All() {
		names = append(names, a.Name())
	}
	return names
}

// FromPosition 将 1 起始的序号转换为活动
func FromPosition(position int) (Activity, error) {
	a := Activity(position)
	if !a.Valid() {
		return 0, fmt.Errorf("%w: position %d", ErrUnknownActivity, position)
	}
	return a, nil
}

// ParseLabel 解析旧格式的 "{序号}: {名称}" 标签，序号与名称必须同时匹配目录
func ParseLabel(label string) (Activity, error) {
	rawPosition, name, found := strings.Cut(label, labelSeparator)
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivity, label)
	}

	position, err := strconv.Atoi(rawPosition)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivity, label)
	}

	a, err := FromPosition(position)
	if err != nil {
		return 0, err
	}

	if name != a.Name() && name != a.entry().korean {
		return 0, fmt.Errorf("%w: %q does not match position %d", ErrUnknownActivity, label, position)
	}
	return a, nil
}

// Valid 判断是否属于目录
func (a Activity) Valid() bool {
	return a >= 1 && a <= Count
}

// Position 返回 1 起始的序号
func (a Activity) Position() int {
	return int(a)
}

// Name 返回活动的规范名称
func (a Activity) Name() string {
	if !a.Valid() {
		return ""
	}
	return a.entry().name
}

// Label 返回 "{序号}: {名称}" 形式的展示标签
func (a Activity) Label() string {
	if !a.Valid() {
		return ""
	}
	return fmt.Sprintf("%d%s%s", a.Position(), labelSeparator, a.Name())
}

// LocalizedName 按请求语言返回名称，韩语为默认
func (a Activity) LocalizedName(language string) string {
	if !a.Valid() {
		return ""
	}
	e := a.entry()
	return locale.Pick(language, e.name, e.korean)
}

func (a Activity) String() string {
	return a.Label()
}

func (a Activity) entry() entry {
	return entries[a-1]
}
