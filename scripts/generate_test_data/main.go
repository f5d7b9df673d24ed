package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/joho/godotenv"
	"github.com/routinelog/internal/catalog"
	"github.com/routinelog/internal/config"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/service"
)

// 示例描述，按活动序号排列
var sampleDescriptions = [catalog.Count][]string{
	{"아침 러닝 5km", "헬스장 상체 운동", "요가 30분"},
	{"자기계발서 30쪽", "경제 신문 읽기", "소설 한 챕터"},
	{"출근길 음원 듣기", "세미나 녹음 다시 듣기"},
	{"팀 미팅 참석", "오프라인 세미나"},
	{"신제품 사용 후기 작성", "아침 제품 체험"},
	{"지인 사업설명 1회", "온라인 설명회 진행"},
	{"고객 안부 연락", "재구매 고객 응대"},
	{"신규 상담 2건", "전화 상담"},
	{"감사 메시지 보내기", "후기 공유"},
	{"온라인 주문 정리", "쇼핑몰 상품 등록"},
}

// 测试数据生成器
func main() {
	_ = godotenv.Load()

	username := flag.String("username", "demo", "account that owns the generated entries")
	password := flag.String("password", "demo1234", "password used when the account is created")
	days := flag.Int("days", 30, "number of days ending today")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	flag.Parse()

	// 初始化数据库
	cfg := config.Load()
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseTarget())
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	defer func() { _ = db.Close(gdb) }()

	ctx := context.Background()
	accounts := service.NewAccountService(gdb, cfg.BcryptCost)
	user, err := ensureAccount(ctx, accounts, *username, *password)
	if err != nil {
		log.Fatal("创建测试用户失败:", err)
	}

	fmt.Println("开始生成测试数据...")
	rng := rand.New(rand.NewPCG(*seed, *seed))
	written, err := seedSchedules(ctx, service.NewScheduleService(gdb), user.ID, time.Now(), *days, rng)
	if err != nil {
		log.Fatal("生成日程失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s\n", user.Username)
	fmt.Printf("日程: %d 天\n", written)
}

func ensureAccount(ctx context.Context, accounts *service.AccountService, username, password string) (*db.User, error) {
	user, err := accounts.Register(ctx, username, password)
	if errors.Is(err, service.ErrDuplicateUsername) {
		return accounts.FindByUsername(ctx, username)
	}
	return user, err
}

// seedSchedules 为截至 end 的 days 天各写入一整天的活动记录，返回写入天数
func seedSchedules(ctx context.Context, schedules *service.ScheduleService, userID uint, end time.Time, days int, rng *rand.Rand) (int, error) {
	last := service.NormalizeDate(end)
	for offset := days - 1; offset >= 0; offset-- {
		date := last.AddDate(0, 0, -offset)

		entries := make([]service.DayEntryInput, 0, catalog.Count)
		for i := range catalog.Count {
			completed := rng.IntN(100) < completionRate(i)
			description := ""
			if completed {
				options := sampleDescriptions[i]
				description = options[rng.IntN(len(options))]
			}
			entries = append(entries, service.DayEntryInput{Description: description, Completed: completed})
		}

		if _, err := schedules.UpsertDay(ctx, userID, date, entries); err != nil {
			return days - 1 - offset, fmt.Errorf("seed %s: %w", date.Format(service.DateLayout), err)
		}
	}
	return days, nil
}

// completionRate 让靠前的日常活动完成率更高，统计图更有区分度
func completionRate(index int) int {
	return 80 - index*6
}
