package handler

import "github.com/routinelog/internal/locale"

const (
	msgInvalidCredentials  = "invalid_credentials"
	msgDuplicateUsername   = "duplicate_username"
	msgInvalidAccountInput = "invalid_account_input"
	msgUnauthenticated     = "unauthenticated"
	msgRegistered          = "registered"
	msgLoggedOut           = "logged_out"
	msgTooManyAttempts     = "too_many_attempts"
	msgInvalidDate         = "invalid_date"
	msgMissingDates        = "missing_dates"
	msgInvalidRange        = "invalid_range"
	msgSaved               = "saved"
	msgInternal            = "internal"

	titleLogin    = "title_login"
	titleRegister = "title_register"
	titleIndex    = "title_index"
	titleSchedule = "title_schedule"
	titleSearch   = "title_search"
)

type message struct {
	english string
	korean  string
}

var messages = map[string]message{
	msgInvalidCredentials:  {english: "Invalid username or password.", korean: "잘못된 아이디 또는 비밀번호입니다."},
	msgDuplicateUsername:   {english: "That username is already taken.", korean: "이미 존재하는 사용자 이름입니다."},
	msgInvalidAccountInput: {english: "Please enter a username and a password (up to 72 bytes).", korean: "아이디와 비밀번호(최대 72바이트)를 입력해 주세요."},
	msgUnauthenticated:     {english: "Please log in to continue.", korean: "로그인이 필요합니다."},
	msgRegistered:          {english: "Registration complete. Please log in.", korean: "회원가입이 완료되었습니다. 로그인해 주세요."},
	msgLoggedOut:           {english: "You have been logged out.", korean: "로그아웃되었습니다."},
	msgTooManyAttempts:     {english: "Too many login attempts. Please try again later.", korean: "로그인 시도가 너무 많습니다. 잠시 후 다시 시도해 주세요."},
	msgInvalidDate:         {english: "Invalid date. Use YYYY-MM-DD.", korean: "잘못된 날짜입니다. YYYY-MM-DD 형식으로 입력해 주세요."},
	msgMissingDates:        {english: "Both start and end dates are required.", korean: "시작일과 종료일을 모두 입력해 주세요."},
	msgInvalidRange:        {english: "The start date must not be after the end date.", korean: "시작일은 종료일보다 늦을 수 없습니다."},
	msgSaved:               {english: "Saved.", korean: "저장되었습니다."},
	msgInternal:            {english: "Something went wrong. Please try again.", korean: "처리 중 오류가 발생했습니다. 다시 시도해 주세요."},

	titleLogin:    {english: "Log in", korean: "로그인"},
	titleRegister: {english: "Sign up", korean: "회원가입"},
	titleIndex:    {english: "Home", korean: "홈"},
	titleSchedule: {english: "Daily schedule", korean: "일정 관리"},
	titleSearch:   {english: "Completion summary", korean: "달성 현황"},
}

// translate 返回 key 对应的本地化文本，未知 key 原样返回
func translate(language, key string) string {
	m, ok := messages[key]
	if !ok {
		return key
	}
	return locale.Pick(language, m.english, m.korean)
}
