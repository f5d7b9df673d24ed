package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/routinelog/internal/config"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/service"
	"golang.org/x/term"
)

// readPassword 便于测试替换终端读取
var readPassword = term.ReadPassword

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseTarget())
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	defer func() { _ = db.Close(gdb) }()

	accounts := service.NewAccountService(gdb, cfg.BcryptCost)
	if err := run(context.Background(), accounts, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal("创建用户失败:", err)
	}
}

func run(ctx context.Context, accounts *service.AccountService, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("init_user", flag.ContinueOnError)
	fs.SetOutput(stdout)
	username := fs.String("username", "admin", "username to create")
	password := fs.String("password", os.Getenv("INIT_USER_PASSWORD"), "password; prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		pw, err := promptPassword(stdin, stdout)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*password = pw
	}

	user, err := accounts.Register(ctx, *username, *password)
	if errors.Is(err, service.ErrDuplicateUsername) {
		fmt.Fprintf(stdout, "用户 %s 已存在，无需初始化\n", strings.TrimSpace(*username))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "用户创建成功: %s (id=%d)\n", user.Username, user.ID)
	return nil
}

// promptPassword 在终端上不回显地读取密码，非终端输入时读取一行
func promptPassword(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Password: ")
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
