package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"wallet-client/internal/session"
	"wallet-client/pkg/errno"
)

// maxCodeAttempts 2FA 验证码最多输入次数
const maxCodeAttempts = 3

var (
	stdin      = bufio.NewReader(os.Stdin)
	isTerminal = term.IsTerminal
)

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret 终端下不回显输入; 管道输入时按普通行读取
func promptSecret(label string) (string, error) {
	fd := int(syscall.Stdin)
	if !isTerminal(fd) {
		return prompt(label)
	}
	fmt.Print(label)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func flagOrPrompt(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return prompt(label)
}

// settle 操作被 2FA 挂起时提示输入验证码, 直到执行完成或次数用尽
func settle(ctx context.Context, res session.Result, err error) (session.Result, error) {
	for attempt := 1; err == nil && res.Pending; attempt++ {
		code, perr := promptSecret("请输入 2FA 验证码: ")
		if perr != nil {
			err = perr
			break
		}
		res, err = app.sess.Verify2FA(ctx, code)
		if errors.Is(err, errno.ErrTwoFactorRejected) && attempt < maxCodeAttempts {
			fmt.Println("验证码错误，请重试")
			err = nil
		}
	}
	if err != nil {
		app.sess.CancelPending()
	}
	return res, err
}

// verifyLogin 登录后账户开启了 2FA 时校验一次验证码
func verifyLogin(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		code, err := promptSecret("该账户已开启 2FA，请输入验证码: ")
		if err != nil {
			return err
		}
		err = app.sess.VerifyLogin(ctx, code)
		if err == nil || attempt == maxCodeAttempts || !errors.Is(err, errno.ErrTwoFactorRejected) {
			return err
		}
		fmt.Println("验证码错误，请重试")
	}
}

func requireLogin() error {
	if !app.sess.Snapshot().Authenticated() {
		return errors.New("请先登录: wallet-cli user login")
	}
	return nil
}
