package cmd

import (
	"bufio"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-client/internal/api"
	"wallet-client/internal/devserver"
	"wallet-client/internal/session"
	"wallet-client/internal/store"
	"wallet-client/pkg/errno"
)

const recipient = "0x52908400098527886E0F7030069857D2E4169EE7"

// withApp 用 devserver 组装 app, 并以 input 代替标准输入
func withApp(t *testing.T, input string) *devserver.Server {
	t.Helper()
	srv := devserver.NewServer(devserver.Options{}, nil)
	ts := httptest.NewServer(srv.Engine)
	t.Cleanup(ts.Close)

	backend := store.NewMemoryBackend()
	app = &walletApp{
		sess:    session.New(api.New(ts.URL), store.NewPreferences(backend)),
		backend: backend,
	}
	stdin = bufio.NewReader(strings.NewReader(input))
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { app = nil })
	return srv
}

func enableTwoFactor(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := app.sess.CreateUser(ctx, "alice", "pw", "pw")
	require.NoError(t, err)
	_, err = app.sess.Enable2FA(ctx)
	require.NoError(t, err)
	require.NoError(t, app.sess.Deploy2FA(ctx, "123456"))
}

func TestSettleRetriesWrongCode(t *testing.T) {
	srv := withApp(t, "000000\n123456\n")
	ctx := context.Background()
	enableTwoFactor(t, ctx)

	res, err := app.sess.SendTransaction(ctx, recipient, "0.1")
	res, err = settle(ctx, res, err)
	require.NoError(t, err)
	assert.False(t, res.Pending)
	assert.Equal(t, 1, srv.Calls("/send-transaction"))
}

func TestSettleGivesUpAfterMaxAttempts(t *testing.T) {
	srv := withApp(t, strings.Repeat("000000\n", maxCodeAttempts))
	ctx := context.Background()
	enableTwoFactor(t, ctx)

	res, err := app.sess.SendTransaction(ctx, recipient, "0.1")
	_, err = settle(ctx, res, err)
	assert.True(t, errors.Is(err, errno.ErrTwoFactorRejected))
	assert.Zero(t, srv.Calls("/send-transaction"))

	_, pending := app.sess.PendingAction()
	assert.False(t, pending)
}

func TestSettlePassesThroughWhenNotPending(t *testing.T) {
	withApp(t, "")
	res, err := settle(context.Background(), session.Result{Value: "0xabc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", res.Value)
}

func TestFlagOrPrompt(t *testing.T) {
	withApp(t, "  bob \n")

	v, err := flagOrPrompt("alice", "name: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	v, err = flagOrPrompt("", "name: ")
	require.NoError(t, err)
	assert.Equal(t, "bob", v)
}
