package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
)

const otherToken = "0x1111111111111111111111111111111111111111"

func seededTokens() []model.Token {
	return []model.Token{
		{Address: testTokenAddr, Network: model.DefaultNetwork, Symbol: "TST", Decimals: 18},
		{Address: otherToken, Network: "Polygon", Symbol: "POL", Decimals: 18},
	}
}

func tokenBalances(tokens []model.Token) map[string]string {
	out := make(map[string]string, len(tokens))
	for _, t := range tokens {
		out[t.Symbol] = t.Balance
	}
	return out
}

func TestLoginLoadsBalanceAndTokens(t *testing.T) {
	fb := newFakeBackend()
	fb.tokens = seededTokens()
	s, _ := loggedIn(t, fb)

	st := s.Snapshot()
	assert.Equal(t, "1", st.Balance)
	assert.Len(t, st.Tokens, 2)
	assert.Equal(t, 1, fb.Calls("ListTokens"))
	assert.Equal(t, 1, fb.Calls("GetBalance"))
	// 只查询所选网络上的代币
	assert.Equal(t, 1, fb.Calls("GetTokenBalance"))
	assert.Equal(t, map[string]string{"TST": "100"}, tokenBalances(s.TokensForNetwork()))
}

func TestCreateWalletLoadsBalance(t *testing.T) {
	fb := newFakeBackend()
	s, _ := newSession(t, fb)

	_, err := s.CreateUser(context.Background(), "alice", "pw", "pw")
	require.NoError(t, err)
	assert.Equal(t, "1", s.Snapshot().Balance)
	assert.Equal(t, 1, fb.Calls("GetBalance"))
}

func TestLoginShowsLoadingUntilBalanceArrives(t *testing.T) {
	fb := newFakeBackend()
	s, _ := newSession(t, fb)

	started := make(chan struct{})
	release := make(chan struct{})
	fb.balanceHook = func(context.Context, string, string) (string, error) {
		close(started)
		<-release
		return "9", nil
	}

	done := make(chan error)
	go func() {
		_, err := s.Login(context.Background(), "alice", "pw", testMnemonic)
		done <- err
	}()
	<-started

	st := s.Snapshot()
	require.NotNil(t, st.Wallet)
	assert.Equal(t, testAddress, st.Wallet.Address)
	assert.Equal(t, model.BalanceLoading, st.Balance)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "9", s.Snapshot().Balance)
}

func TestSelectNetworkShowsLoading(t *testing.T) {
	fb := newFakeBackend()
	fb.tokens = seededTokens()
	s, _ := loggedIn(t, fb)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	fb.balanceHook = func(context.Context, string, string) (string, error) {
		close(started)
		<-release
		return "5", nil
	}
	fb.tokenBalanceHook = func(string) (string, error) {
		<-release
		return "3", nil
	}

	done := make(chan error)
	go func() { done <- s.SelectBuiltinNetwork(ctx, "Polygon") }()
	<-started

	assert.Equal(t, model.BalanceLoading, s.Snapshot().Balance)
	assert.Equal(t, map[string]string{"POL": model.BalanceLoading}, tokenBalances(s.TokensForNetwork()))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "5", s.Snapshot().Balance)
	assert.Equal(t, map[string]string{"POL": "3"}, tokenBalances(s.TokensForNetwork()))
}

func TestSwitchAccountDropsPreviousState(t *testing.T) {
	fb := newFakeBackend()
	fb.addresses = map[string]string{"bob": testRecipient}
	fb.tokens = seededTokens()
	fb.balanceHook = func(_ context.Context, address, _ string) (string, error) {
		if address == testRecipient {
			return "7", nil
		}
		return "42", nil
	}
	s, prefs := loggedIn(t, fb)
	ctx := context.Background()
	require.Equal(t, "42", s.Snapshot().Balance)

	_, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	_, err = s.ListCustomNetworks(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SelectBuiltinNetwork(ctx, "Polygon"))

	// alice 的转账等待验证码时切换到 bob
	fb.mu.Lock()
	fb.twoFactor = true
	fb.mu.Unlock()
	_, err = s.CheckTwoFactor(ctx)
	require.NoError(t, err)
	res, err := s.SendTransaction(ctx, testRecipient, "0.1")
	require.NoError(t, err)
	require.True(t, res.Pending)

	fb.mu.Lock()
	fb.tokens = nil
	fb.mu.Unlock()
	_, err = s.Login(ctx, "bob", "pw", testMnemonic)
	require.NoError(t, err)

	_, pending := s.PendingAction()
	assert.False(t, pending)
	_, err = s.Verify2FA(ctx, testCode)
	assert.True(t, errors.Is(err, errno.ErrNoPendingAction))
	assert.Empty(t, fb.sent)

	st := s.Snapshot()
	assert.Equal(t, "bob", st.User.Username)
	assert.Equal(t, testRecipient, st.Wallet.Address)
	assert.Equal(t, "Polygon", st.SelectedNetwork)
	assert.Equal(t, "7", st.Balance)
	assert.Empty(t, st.Tokens)
	assert.Empty(t, st.Transactions)
	assert.Empty(t, st.CustomNetworks)

	cached, err := prefs.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, cached)
	custom, err := prefs.CustomNetworks(ctx)
	require.NoError(t, err)
	assert.Empty(t, custom)
	stored, err := prefs.Wallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, testRecipient, stored.Address)
	network, _ := prefs.SelectedNetwork(ctx)
	assert.Equal(t, "Polygon", network)
}

func TestStaleBalanceFromPreviousAccountDropped(t *testing.T) {
	fb := newFakeBackend()
	fb.addresses = map[string]string{"bob": testRecipient}
	s, _ := loggedIn(t, fb)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	fb.balanceHook = func(_ context.Context, address, _ string) (string, error) {
		if address == testAddress {
			close(started)
			<-release
			return "42", nil
		}
		return "7", nil
	}

	done := make(chan error)
	go func() { done <- s.RefreshBalance(ctx) }()
	<-started

	_, err := s.Login(ctx, "bob", "pw", testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, "7", s.Snapshot().Balance)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "7", s.Snapshot().Balance)
}

func TestLoginTwoFactorFallbackIsPerAccount(t *testing.T) {
	fb := newFakeBackend()
	fb.twoFactor = true
	s, _ := loggedIn(t, fb)
	ctx := context.Background()
	require.True(t, s.Snapshot().TwoFactorEnabled)

	fb.mu.Lock()
	fb.check2FA = errno.ErrTransport
	fb.mu.Unlock()

	due, err := s.Login(ctx, "alice", "pw", testMnemonic)
	require.NoError(t, err)
	assert.True(t, due)
	assert.True(t, s.Snapshot().TwoFactorEnabled)

	due, err = s.Login(ctx, "bob", "pw", testMnemonic)
	require.NoError(t, err)
	assert.False(t, due)
	assert.False(t, s.Snapshot().TwoFactorEnabled)
}
