package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-client/internal/devserver"
	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
	"wallet-client/pkg/monitor"
)

const (
	testMnemonic  = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testRecipient = "0x52908400098527886E0F7030069857D2E4169EE7"
	testToken     = "0xde709f2102306220921060314715629080e2fb77"
)

func newTestBackend(t *testing.T, opts ...Option) (*Client, *devserver.Server) {
	t.Helper()
	srv := devserver.NewServer(devserver.Options{}, nil)
	ts := httptest.NewServer(srv.Engine)
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", opts...), srv
}

// signup 注册用户并创建钱包
func signup(t *testing.T, c *Client, username string) (string, *model.Wallet) {
	t.Helper()
	ctx := context.Background()
	res, err := c.CreateUser(ctx, username, "pw-"+username)
	require.NoError(t, err)
	w, err := c.CreateWallet(ctx, res.Token)
	require.NoError(t, err)
	return res.Token, w
}

func TestCreateUserAndWallet(t *testing.T) {
	c, _ := newTestBackend(t)
	token, w := signup(t, c, "alice")

	assert.NotEmpty(t, token)
	assert.Regexp(t, `^0x[0-9a-fA-F]{40}$`, w.Address)
	assert.NotEmpty(t, w.PrivateKey.Reveal())
	assert.Len(t, strings.Fields(w.Mnemonic.Reveal()), 12)

	_, err := c.CreateUser(context.Background(), "alice", "again")
	require.Error(t, err)
	assert.Equal(t, errno.KindServer, errno.KindOf(err))
	assert.Contains(t, err.Error(), "user already exists")
}

func TestLoginWallet(t *testing.T) {
	c, _ := newTestBackend(t)
	_, w := signup(t, c, "bob")
	ctx := context.Background()

	res, err := c.LoginWallet(ctx, "bob", "pw-bob", "  "+w.Mnemonic.Reveal()+"\n")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, w.Address, res.Wallet.Address)
	assert.Equal(t, w.PrivateKey, res.Wallet.PrivateKey)

	_, err = c.LoginWallet(ctx, "bob", "wrong", w.Mnemonic.Reveal())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrInvalidCredentials))
	re, ok := AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.Equal(t, errno.KindServer, re.Kind)
}

func TestLoginWallet_RejectsInvalidMnemonicLocally(t *testing.T) {
	c, srv := newTestBackend(t)

	_, err := c.LoginWallet(context.Background(), "bob", "pw", "not a real phrase")
	assert.True(t, errors.Is(err, errno.ErrInvalidMnemonic))
	assert.Equal(t, errno.KindValidation, errno.KindOf(err))
	assert.Zero(t, srv.Calls("/login-wallet"))
}

func TestImportWallet(t *testing.T) {
	c, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, c.ImportWallet(ctx, "carol", "pw", testMnemonic))

	res, err := c.LoginWallet(ctx, "carol", "pw", testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, res.Wallet.Mnemonic.Reveal())
}

func TestSendTransaction_InvalidRecipientMakesNoCall(t *testing.T) {
	c, srv := newTestBackend(t)

	_, err := c.SendTransaction(context.Background(), SendTransactionRequest{
		SenderPrivateKey: "0xabc",
		ToAddress:        "0x1234",
		Amount:           "0.1",
		NetworkName:      "Sepolia",
		Token:            "session",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrInvalidAddress))
	assert.Equal(t, errno.KindValidation, errno.KindOf(err))
	assert.Zero(t, srv.Calls("/send-transaction"))
}

func TestAuthenticatedCallsRequireToken(t *testing.T) {
	c, srv := newTestBackend(t)
	ctx := context.Background()

	_, err := c.ListTokens(ctx, "")
	assert.True(t, errors.Is(err, errno.ErrAuthRequired))
	assert.Equal(t, errno.KindAuth, errno.KindOf(err))

	_, err = c.SendERC20Token(ctx, SendTokenRequest{ToAddress: testRecipient, TokenAddress: testToken, Amount: "1"})
	assert.True(t, errors.Is(err, errno.ErrAuthRequired))

	assert.Zero(t, srv.Calls("/list-token"))
	assert.Zero(t, srv.Calls("/send-token"))
}

func TestSendTransaction(t *testing.T) {
	c, _ := newTestBackend(t)
	token, w := signup(t, c, "dave")
	ctx := context.Background()

	id, err := c.SendTransaction(ctx, SendTransactionRequest{
		SenderPrivateKey: w.PrivateKey,
		ToAddress:        testRecipient,
		Amount:           "0,25",
		NetworkName:      "Sepolia",
		Token:            token,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	balance, err := c.GetBalance(ctx, w.Address, "Sepolia")
	require.NoError(t, err)
	assert.Equal(t, "0.74998", balance)

	txs, err := c.ListTransactions(ctx, token, "Sepolia")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, id, txs[0].Hash)
	assert.Equal(t, "0.25", txs[0].Amount)

	others, err := c.ListTransactions(ctx, token, "Polygon")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestSendERC20Token_ServerFailureMessage(t *testing.T) {
	c, srv := newTestBackend(t)
	token, w := signup(t, c, "erin")
	srv.InjectJSON("/send-token", http.StatusOK, `{"success":false,"error":"X"}`)

	_, err := c.SendERC20Token(context.Background(), SendTokenRequest{
		FromPrivateKey: w.PrivateKey,
		ToAddress:      testRecipient,
		TokenAddress:   testToken,
		Amount:         "5",
		NetworkName:    "Sepolia",
		Token:          token,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X")
	assert.True(t, errors.Is(err, errno.ErrServerRejected))
	assert.Equal(t, errno.KindServer, errno.KindOf(err))
}

func TestSendERC20Token_SendsTokenAndUserToken(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send-token", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`{"success":true,"transactionId":"0xfeed"}`))
	}))
	defer ts.Close()

	id, err := New(ts.URL).SendERC20Token(context.Background(), SendTokenRequest{
		FromPrivateKey: "0xkey",
		ToAddress:      testRecipient,
		TokenAddress:   testToken,
		Amount:         "1,5",
		NetworkName:    "Polygon",
		Token:          "session-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", id)
	assert.Equal(t, "session-token", body["token"])
	assert.Equal(t, "session-token", body["userToken"])
	assert.Equal(t, "0xkey", body["fromPrivateKey"])
	assert.Equal(t, "1.5", body["amount"])
}

func TestResponseClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        errno.Errno
		wantKind    errno.Kind
		wantMsg     string
	}{
		{"json error field", http.StatusBadRequest, "application/json", `{"error":"bad network"}`, errno.ErrServerRejected, errno.KindServer, "bad network"},
		{"json message field", http.StatusNotFound, "application/json", `{"message":"no such wallet"}`, errno.ErrServerRejected, errno.KindServer, "no such wallet"},
		{"plain text", http.StatusBadGateway, "text/plain", "upstream down", errno.ErrServerRejected, errno.KindServer, "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "text/plain", "", errno.ErrServerRejected, errno.KindServer, "Service Unavailable"},
		{"2xx not json", http.StatusOK, "text/html", "<html>oops</html>", errno.ErrBadResponse, errno.KindTransport, "Unparseable"},
		{"success false", http.StatusOK, "application/json", `{"success":false,"message":"rpc timeout"}`, errno.ErrServerRejected, errno.KindServer, "rpc timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestBackend(t)
			srv.Inject("/get-balance", tt.status, tt.contentType, tt.body)

			_, err := c.GetBalance(context.Background(), testRecipient, "Ethereum")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			assert.Equal(t, tt.wantKind, errno.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url).GetBalance(context.Background(), testRecipient, "Ethereum")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrTransport))
	assert.Equal(t, errno.KindTransport, errno.KindOf(err))
}

func TestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	_, err := New(ts.URL, WithTimeout(50*time.Millisecond)).GetBalance(context.Background(), testRecipient, "Ethereum")
	require.Error(t, err)
	assert.Equal(t, errno.KindTransport, errno.KindOf(err))
}

func TestRequestHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)
		_, _ = w.Write([]byte(`{"balance":"2.5"}`))
	}))
	defer ts.Close()

	balance, err := New(ts.URL).GetBalance(context.Background(), testRecipient, "Ethereum")
	require.NoError(t, err)
	assert.Equal(t, "2.5", balance)
}

func TestChangePassword_TextBody(t *testing.T) {
	c, _ := newTestBackend(t)
	token, _ := signup(t, c, "frank")
	ctx := context.Background()

	require.NoError(t, c.ChangePassword(ctx, token, "pw-frank", "new-secret"))

	err := c.ChangePassword(ctx, token, "pw-frank", "other")
	require.Error(t, err)
	assert.Equal(t, errno.KindServer, errno.KindOf(err))
}

func TestAddTokenThenList(t *testing.T) {
	c, _ := newTestBackend(t)
	token, w := signup(t, c, "grace")
	ctx := context.Background()

	require.NoError(t, c.AddToken(ctx, AddTokenRequest{
		TokenAddress: testToken,
		Token:        token,
		NetworkName:  "Sepolia",
		TokenName:    "Test Token",
		TokenSymbol:  "TST",
		TokenDecimal: 18,
	}))

	tokens, err := c.ListTokens(ctx, token)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, model.Token{Address: testToken, Network: "Sepolia", Name: "Test Token", Symbol: "TST", Decimals: 18}, tokens[0])

	balance, err := c.GetTokenBalance(ctx, "Sepolia", testToken, w.Address)
	require.NoError(t, err)
	assert.Equal(t, "100", balance)
}

func TestCustomNetworks(t *testing.T) {
	c, srv := newTestBackend(t)
	token, _ := signup(t, c, "heidi")
	ctx := context.Background()

	n := model.CustomNetwork{
		NetworkName:    "Local-L2",
		CurrencyName:   "Ether",
		CurrencySymbol: "ETH",
		RpcUrl:         "http://localhost:8545",
		ChainId:        "1337",
		Decimals:       18,
	}
	require.NoError(t, c.AddCustomNetwork(ctx, n, token))

	list, err := c.ListCustomNetworks(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, []model.CustomNetwork{n}, list)

	require.NoError(t, c.SelectCustomNetwork(ctx, n, token))
	require.NoError(t, c.SelectNetwork(ctx, "Polygon"))

	err = c.SelectNetwork(ctx, "Nowhere")
	assert.Equal(t, errno.KindServer, errno.KindOf(err))

	bad := n
	bad.RpcUrl = "not a url"
	err = c.AddCustomNetwork(ctx, bad, token)
	assert.Equal(t, errno.KindValidation, errno.KindOf(err))
	assert.Equal(t, 1, srv.Calls("/add-custom-network"))
}

func TestTwoFactorLifecycle(t *testing.T) {
	c, _ := newTestBackend(t)
	token, _ := signup(t, c, "ivan")
	ctx := context.Background()

	enabled, err := c.Check2FA(ctx, token)
	require.NoError(t, err)
	assert.False(t, enabled)

	setup, err := c.Enable2FA(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret.Reveal())
	assert.Contains(t, setup.QRCodeImageURL, "otpauth://")

	ok, err := c.Deploy2FA(ctx, token, "000000")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, errno.ErrTwoFactorRejected))

	ok, err = c.Deploy2FA(ctx, token, "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	enabled, err = c.Check2FA(ctx, token)
	require.NoError(t, err)
	assert.True(t, enabled)

	ok, err = c.Verify2FA(ctx, token, "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Verify2FA(ctx, token, "")
	assert.True(t, errors.Is(err, errno.ErrEmptyField))

	require.NoError(t, c.Disable2FA(ctx, token))
	enabled, err = c.Check2FA(ctx, token)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestGetTransactionFee(t *testing.T) {
	c, _ := newTestBackend(t)

	fee, err := c.GetTransactionFee(context.Background(), "Sepolia")
	require.NoError(t, err)
	assert.Equal(t, "0.00002", fee.GasPrice)
	assert.Contains(t, fee.Extra, "networkName")
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitor.NewClientMetrics(reg)
	c, srv := newTestBackend(t, WithMetrics(m))
	srv.InjectJSON("/get-balance", http.StatusBadRequest, `{"error":"nope"}`)

	_, _ = c.GetTransactionFee(context.Background(), "Sepolia")
	_, _ = c.GetBalance(context.Background(), testRecipient, "Sepolia")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("getTransactionFee", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("getBalance", "ServerRejected")))
}
