package session

import (
	"context"
	"strings"
	"sync"

	"wallet-client/internal/api"
	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
)

const (
	testMnemonic  = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAddress   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testRecipient = "0x52908400098527886E0F7030069857D2E4169EE7"
	testTokenAddr = "0xde709f2102306220921060314715629080e2fb77"
	testCode      = "123456"
)

func testWallet() model.Wallet {
	return model.Wallet{Address: testAddress, Mnemonic: testMnemonic, PrivateKey: "0xprivate"}
}

// fakeBackend 是 Backend 的内存实现; hook 字段为 nil 时使用默认行为
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	twoFactor bool
	check2FA  error
	addresses map[string]string // username -> 钱包地址, 缺省为 testAddress
	balance   string
	fee       string
	tokens    []model.Token

	sent       []api.SendTransactionRequest
	sentTokens []api.SendTokenRequest

	balanceHook      func(ctx context.Context, address, network string) (string, error)
	transactionsHook func(ctx context.Context, network string) ([]model.Transaction, error)
	tokenBalanceHook func(tokenAddress string) (string, error)
	sendTokenErr     error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:   make(map[string]int),
		balance: "1",
		fee:     "0.00002",
	}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) CreateUser(_ context.Context, username, password string) (*api.CreateUserResult, error) {
	f.hit("CreateUser")
	return &api.CreateUserResult{Success: true, Token: "token-" + username}, nil
}

func (f *fakeBackend) CreateWallet(_ context.Context, token string) (*model.Wallet, error) {
	f.hit("CreateWallet")
	w := testWallet()
	return &w, nil
}

func (f *fakeBackend) LoginWallet(_ context.Context, username, password, mnemonic string) (*api.LoginResult, error) {
	f.hit("LoginWallet")
	if password != "pw" {
		return nil, errno.ErrInvalidCredentials
	}
	w := testWallet()
	f.mu.Lock()
	if addr, ok := f.addresses[username]; ok {
		w.Address = addr
	}
	f.mu.Unlock()
	return &api.LoginResult{Wallet: w, Token: "token-" + username}, nil
}

func (f *fakeBackend) ImportWallet(_ context.Context, username, password, mnemonic string) error {
	f.hit("ImportWallet")
	return nil
}

func (f *fakeBackend) ChangePassword(_ context.Context, token, currentPassword, newPassword string) error {
	f.hit("ChangePassword")
	return nil
}

func (f *fakeBackend) SelectNetwork(_ context.Context, networkName string) error {
	f.hit("SelectNetwork")
	return nil
}

func (f *fakeBackend) SelectCustomNetwork(_ context.Context, network model.CustomNetwork, token string) error {
	f.hit("SelectCustomNetwork")
	return nil
}

func (f *fakeBackend) AddCustomNetwork(_ context.Context, network model.CustomNetwork, token string) error {
	f.hit("AddCustomNetwork")
	return nil
}

func (f *fakeBackend) ListCustomNetworks(_ context.Context, token string) ([]model.CustomNetwork, error) {
	f.hit("ListCustomNetworks")
	return []model.CustomNetwork{{NetworkName: "Local-L2", ChainId: "1337"}}, nil
}

func (f *fakeBackend) GetBalance(ctx context.Context, address, networkName string) (string, error) {
	f.hit("GetBalance")
	if f.balanceHook != nil {
		return f.balanceHook(ctx, address, networkName)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeBackend) GetTransactionFee(_ context.Context, networkName string) (*model.FeeEstimate, error) {
	f.hit("GetTransactionFee")
	return &model.FeeEstimate{GasPrice: f.fee}, nil
}

func (f *fakeBackend) ListTransactions(ctx context.Context, token, networkName string) ([]model.Transaction, error) {
	f.hit("ListTransactions")
	if f.transactionsHook != nil {
		return f.transactionsHook(ctx, networkName)
	}
	return []model.Transaction{
		{FromAddress: testAddress, ToAddress: testRecipient, Amount: "0.1", Hash: "0x01", Network: networkName},
		{FromAddress: testAddress, ToAddress: testRecipient, Amount: "0.2", Hash: "0x02", Network: "Other"},
	}, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, req api.SendTransactionRequest) (string, error) {
	f.hit("SendTransaction")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return "0xtx", nil
}

// AddToken 回显: 之后的 ListTokens 返回刚添加的代币
func (f *fakeBackend) AddToken(_ context.Context, req api.AddTokenRequest) error {
	f.hit("AddToken")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, model.Token{
		Address:  req.TokenAddress,
		Network:  req.NetworkName,
		Name:     req.TokenName,
		Symbol:   req.TokenSymbol,
		Decimals: req.TokenDecimal,
	})
	return nil
}

func (f *fakeBackend) ListTokens(_ context.Context, token string) ([]model.Token, error) {
	f.hit("ListTokens")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Token{}, f.tokens...), nil
}

func (f *fakeBackend) GetTokenBalance(_ context.Context, networkName, tokenAddress, walletAddress string) (string, error) {
	f.hit("GetTokenBalance")
	if f.tokenBalanceHook != nil {
		return f.tokenBalanceHook(tokenAddress)
	}
	return "100", nil
}

func (f *fakeBackend) SendERC20Token(_ context.Context, req api.SendTokenRequest) (string, error) {
	f.hit("SendERC20Token")
	if f.sendTokenErr != nil {
		return "", f.sendTokenErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentTokens = append(f.sentTokens, req)
	return "0xtokentx", nil
}

func (f *fakeBackend) Check2FA(_ context.Context, token string) (bool, error) {
	f.hit("Check2FA")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.check2FA != nil {
		return false, f.check2FA
	}
	return f.twoFactor, nil
}

func (f *fakeBackend) Enable2FA(_ context.Context, token string) (*model.TwoFactorSetup, error) {
	f.hit("Enable2FA")
	return &model.TwoFactorSetup{QRCodeImageURL: "otpauth://totp/x", Secret: "JBSWY3DPEHPK3PXP"}, nil
}

func (f *fakeBackend) Deploy2FA(_ context.Context, token, code string) (bool, error) {
	f.hit("Deploy2FA")
	if code != testCode {
		return false, errno.ErrTwoFactorRejected
	}
	f.mu.Lock()
	f.twoFactor = true
	f.mu.Unlock()
	return true, nil
}

func (f *fakeBackend) Verify2FA(_ context.Context, token, code string) (bool, error) {
	f.hit("Verify2FA")
	if strings.TrimSpace(code) != testCode {
		return false, errno.ErrTwoFactorRejected
	}
	return true, nil
}

func (f *fakeBackend) Disable2FA(_ context.Context, token string) error {
	f.hit("Disable2FA")
	f.mu.Lock()
	f.twoFactor = false
	f.mu.Unlock()
	return nil
}
