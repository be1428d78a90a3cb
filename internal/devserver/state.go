package devserver

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"

	"wallet-client/internal/model"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username, password or mnemonic")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNoWallet           = errors.New("no wallet for this user")
	ErrInsufficient       = errors.New("insufficient funds")
	ErrWrongKey           = errors.New("private key does not belong to this user")
	ErrInvalidCode        = errors.New("invalid 2FA code")
	ErrNetworkExists      = errors.New("network already exists")
	ErrUnknownNetwork     = errors.New("unknown network")
)

// Options 控制模拟后端的初始数据
type Options struct {
	// TwoFactorCode is the only code the fake authenticator accepts.
	TwoFactorCode string
	// StartingBalance is credited to every new wallet on every network.
	StartingBalance string
	// TokenBalance is the balance reported for any freshly added token.
	TokenBalance string
	GasPrice     string
}

func (o Options) withDefaults() Options {
	if o.TwoFactorCode == "" {
		o.TwoFactorCode = "123456"
	}
	if o.StartingBalance == "" {
		o.StartingBalance = "1"
	}
	if o.TokenBalance == "" {
		o.TokenBalance = "100"
	}
	if o.GasPrice == "" {
		o.GasPrice = "0.00002"
	}
	return o
}

type account struct {
	username string
	password string
	wallet   *model.Wallet

	customNetworks []model.CustomNetwork
	tokens         []model.Token
	transactions   []model.Transaction

	twoFactorSecret  string
	twoFactorEnabled bool
}

// State 是所有账户的内存数据, 所有方法并发安全
type State struct {
	mu   sync.Mutex
	opts Options

	accounts map[string]*account // username -> account
	sessions map[string]string   // token -> username

	balances      map[string]decimal.Decimal // address|network -> balance
	tokenBalances map[string]decimal.Decimal // wallet|token -> balance
}

func NewState(opts Options) *State {
	return &State{
		opts:          opts.withDefaults(),
		accounts:      make(map[string]*account),
		sessions:      make(map[string]string),
		balances:      make(map[string]decimal.Decimal),
		tokenBalances: make(map[string]decimal.Decimal),
	}
}

func (s *State) CreateUser(username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[username]; ok {
		return "", ErrUserExists
	}
	s.accounts[username] = &account{username: username, password: password}
	return s.newSession(username), nil
}

func (s *State) CreateWallet(token string) (*model.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return nil, err
	}
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	w, err := newWallet(mnemonic)
	if err != nil {
		return nil, err
	}
	acc.wallet = w
	out := *w
	return &out, nil
}

func (s *State) Login(username, password, mnemonic string) (*model.Wallet, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[username]
	if !ok || acc.password != password || acc.wallet == nil || acc.wallet.Mnemonic.Reveal() != mnemonic {
		return nil, "", ErrInvalidCredentials
	}
	out := *acc.wallet
	return &out, s.newSession(username), nil
}

func (s *State) Import(username, password, mnemonic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidCredentials
	}
	if _, ok := s.accounts[username]; ok {
		return ErrUserExists
	}
	w, err := newWallet(mnemonic)
	if err != nil {
		return err
	}
	s.accounts[username] = &account{username: username, password: password, wallet: w}
	return nil
}

func (s *State) ChangePassword(token, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return err
	}
	if acc.password != current {
		return ErrInvalidCredentials
	}
	acc.password = next
	return nil
}

func (s *State) AddCustomNetwork(token string, n model.CustomNetwork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return err
	}
	if model.IsKnownNetwork(n.NetworkName, acc.customNetworks) {
		return ErrNetworkExists
	}
	acc.customNetworks = append(acc.customNetworks, n)
	return nil
}

func (s *State) CustomNetworks(token string) ([]model.CustomNetwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return nil, err
	}
	return append([]model.CustomNetwork{}, acc.customNetworks...), nil
}

// SelectNetwork accepts builtins for anyone and custom networks for their owner.
func (s *State) SelectNetwork(token, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if model.IsBuiltinNetwork(name) {
		return nil
	}
	acc, err := s.byToken(token)
	if err != nil {
		return ErrUnknownNetwork
	}
	if !model.IsKnownNetwork(name, acc.customNetworks) {
		return ErrUnknownNetwork
	}
	return nil
}

func (s *State) Balance(address, network string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(address, network)
}

func (s *State) balanceLocked(address, network string) decimal.Decimal {
	key := strings.ToLower(address) + "|" + network
	if b, ok := s.balances[key]; ok {
		return b
	}
	if s.ownsAddress(address) {
		b := decimal.RequireFromString(s.opts.StartingBalance)
		s.balances[key] = b
		return b
	}
	return decimal.Zero
}

func (s *State) Transactions(token, network string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return nil, err
	}
	out := make([]model.Transaction, 0, len(acc.transactions))
	for _, tx := range acc.transactions {
		if network == "" || tx.Network == network {
			out = append(out, tx)
		}
	}
	return out, nil
}

// SendNative 转账原生币, 扣除 amount + gasPrice
func (s *State) SendNative(token, privateKey, to, network string, amount decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.walletOwner(token, privateKey)
	if err != nil {
		return "", err
	}
	from := acc.wallet.Address
	cost := amount.Add(decimal.RequireFromString(s.opts.GasPrice))
	bal := s.balanceLocked(from, network)
	if bal.LessThan(cost) {
		return "", ErrInsufficient
	}
	s.balances[strings.ToLower(from)+"|"+network] = bal.Sub(cost)
	toKey := strings.ToLower(to) + "|" + network
	s.balances[toKey] = s.balanceLocked(to, network).Add(amount)

	return s.recordLocked(acc, from, to, amount, network), nil
}

func (s *State) AddToken(token string, t model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return err
	}
	acc.tokens = append(acc.tokens, t)
	return nil
}

func (s *State) Tokens(token string) ([]model.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return nil, err
	}
	return append([]model.Token{}, acc.tokens...), nil
}

func (s *State) TokenBalance(network, tokenAddress, walletAddress string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenBalanceLocked(network, tokenAddress, walletAddress)
}

func (s *State) tokenBalanceLocked(network, tokenAddress, walletAddress string) decimal.Decimal {
	key := strings.ToLower(walletAddress) + "|" + strings.ToLower(tokenAddress) + "|" + network
	if b, ok := s.tokenBalances[key]; ok {
		return b
	}
	if s.ownsAddress(walletAddress) {
		b := decimal.RequireFromString(s.opts.TokenBalance)
		s.tokenBalances[key] = b
		return b
	}
	return decimal.Zero
}

func (s *State) SendToken(token, privateKey, tokenAddress, to, network string, amount decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.walletOwner(token, privateKey)
	if err != nil {
		return "", err
	}
	from := acc.wallet.Address
	bal := s.tokenBalanceLocked(network, tokenAddress, from)
	if bal.LessThan(amount) {
		return "", ErrInsufficient
	}
	s.tokenBalances[strings.ToLower(from)+"|"+strings.ToLower(tokenAddress)+"|"+network] = bal.Sub(amount)
	return s.recordLocked(acc, from, to, amount, network), nil
}

func (s *State) GasPrice() string {
	return s.opts.GasPrice
}

func (s *State) TwoFactorEnabled(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return false, err
	}
	return acc.twoFactorEnabled, nil
}

// EnableTwoFactor 生成一个新的 TOTP secret, 需要 DeployTwoFactor 确认后才生效
func (s *State) EnableTwoFactor(token string) (*model.TwoFactorSetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	acc.twoFactorSecret = base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return &model.TwoFactorSetup{
		QRCodeImageURL: "otpauth://totp/Wallet:" + acc.username + "?secret=" + acc.twoFactorSecret + "&issuer=Wallet",
		Secret:         model.Secret(acc.twoFactorSecret),
	}, nil
}

func (s *State) DeployTwoFactor(token, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return err
	}
	if acc.twoFactorSecret == "" || code != s.opts.TwoFactorCode {
		return ErrInvalidCode
	}
	acc.twoFactorEnabled = true
	return nil
}

func (s *State) VerifyTwoFactor(token, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.byToken(token); err != nil {
		return err
	}
	if code != s.opts.TwoFactorCode {
		return ErrInvalidCode
	}
	return nil
}

func (s *State) DisableTwoFactor(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.byToken(token)
	if err != nil {
		return err
	}
	acc.twoFactorEnabled = false
	acc.twoFactorSecret = ""
	return nil
}

func (s *State) newSession(username string) string {
	token := uuid.NewString()
	s.sessions[token] = username
	return token
}

func (s *State) byToken(token string) (*account, error) {
	username, ok := s.sessions[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return s.accounts[username], nil
}

func (s *State) walletOwner(token, privateKey string) (*account, error) {
	acc, err := s.byToken(token)
	if err != nil {
		return nil, err
	}
	if acc.wallet == nil {
		return nil, ErrNoWallet
	}
	if acc.wallet.PrivateKey.Reveal() != privateKey {
		return nil, ErrWrongKey
	}
	return acc, nil
}

func (s *State) ownsAddress(address string) bool {
	for _, acc := range s.accounts {
		if acc.wallet != nil && strings.EqualFold(acc.wallet.Address, address) {
			return true
		}
	}
	return false
}

func (s *State) recordLocked(acc *account, from, to string, amount decimal.Decimal, network string) string {
	hash := crypto.Keccak256Hash([]byte(uuid.NewString())).Hex()
	acc.transactions = append(acc.transactions, model.Transaction{
		FromAddress: from,
		ToAddress:   to,
		Amount:      amount.String(),
		Hash:        hash,
		Network:     network,
	})
	return hash
}

// newWallet 模拟后端生成钱包: 私钥随机生成, 与助记词无派生关系
func newWallet(mnemonic string) (*model.Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &model.Wallet{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Mnemonic:   model.Secret(mnemonic),
		PrivateKey: model.Secret(hexutil.Encode(crypto.FromECDSA(key))),
	}, nil
}
