package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"wallet-client/internal/model"
	"wallet-client/pkg/keystore"
)

// ErrLocked is returned when the stored wallet is sealed and no (or a wrong)
// passphrase was configured.
var ErrLocked = errors.New("stored wallet is encrypted: set store.passphrase to unlock it")

// Preferences is the typed view over a Backend.
type Preferences struct {
	backend    Backend
	passphrase string
	scrypt     keystore.ScryptParams
	log        *zap.Logger
}

type Option func(*Preferences)

// WithPassphrase seals the wallet's private key and mnemonic before they are written.
func WithPassphrase(passphrase string, params keystore.ScryptParams) Option {
	return func(p *Preferences) {
		p.passphrase = passphrase
		p.scrypt = params
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Preferences) {
		if l != nil {
			p.log = l
		}
	}
}

func NewPreferences(backend Backend, opts ...Option) *Preferences {
	p := &Preferences{
		backend: backend,
		scrypt:  keystore.StandardScrypt,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Preferences) Backend() Backend {
	return p.backend
}

func (p *Preferences) SelectedNetwork(ctx context.Context) (string, error) {
	v, _, err := p.backend.Get(ctx, KeySelectedNetwork)
	return v, err
}

func (p *Preferences) SetSelectedNetwork(ctx context.Context, name string) error {
	return p.backend.Set(ctx, KeySelectedNetwork, name)
}

func (p *Preferences) Token(ctx context.Context) (string, error) {
	v, _, err := p.backend.Get(ctx, KeyUserToken)
	return v, err
}

func (p *Preferences) SetToken(ctx context.Context, token string) error {
	return p.backend.Set(ctx, KeyUserToken, token)
}

func (p *Preferences) TwoFactorEnabled(ctx context.Context) (bool, error) {
	v, ok, err := p.backend.Get(ctx, KeyTwoFactor)
	if err != nil || !ok {
		return false, err
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		p.log.Warn("ignoring malformed 2FA flag", zap.String("value", v))
		return false, nil
	}
	return enabled, nil
}

func (p *Preferences) SetTwoFactorEnabled(ctx context.Context, enabled bool) error {
	return p.backend.Set(ctx, KeyTwoFactor, strconv.FormatBool(enabled))
}

func (p *Preferences) Transactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := p.getJSON(ctx, KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (p *Preferences) SetTransactions(ctx context.Context, txs []model.Transaction) error {
	return p.setJSON(ctx, KeyTransactions, txs)
}

func (p *Preferences) CustomNetworks(ctx context.Context) ([]model.CustomNetwork, error) {
	var networks []model.CustomNetwork
	if err := p.getJSON(ctx, KeyCustomNetworks, &networks); err != nil {
		return nil, err
	}
	return networks, nil
}

func (p *Preferences) SetCustomNetworks(ctx context.Context, networks []model.CustomNetwork) error {
	return p.setJSON(ctx, KeyCustomNetworks, networks)
}

// storedWallet 是 walletData 的持久化格式; Sealed 非空时敏感字段在其中
type storedWallet struct {
	model.Wallet
	Sealed *keystore.EncryptedKeyJSON `json:"sealed,omitempty"`
}

type walletSecrets struct {
	Mnemonic   model.Secret `json:"mnemonic"`
	PrivateKey model.Secret `json:"privateKey"`
}

// Wallet returns the stored wallet snapshot, or nil when none is stored.
func (p *Preferences) Wallet(ctx context.Context) (*model.Wallet, error) {
	var sw storedWallet
	v, ok, err := p.backend.Get(ctx, KeyWalletData)
	if err != nil || !ok || v == "" {
		return nil, err
	}
	if err := json.Unmarshal([]byte(v), &sw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyWalletData, err)
	}
	w := sw.Wallet
	if sw.Sealed == nil {
		return &w, nil
	}

	if p.passphrase == "" {
		return nil, ErrLocked
	}
	plain, err := keystore.Open(sw.Sealed, p.passphrase)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, ErrLocked
		}
		return nil, err
	}
	var secrets walletSecrets
	if err := json.Unmarshal(plain, &secrets); err != nil {
		return nil, fmt.Errorf("decode sealed wallet: %w", err)
	}
	w.Mnemonic = secrets.Mnemonic
	w.PrivateKey = secrets.PrivateKey
	return &w, nil
}

// SetWallet stores w. With a passphrase configured the secrets are sealed;
// without one they are written as-is.
func (p *Preferences) SetWallet(ctx context.Context, w model.Wallet) error {
	sw := storedWallet{Wallet: w}
	if p.passphrase != "" && (!w.Mnemonic.IsZero() || !w.PrivateKey.IsZero()) {
		plain, err := json.Marshal(walletSecrets{Mnemonic: w.Mnemonic, PrivateKey: w.PrivateKey})
		if err != nil {
			return err
		}
		sealed, err := keystore.Seal(plain, p.passphrase, p.scrypt)
		if err != nil {
			return fmt.Errorf("seal wallet: %w", err)
		}
		sw.Sealed = sealed
		sw.Mnemonic = ""
		sw.PrivateKey = ""
	}
	p.log.Debug("persisting wallet", zap.Any("wallet", w), zap.Bool("sealed", sw.Sealed != nil))
	return p.setJSON(ctx, KeyWalletData, sw)
}

// Clear removes every managed key in one Delete call.
func (p *Preferences) Clear(ctx context.Context) error {
	return p.backend.Delete(ctx, ManagedKeys...)
}

// ClearAccount removes the AccountKeys in one Delete call.
func (p *Preferences) ClearAccount(ctx context.Context) error {
	return p.backend.Delete(ctx, AccountKeys...)
}

func (p *Preferences) getJSON(ctx context.Context, key string, out any) error {
	v, ok, err := p.backend.Get(ctx, key)
	if err != nil || !ok || v == "" {
		return err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (p *Preferences) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.backend.Set(ctx, key, string(raw))
}
