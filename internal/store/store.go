package store

import (
	"context"
	"fmt"
	"time"

	"wallet-client/pkg/config"
)

// Backend is a string key/value store that survives restarts (except the
// memory one). Delete removes all keys in a single operation.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// 本地持久化的 key, 与移动端保持一致
const (
	KeySelectedNetwork = "selectedNetwork"
	KeyUserToken       = "userToken"
	KeyWalletData      = "walletData"
	KeyTwoFactor       = "isEnabled2FA"
	KeyTransactions    = "transactions"
	KeyCustomNetworks  = "customNetworks"
)

// ManagedKeys lists every key Preferences writes. Logout removes all of them.
var ManagedKeys = []string{
	KeySelectedNetwork,
	KeyUserToken,
	KeyWalletData,
	KeyTwoFactor,
	KeyTransactions,
	KeyCustomNetworks,
}

// AccountKeys are the managed keys that belong to the signed in account.
// Switching accounts removes them; the selected network stays.
var AccountKeys = []string{
	KeyUserToken,
	KeyWalletData,
	KeyTwoFactor,
	KeyTransactions,
	KeyCustomNetworks,
}

// Open builds the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Store.Driver {
	case "", "file":
		return NewFileBackend(cfg.Store.Path), nil
	case "memory":
		return NewMemoryBackend(), nil
	case "redis":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return NewRedisBackend(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
