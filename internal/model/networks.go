package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// DefaultNetwork is selected on first start and after logout.
const DefaultNetwork = "Ethereum"

// BalanceError is shown in place of a balance that could not be fetched.
const BalanceError = "Error"

// BalanceLoading is shown while a balance fetch is in flight.
const BalanceLoading = "Loading..."

type NetworkKind string

const (
	Mainnet NetworkKind = "mainnet"
	Testnet NetworkKind = "testnet"
)

type BuiltinNetwork struct {
	Name string
	Kind NetworkKind
}

// BuiltinNetworks 后端原生支持的网络, 顺序即展示顺序
var BuiltinNetworks = []BuiltinNetwork{
	{"Ethereum", Mainnet},
	{"Binance Smart Chain", Mainnet},
	{"Polygon", Mainnet},
	{"Avalanche", Mainnet},
	{"Optimum", Mainnet},
	{"Fantom", Mainnet},

	{"Goerli", Testnet},
	{"Sepolia", Testnet},
	{"Mumbai", Testnet},
	{"BSC-Testnet", Testnet},
	{"Fuji-Chain", Testnet},
	{"Optimism-Goerli", Testnet},
	{"Opera", Testnet},
	{"AGRO-Network", Testnet},
}

func IsBuiltinNetwork(name string) bool {
	for _, n := range BuiltinNetworks {
		if n.Name == name {
			return true
		}
	}
	return false
}

// IsKnownNetwork reports whether name is a builtin or one of custom.
func IsKnownNetwork(name string, custom []CustomNetwork) bool {
	if IsBuiltinNetwork(name) {
		return true
	}
	for _, c := range custom {
		if c.NetworkName == name {
			return true
		}
	}
	return false
}

// ChecksumAddress renders addr in EIP-55 form. Anything that is not a hex
// address is returned unchanged.
func ChecksumAddress(addr string) string {
	if !common.IsHexAddress(addr) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}

// ShortAddress 0x1234...abcd
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// FormatBalance trims a numeric balance to places decimals. Placeholders and
// non-numeric strings pass through untouched.
func FormatBalance(balance string, places int32) string {
	d, err := decimal.NewFromString(strings.TrimSpace(balance))
	if err != nil {
		return balance
	}
	return d.Truncate(places).String()
}
