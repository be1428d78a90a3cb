package model

import (
	"encoding/json"
	"strconv"
)

// User 当前登录会话
type User struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	Address  string `json:"address"`
}

// Wallet 服务端生成的钱包快照 (私钥和助记词由服务端托管并下发)
type Wallet struct {
	Address    string `json:"address"`
	Mnemonic   Secret `json:"mnemonic,omitempty"`
	PrivateKey Secret `json:"privateKey,omitempty"`
	Balance    string `json:"balance,omitempty"`
}

// CustomNetwork is a user supplied EVM network definition.
type CustomNetwork struct {
	NetworkName    string `json:"networkName" validate:"required"`
	CurrencyName   string `json:"currencyName"`
	CurrencySymbol string `json:"currencySymbol" validate:"required"`
	RpcUrl         string `json:"rpcUrl" validate:"required,url"`
	ChainId        string `json:"chainId" validate:"required,numeric"`
	Decimals       int    `json:"decimals"`
}

// Token 用户添加的 ERC-20 代币, Balance 为客户端最近一次查询的结果
type Token struct {
	Address  string `json:"address"`
	Network  string `json:"network"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Balance  string `json:"balance,omitempty"`
}

// UnmarshalJSON accepts both the add-token field names (tokenAddress, tokenName,
// tokenSymbol, tokenDecimal, networkName) and the short ones the list endpoint returns.
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw struct {
		Address      string          `json:"address"`
		TokenAddress string          `json:"tokenAddress"`
		Network      string          `json:"network"`
		NetworkName  string          `json:"networkName"`
		Name         string          `json:"name"`
		TokenName    string          `json:"tokenName"`
		Symbol       string          `json:"symbol"`
		TokenSymbol  string          `json:"tokenSymbol"`
		Decimals     json.RawMessage `json:"decimals"`
		TokenDecimal json.RawMessage `json:"tokenDecimal"`
		Balance      json.RawMessage `json:"balance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Token{
		Address:  firstNonEmpty(raw.Address, raw.TokenAddress),
		Network:  firstNonEmpty(raw.Network, raw.NetworkName),
		Name:     firstNonEmpty(raw.Name, raw.TokenName),
		Symbol:   firstNonEmpty(raw.Symbol, raw.TokenSymbol),
		Decimals: flexInt(raw.Decimals, raw.TokenDecimal),
		Balance:  FlexString(raw.Balance),
	}
	return nil
}

// Transaction 交易记录
type Transaction struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Amount      string `json:"amount"`
	Hash        string `json:"hash"`
	Network     string `json:"network"`
}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		FromAddress string          `json:"fromAddress"`
		ToAddress   string          `json:"toAddress"`
		Amount      json.RawMessage `json:"amount"`
		Hash        string          `json:"hash"`
		Network     string          `json:"network"`
		NetworkName string          `json:"networkName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*tx = Transaction{
		FromAddress: raw.FromAddress,
		ToAddress:   raw.ToAddress,
		Amount:      FlexString(raw.Amount),
		Hash:        raw.Hash,
		Network:     firstNonEmpty(raw.Network, raw.NetworkName),
	}
	return nil
}

// FeeEstimate 手续费估算, 除 gasPrice 外的字段原样保留
type FeeEstimate struct {
	GasPrice string                     `json:"gasPrice"`
	Extra    map[string]json.RawMessage `json:"-"`
}

func (f *FeeEstimate) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	f.GasPrice = FlexString(fields["gasPrice"])
	delete(fields, "gasPrice")
	delete(fields, "success")
	f.Extra = fields
	return nil
}

func (f FeeEstimate) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(f.Extra)+1)
	for k, v := range f.Extra {
		out[k] = v
	}
	gp, err := json.Marshal(f.GasPrice)
	if err != nil {
		return nil, err
	}
	out["gasPrice"] = gp
	return json.Marshal(out)
}

// TwoFactorSetup is returned by enable-2fa. It is shown once and never persisted.
type TwoFactorSetup struct {
	QRCodeImageURL string `json:"qrCodeImageUrl"`
	Secret         Secret `json:"secret"`
}

// FlexString 把 JSON 字符串或数字统一转成字符串, null/缺省返回空串
func FlexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

func flexInt(candidates ...json.RawMessage) int {
	for _, raw := range candidates {
		s := FlexString(raw)
		if s == "" {
			continue
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
