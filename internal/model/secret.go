package model

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

const redacted = "******"

// Secret holds a private key, mnemonic or 2FA secret. Printing or logging it
// yields a mask; JSON encoding yields the plaintext because the backend
// expects it on the wire.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return fmt.Sprintf("model.Secret(%q)", s.String())
}

// Reveal returns the plaintext.
func (s Secret) Reveal() string {
	return string(s)
}

func (s Secret) IsZero() bool {
	return s == ""
}

// MarshalLogObject 日志中只输出地址和余额
func (w Wallet) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("address", w.Address)
	enc.AddString("balance", w.Balance)
	enc.AddBool("hasMnemonic", !w.Mnemonic.IsZero())
	enc.AddBool("hasPrivateKey", !w.PrivateKey.IsZero())
	return nil
}

func (s TwoFactorSetup) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("qrCodeImageUrl", s.QRCodeImageURL)
	enc.AddString("secret", s.Secret.String())
	return nil
}
