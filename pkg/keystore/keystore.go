package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

// EncryptedKeyJSON 遵循 Ethereum Keystore V3 的结构风格，
// 这里存放的是本地缓存的钱包敏感字段 (私钥、助记词) 的 JSON 明文
type EncryptedKeyJSON struct {
	Crypto  CryptoJSON `json:"crypto"`
	Id      string     `json:"id"`
	Version int        `json:"version"`
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type CipherParams struct {
	IV string `json:"iv"`
}

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

// ScryptParams are the cost parameters used when sealing.
type ScryptParams struct {
	N int
	R int
	P int
}

var (
	// StandardScrypt matches the geth keystore defaults.
	StandardScrypt = ScryptParams{N: 262144, R: 8, P: 1}
	// LightScrypt is cheap enough for tests and low-end devices.
	LightScrypt = ScryptParams{N: 4096, R: 8, P: 6}
)

const scryptDKLen = 32

var ErrDecrypt = errors.New("invalid passphrase or corrupted data (MAC mismatch)")

// Seal encrypts plaintext with a key derived from passphrase.
func Seal(plaintext []byte, passphrase string, params ScryptParams) (*EncryptedKeyJSON, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	derivedKey, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, scryptDKLen)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedKeyJSON{
		Version: 3,
		Id:      uuid.NewString(),
		Crypto: CryptoJSON{
			Cipher:     "aes-256-gcm",
			CipherText: hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{
				IV: hex.EncodeToString(nonce),
			},
			KDF: "scrypt",
			KDFParams: KDFParams{
				DKLen: scryptDKLen,
				N:     params.N,
				R:     params.R,
				P:     params.P,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(computeMAC(derivedKey, ciphertext)),
		},
	}, nil
}

// Open reverses Seal.
func Open(keyJSON *EncryptedKeyJSON, passphrase string) ([]byte, error) {
	if keyJSON == nil {
		return nil, errors.New("keystore: nil key")
	}
	salt, err := hex.DecodeString(keyJSON.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}
	nonce, err := hex.DecodeString(keyJSON.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("invalid iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(keyJSON.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(keyJSON.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("invalid mac: %w", err)
	}

	p := keyJSON.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, err
	}

	if !hmac.Equal(mac, computeMAC(derivedKey, ciphertext)) {
		return nil, ErrDecrypt
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid iv length %d", len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

// SHA256(derivedKey + ciphertext)
func computeMAC(derivedKey, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(derivedKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}
