// Package crypto provides encrypted at-rest storage for API credentials.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// saltLen is the random salt length in bytes.
	saltLen = 16
	// aesKeyLen is the derived AES-256 key length.
	aesKeyLen = 32
	// kdfName identifies the derivation scheme in the envelope.
	kdfName = "pbkdf2-sha256-480000"
)

// keyfileJSON is the on-disk format for an encrypted credential.
type keyfileJSON struct {
	KDF        string `json:"kdf"`
	Salt       string `json:"salt"`       // base64 standard encoding
	Nonce      string `json:"nonce"`      // base64 standard encoding
	Ciphertext string `json:"ciphertext"` // base64 standard encoding
}

// Seal encrypts key with a passphrase using PBKDF2-HMAC-SHA256 key
// derivation and AES-256-GCM authenticated encryption, and writes the
// JSON envelope to path with owner-only permissions.
func Seal(path, key, passphrase string) error {
	if passphrase == "" {
		return errors.New("crypto: passphrase must not be empty")
	}
	if key == "" {
		return errors.New("crypto: key must not be empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("crypto: generating salt: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return fmt.Errorf("crypto: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("crypto: creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("crypto: generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(key), nil)

	envelope, err := json.MarshalIndent(keyfileJSON{
		KDF:        kdfName,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("crypto: encoding envelope: %w", err)
	}

	if err := os.WriteFile(path, envelope, 0o600); err != nil {
		return fmt.Errorf("crypto: writing key file: %w", err)
	}
	return nil
}

// Open reads the JSON envelope at path and decrypts the credential with
// the passphrase.
func Open(path, passphrase string) (string, error) {
	if passphrase == "" {
		return "", errors.New("crypto: passphrase must not be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("crypto: reading key file: %w", err)
	}

	var stored keyfileJSON
	if err := json.Unmarshal(data, &stored); err != nil {
		return "", fmt.Errorf("crypto: parsing key file: %w", err)
	}
	if stored.KDF != kdfName {
		return "", fmt.Errorf("crypto: unsupported kdf %q", stored.KDF)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return "", fmt.Errorf("crypto: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return "", fmt.Errorf("crypto: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("crypto: decoding ciphertext: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return "", fmt.Errorf("crypto: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("crypto: creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: decryption failed (wrong passphrase?): %w", err)
	}

	return string(plaintext), nil
}

// KeyConfig carries the information LoadKey needs to resolve a credential.
// Populate the fields from environment variables or a config file.
type KeyConfig struct {
	// RawKey is the plain credential. If non-empty, LoadKey returns it
	// directly.
	RawKey string

	// KeyfilePath is the path to a JSON envelope produced by Seal.
	KeyfilePath string

	// Passphrase decrypts the file at KeyfilePath.
	Passphrase string
}

// LoadKey resolves a credential from the provided configuration.
//
// Resolution order:
//  1. If RawKey is set, return it.
//  2. If KeyfilePath is set, read the file and decrypt with Passphrase.
//  3. Otherwise, return an error.
func LoadKey(cfg KeyConfig) (string, error) {
	if cfg.RawKey != "" {
		return cfg.RawKey, nil
	}
	if cfg.KeyfilePath != "" {
		return Open(cfg.KeyfilePath, cfg.Passphrase)
	}
	return "", errors.New("crypto: no key source configured (set RawKey or KeyfilePath)")
}
