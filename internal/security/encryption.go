package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/scrypt"
)

// EncryptionConfig defines the key-derivation and cipher parameters for
// credentials at rest.
type EncryptionConfig struct {
	// SCRYPT parameters
	SCryptN      int // CPU/memory cost parameter
	SCryptR      int // block size parameter
	SCryptP      int // parallelization parameter
	SCryptKeyLen int // derived key length in bytes

	// AES-GCM parameters
	NonceSize int // 96-bit nonce
	TagSize   int // 128-bit authentication tag
}

// DefaultEncryptionConfig returns the parameters every payload in the wild
// was written with: scrypt(32768, 8, 1) deriving an AES-256 key.
func DefaultEncryptionConfig() *EncryptionConfig {
	return &EncryptionConfig{
		SCryptN:      32768,
		SCryptR:      8,
		SCryptP:      1,
		SCryptKeyLen: 32,
		NonceSize:    12,
		TagSize:      16,
	}
}

// EncryptedPayload is the on-disk form of the encrypted service-account key.
type EncryptedPayload struct {
	Version    uint8  `json:"version"`
	Salt       []byte `json:"salt"`       // scrypt salt (32 bytes)
	Nonce      []byte `json:"nonce"`      // AES-GCM nonce (12 bytes)
	Ciphertext []byte `json:"ciphertext"` // encrypted credentials
	AuthTag    []byte `json:"auth_tag"`   // GCM authentication tag (16 bytes)
	Integrity  []byte `json:"integrity"`  // payload integrity hash
	Timestamp  int64  `json:"timestamp"`  // encryption time (unix seconds)
}

// payloadVersion is the only on-disk format this package reads or writes.
const payloadVersion = 1

// integrityDomain separates this package's integrity hashes from any other
// SHA-256 use of the same inputs.
const integrityDomain = "benfordlens-credentials-v1"

// SecureCredentials holds decrypted credential bytes until Clear wipes them.
type SecureCredentials struct {
	data    []byte
	cleared bool
}

// Data returns the decrypted credential bytes, or nil after Clear.
func (sc *SecureCredentials) Data() []byte {
	if sc.cleared {
		return nil
	}
	return sc.data
}

// Clear zeroes the credential bytes. Safe to call more than once.
func (sc *SecureCredentials) Clear() {
	if sc.cleared {
		return
	}
	zeroBytes(sc.data)
	sc.data = nil
	sc.cleared = true
}

// EncryptCredentials encrypts credential data with AES-256-GCM under a key
// derived from the passphrase via scrypt. Each call generates a fresh salt
// and nonce.
func EncryptCredentials(plaintext, passphrase []byte, config *EncryptionConfig) (*EncryptedPayload, error) {
	if len(plaintext) == 0 {
		return nil, errors.New("plaintext cannot be empty")
	}
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	if config == nil {
		config = DefaultEncryptionConfig()
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key(passphrase, salt, config.SCryptN, config.SCryptR, config.SCryptP, config.SCryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, config.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the authentication tag; store it separately so the
	// payload shape is explicit about both parts.
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-config.TagSize]
	authTag := sealed[len(sealed)-config.TagSize:]

	return &EncryptedPayload{
		Version:    payloadVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		AuthTag:    authTag,
		Integrity:  integrityHash(ciphertext, salt, nonce),
		Timestamp:  time.Now().Unix(),
	}, nil
}

// DecryptCredentials verifies and decrypts a payload. The integrity hash is
// checked before any key derivation so a corrupted file fails fast.
func DecryptCredentials(payload *EncryptedPayload, passphrase []byte, config *EncryptionConfig) (*SecureCredentials, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	if config == nil {
		config = DefaultEncryptionConfig()
	}

	if payload.Version != payloadVersion {
		return nil, fmt.Errorf("unsupported payload version: %d", payload.Version)
	}

	expected := integrityHash(payload.Ciphertext, payload.Salt, payload.Nonce)
	if subtle.ConstantTimeCompare(payload.Integrity, expected) != 1 {
		return nil, errors.New("payload integrity verification failed")
	}

	key, err := scrypt.Key(passphrase, payload.Salt, config.SCryptN, config.SCryptR, config.SCryptP, config.SCryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	sealed := make([]byte, 0, len(payload.Ciphertext)+len(payload.AuthTag))
	sealed = append(sealed, payload.Ciphertext...)
	sealed = append(sealed, payload.AuthTag...)

	plaintext, err := gcm.Open(nil, payload.Nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return &SecureCredentials{data: plaintext}, nil
}

// ValidateEncryptionConfig rejects parameter sets weaker than the defaults.
func ValidateEncryptionConfig(config *EncryptionConfig) error {
	if config == nil {
		return errors.New("encryption config cannot be nil")
	}
	if config.SCryptN < 32768 {
		return errors.New("SCryptN must be at least 32768")
	}
	if config.SCryptR < 8 {
		return errors.New("SCryptR must be at least 8")
	}
	if config.SCryptP < 1 {
		return errors.New("SCryptP must be at least 1")
	}
	if config.SCryptKeyLen != 32 {
		return errors.New("SCryptKeyLen must be 32 for AES-256")
	}
	if config.NonceSize != 12 {
		return errors.New("NonceSize must be 12 for AES-GCM")
	}
	if config.TagSize != 16 {
		return errors.New("TagSize must be 16 for AES-GCM")
	}
	return nil
}

// integrityHash binds ciphertext, salt, and nonce together so a payload
// assembled from mixed files is rejected before decryption.
func integrityHash(ciphertext, salt, nonce []byte) []byte {
	h := sha256.New()
	h.Write([]byte(integrityDomain))
	h.Write(ciphertext)
	h.Write(salt)
	h.Write(nonce)
	return h.Sum(nil)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
