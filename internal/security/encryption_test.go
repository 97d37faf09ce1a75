package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testServiceAccount = []byte(`{"type":"service_account","project_id":"benford-test","private_key":"fake"}`)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	passphrase := []byte("round-trip-passphrase")

	payload, err := EncryptCredentials(testServiceAccount, passphrase, DefaultEncryptionConfig())
	require.NoError(t, err)

	assert.Equal(t, uint8(1), payload.Version)
	assert.Len(t, payload.Salt, 32)
	assert.Len(t, payload.Nonce, 12)
	assert.Len(t, payload.AuthTag, 16)
	assert.Len(t, payload.Integrity, 32)
	assert.NotEmpty(t, payload.Ciphertext)
	assert.InDelta(t, time.Now().Unix(), payload.Timestamp, 60)

	credentials, err := DecryptCredentials(payload, passphrase, DefaultEncryptionConfig())
	require.NoError(t, err)
	defer credentials.Clear()

	assert.Equal(t, testServiceAccount, credentials.Data())
}

func TestEncryptGeneratesFreshSaltAndNonce(t *testing.T) {
	passphrase := []byte("fresh-material")

	first, err := EncryptCredentials(testServiceAccount, passphrase, nil)
	require.NoError(t, err)
	second, err := EncryptCredentials(testServiceAccount, passphrase, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Nonce, second.Nonce)
	assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
}

func TestEncryptRejectsEmptyInputs(t *testing.T) {
	_, err := EncryptCredentials(nil, []byte("passphrase"), nil)
	assert.ErrorContains(t, err, "plaintext cannot be empty")

	_, err = EncryptCredentials(testServiceAccount, nil, nil)
	assert.ErrorContains(t, err, "passphrase cannot be empty")
}

func TestDecryptWrongPassphrase(t *testing.T) {
	payload, err := EncryptCredentials(testServiceAccount, []byte("correct"), nil)
	require.NoError(t, err)

	_, err = DecryptCredentials(payload, []byte("incorrect"), nil)
	assert.ErrorContains(t, err, "decryption failed")
}

func TestDecryptDetectsTampering(t *testing.T) {
	passphrase := []byte("tamper-check")
	payload, err := EncryptCredentials(testServiceAccount, passphrase, nil)
	require.NoError(t, err)

	t.Run("ciphertext flip fails integrity before key derivation", func(t *testing.T) {
		tampered := *payload
		tampered.Ciphertext = append([]byte(nil), payload.Ciphertext...)
		tampered.Ciphertext[0] ^= 0xFF

		_, err := DecryptCredentials(&tampered, passphrase, nil)
		assert.ErrorContains(t, err, "integrity verification failed")
	})

	t.Run("auth tag flip fails authenticated decryption", func(t *testing.T) {
		tampered := *payload
		tampered.AuthTag = append([]byte(nil), payload.AuthTag...)
		tampered.AuthTag[0] ^= 0xFF

		_, err := DecryptCredentials(&tampered, passphrase, nil)
		assert.ErrorContains(t, err, "decryption failed")
	})
}

func TestDecryptRejectsBadPayloads(t *testing.T) {
	_, err := DecryptCredentials(nil, []byte("passphrase"), nil)
	assert.ErrorContains(t, err, "payload cannot be nil")

	_, err = DecryptCredentials(&EncryptedPayload{Version: 2}, []byte("passphrase"), nil)
	assert.ErrorContains(t, err, "unsupported payload version: 2")

	_, err = DecryptCredentials(&EncryptedPayload{Version: 1}, nil, nil)
	assert.ErrorContains(t, err, "passphrase cannot be empty")
}

func TestValidateEncryptionConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EncryptionConfig)
		wantErr string
	}{
		{
			name:   "default config is valid",
			mutate: func(c *EncryptionConfig) {},
		},
		{
			name:    "weak scrypt cost",
			mutate:  func(c *EncryptionConfig) { c.SCryptN = 16384 },
			wantErr: "SCryptN must be at least 32768",
		},
		{
			name:    "weak block size",
			mutate:  func(c *EncryptionConfig) { c.SCryptR = 4 },
			wantErr: "SCryptR must be at least 8",
		},
		{
			name:    "zero parallelization",
			mutate:  func(c *EncryptionConfig) { c.SCryptP = 0 },
			wantErr: "SCryptP must be at least 1",
		},
		{
			name:    "wrong key length",
			mutate:  func(c *EncryptionConfig) { c.SCryptKeyLen = 16 },
			wantErr: "SCryptKeyLen must be 32",
		},
		{
			name:    "wrong nonce size",
			mutate:  func(c *EncryptionConfig) { c.NonceSize = 16 },
			wantErr: "NonceSize must be 12",
		},
		{
			name:    "wrong tag size",
			mutate:  func(c *EncryptionConfig) { c.TagSize = 12 },
			wantErr: "TagSize must be 16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultEncryptionConfig()
			tt.mutate(config)

			err := ValidateEncryptionConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}

	assert.ErrorContains(t, ValidateEncryptionConfig(nil), "cannot be nil")
}

func TestSecureCredentialsClear(t *testing.T) {
	credentials := &SecureCredentials{data: []byte("secret-key-material")}

	assert.Equal(t, []byte("secret-key-material"), credentials.Data())

	credentials.Clear()
	assert.Nil(t, credentials.Data())

	assert.NotPanics(t, func() { credentials.Clear() })
}
