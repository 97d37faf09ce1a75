package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// CredentialsManager guards an encrypted Google service-account key on disk.
// The plaintext exists only between a decrypt and the paired cleanup call,
// and every access is audit logged.
type CredentialsManager struct {
	path       string
	passphrase []byte
	payload    *EncryptedPayload
	logger     *slog.Logger

	mu          sync.Mutex
	closed      bool
	accessCount int64
	lastAccess  time.Time
}

// NewCredentialsManager loads the encrypted payload at path. The passphrase
// is held for later decryption; construction does not decrypt, so a wrong
// passphrase surfaces on first access rather than here.
func NewCredentialsManager(path, passphrase string, logger *slog.Logger) (*CredentialsManager, error) {
	if path == "" {
		return nil, errors.New("credentials path cannot be empty")
	}
	if passphrase == "" {
		return nil, errors.New("credentials passphrase cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	payload, err := loadPayload(path)
	if err != nil {
		return nil, err
	}

	m := &CredentialsManager{
		path:       path,
		passphrase: []byte(passphrase),
		payload:    payload,
		logger:     logger.With(slog.String("component", "credentials")),
	}
	m.audit(context.Background(), "payload_loaded", true, "")
	return m, nil
}

// loadPayload reads and parses an encrypted payload file.
func loadPayload(path string) (*EncryptedPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}
	var payload EncryptedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}
	return &payload, nil
}

// GetCredentials decrypts the service-account key. The caller owns the
// returned credentials and must Clear them when done.
func (m *CredentialsManager) GetCredentials(ctx context.Context) (*SecureCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("credentials manager is closed")
	}

	credentials, err := DecryptCredentials(m.payload, m.passphrase, DefaultEncryptionConfig())
	if err != nil {
		m.audit(ctx, "decrypt_failed", false, err.Error())
		return nil, fmt.Errorf("decrypt credentials: %w", err)
	}

	m.accessCount++
	m.lastAccess = time.Now()
	m.audit(ctx, "credentials_accessed", true, "")
	return credentials, nil
}

// NewSheetsService builds a read-only Google Sheets client from the
// decrypted key. The returned cleanup wipes the plaintext and must be
// called once the client is no longer needed.
func (m *CredentialsManager) NewSheetsService(ctx context.Context) (*sheets.Service, func(), error) {
	credentials, err := m.GetCredentials(ctx)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		credentials.Clear()
		m.audit(ctx, "credentials_cleared", true, "")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentials.Data()),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		cleanup()
		m.audit(ctx, "sheets_service_failed", false, err.Error())
		return nil, nil, fmt.Errorf("create sheets service: %w", err)
	}

	m.audit(ctx, "sheets_service_created", true, "")
	return svc, cleanup, nil
}

// Reload re-reads the payload file, useful after the key was re-encrypted
// on disk. The new payload must decrypt with the current passphrase or the
// old payload stays in place.
func (m *CredentialsManager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("credentials manager is closed")
	}

	payload, err := loadPayload(m.path)
	if err != nil {
		m.audit(context.Background(), "reload_failed", false, err.Error())
		return err
	}

	test, err := DecryptCredentials(payload, m.passphrase, DefaultEncryptionConfig())
	if err != nil {
		m.audit(context.Background(), "reload_failed", false, err.Error())
		return fmt.Errorf("new payload does not decrypt: %w", err)
	}
	test.Clear()

	m.payload = payload
	m.accessCount = 0
	m.lastAccess = time.Time{}
	m.audit(context.Background(), "credentials_reloaded", true, "")
	return nil
}

// Close wipes the passphrase and drops the payload. Accesses after Close
// fail.
func (m *CredentialsManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.audit(context.Background(), "manager_shutdown", true, "")
	zeroBytes(m.passphrase)
	m.passphrase = nil
	m.payload = nil
	m.closed = true
	return nil
}

// audit emits one credential access event. Failures log at error level so
// they stand out in the operational log stream.
func (m *CredentialsManager) audit(ctx context.Context, eventType string, success bool, errMsg string) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("event_type", eventType),
		slog.Bool("success", success),
		slog.Int64("access_count", m.accessCount),
	}
	if errMsg != "" {
		attrs = append(attrs, slog.String("error", errMsg))
	}
	m.logger.LogAttrs(ctx, level, "credential access event", attrs...)
}
