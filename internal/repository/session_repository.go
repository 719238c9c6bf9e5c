package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/oms-suite/oms-gateway/internal/models"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

const sessionKeyPrefix = "sess:"

// SessionRepository stores per-login sessions in Redis. Each session holds
// the upstream sheet-backend credentials sealed with ChaCha20-Poly1305, so
// admin mutations can be re-authenticated upstream without the browser ever
// holding the password (the original frontend kept it in localStorage).
type SessionRepository struct {
	client *redis.Client
	key    []byte
}

// NewSessionRepository derives a sealing key from the configured secret.
func NewSessionRepository(client *redis.Client, sealKey string) (*SessionRepository, error) {
	if sealKey == "" {
		return nil, fmt.Errorf("session seal key missing")
	}
	derived := sha256.Sum256([]byte(sealKey))
	return &SessionRepository{client: client, key: derived[:]}, nil
}

// Save seals the credentials and stores them under the session ID.
func (r *SessionRepository) Save(ctx context.Context, sessionID string, creds models.UpstreamCredentials, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("session store unavailable")
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal session credentials: %w", err)
	}

	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return fmt.Errorf("init session cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate session nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, []byte(sessionID))
	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, sealed, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", sessionID, err)
	}
	return nil
}

// Load opens the sealed credentials for the session, or reports an expired
// session when the key is gone.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (models.UpstreamCredentials, error) {
	var creds models.UpstreamCredentials
	if r.client == nil {
		return creds, appErrors.ErrSessionExpired
	}

	sealed, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return creds, appErrors.ErrSessionExpired
		}
		return creds, fmt.Errorf("redis get session %s: %w", sessionID, err)
	}

	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return creds, fmt.Errorf("init session cipher: %w", err)
	}

	if len(sealed) < chacha20poly1305.NonceSizeX {
		return creds, appErrors.ErrSessionExpired
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(sessionID))
	if err != nil {
		return creds, appErrors.Clone(appErrors.ErrSessionExpired, "session credentials unreadable")
	}

	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return creds, fmt.Errorf("unmarshal session credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the session, revoking its credentials.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", sessionID, err)
	}
	return nil
}
