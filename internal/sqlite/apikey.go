package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/projmon/internal/repository"
)

const tokenPrefix = "pm_"

// APIKeyRepository maps bearer tokens to platform usernames. Only token
// hashes are stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create issues a new token for username and returns it. The token cannot be
// recovered later.
func (r *APIKeyRepository) Create(ctx context.Context, username, description string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", repository.ErrInvalidInput
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := tokenPrefix + hex.EncodeToString(buf)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, username, created_at, description)
		VALUES (?, ?, ?, ?)
	`, HashToken(token), username, time.Now().UTC(), description)
	if err != nil {
		if isUniqueViolation(err) {
			return "", repository.ErrConflict
		}
		return "", fmt.Errorf("failed to create api key: %w", err)
	}
	return token, nil
}

// ResolveUser returns the username a token was issued to
func (r *APIKeyRepository) ResolveUser(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	var username string
	err := r.db.QueryRowContext(ctx, `SELECT username FROM api_keys WHERE key_hash = ?`, hash).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && username == "") {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	// Best effort; a failed touch does not reject the request.
	_, _ = r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash)
	return username, nil
}

// HashToken returns the stored form of a token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
