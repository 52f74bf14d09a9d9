// This file defines the repository for per-space payment gateway
// credentials. The invariant protected here is atomicity: the three
// credential fields and the integrated flag are always written and
// cleared in a single UPDATE so the record can never be half-nulled.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/coworking-space-rental/internal/model"
)

// ErrIntegrationNotFound is returned when a space has no gateway
// integration record.
var ErrIntegrationNotFound = errors.New("gateway integration not found")

// GatewayRepo persists OAuth credentials obtained through the gateway
// connect flow.
type GatewayRepo struct {
	db *sql.DB
}

// NewGatewayRepo returns a new GatewayRepo bound to the given database.
func NewGatewayRepo(db *sql.DB) *GatewayRepo { return &GatewayRepo{db: db} }

// Get returns the integration record for a space, or
// ErrIntegrationNotFound when the space has never connected.
func (r *GatewayRepo) Get(ctx context.Context, spaceID uint64) (*model.GatewayIntegration, error) {
	const q = `SELECT space_id, access_token, refresh_token, token_expiry, integrated, updated_at
	           FROM gateway_integrations WHERE space_id = ?`
	var gi model.GatewayIntegration
	var expiry sql.NullTime
	err := r.db.QueryRowContext(ctx, q, spaceID).Scan(
		&gi.SpaceID, &gi.AccessToken, &gi.RefreshToken, &expiry, &gi.Integrated, &gi.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIntegrationNotFound
		}
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		gi.TokenExpiry = &t
	}
	return &gi, nil
}

// Store upserts the credentials for a space after a successful OAuth
// code exchange. All fields are written together.
func (r *GatewayRepo) Store(ctx context.Context, spaceID uint64, accessToken, refreshToken string, expiry time.Time) error {
	const q = `INSERT INTO gateway_integrations (space_id, access_token, refresh_token, token_expiry, integrated)
	           VALUES (?, ?, ?, ?, 1)
	           ON DUPLICATE KEY UPDATE
	             access_token = VALUES(access_token),
	             refresh_token = VALUES(refresh_token),
	             token_expiry = VALUES(token_expiry),
	             integrated = 1,
	             updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, q, spaceID, accessToken, refreshToken, expiry.UTC())
	return err
}

// Clear nulls every credential field and drops the integrated flag in a
// single statement. The one-statement shape is the atomicity guarantee:
// a space is never left claiming integration while holding cleared or
// stale tokens. Clearing an already-clean record is a no-op success so
// disconnect stays idempotent.
func (r *GatewayRepo) Clear(ctx context.Context, spaceID uint64) error {
	const q = `UPDATE gateway_integrations
	           SET access_token = '', refresh_token = '', token_expiry = NULL, integrated = 0,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE space_id = ?`
	_, err := r.db.ExecContext(ctx, q, spaceID)
	return err
}
