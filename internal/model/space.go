package model

import "time"

// Space represents a rentable coworking space as stored in the
// `spaces` table.  A space is listed by exactly one owner and can
// be booked by customers for a time window.
//
// Fields:
//  ID              – primary key identifier.
//  OwnerID         – user who listed the space.
//  Name            – display name of the space.
//  Description     – free-form description shown on browse pages.
//  Address         – street address of the space.
//  Capacity        – number of people the space accommodates.
//  HourlyRateCents – rental price per hour in cents.
//  IsActive        – whether the space is visible to customers.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Space struct {
    ID              uint64    // spaces.id
    OwnerID         uint64    // spaces.owner_id
    Name            string    // spaces.name
    Description     string    // spaces.description
    Address         string    // spaces.address
    Capacity        uint32    // spaces.capacity
    HourlyRateCents uint32    // spaces.hourly_rate_cents
    IsActive        bool      // spaces.is_active
    CreatedAt       time.Time // spaces.created_at
    UpdatedAt       time.Time // spaces.updated_at
}

// GatewayIntegration holds the per-space credentials for the payment
// gateway, stored in the `gateway_integrations` table.  A space with a
// row here (and Integrated=true) can accept online payments.  The three
// credential fields are always written and cleared together; a partially
// nulled record would leave the space claiming integration while holding
// unusable credentials.
//
// Fields:
//  SpaceID      – space the credentials belong to (primary key).
//  AccessToken  – gateway OAuth access token (empty when disconnected).
//  RefreshToken – gateway OAuth refresh token (empty when disconnected).
//  TokenExpiry  – when the access token expires (null when disconnected).
//  Integrated   – whether the space currently has a live integration.
//  UpdatedAt    – last update timestamp.
type GatewayIntegration struct {
    SpaceID      uint64     // gateway_integrations.space_id
    AccessToken  string     // gateway_integrations.access_token
    RefreshToken string     // gateway_integrations.refresh_token
    TokenExpiry  *time.Time // gateway_integrations.token_expiry (nullable)
    Integrated   bool       // gateway_integrations.integrated
    UpdatedAt    time.Time  // gateway_integrations.updated_at
}
