package model

import "time"

// Plan is a subscription plan managed by administrators and stored in
// the `plans` table.  Customers subscribed to a plan may reference it
// when creating reservations.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique plan name.
//  Description – free-form description.
//  PriceCents  – recurring price in cents.
//  PeriodDays  – length of one billing period in days.
//  IsActive    – whether the plan can be subscribed to.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Plan struct {
    ID          uint64    // plans.id
    Name        string    // plans.name
    Description string    // plans.description
    PriceCents  uint32    // plans.price_cents
    PeriodDays  uint32    // plans.period_days
    IsActive    bool      // plans.is_active
    CreatedAt   time.Time // plans.created_at
    UpdatedAt   time.Time // plans.updated_at
}

// Subscription status values.
const (
    SubscriptionActive    = "ACTIVE"
    SubscriptionCancelled = "CANCELLED"
    SubscriptionExpired   = "EXPIRED"
)

// Subscription links a user to a plan for a period, stored in the
// `subscriptions` table.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – subscribing user.
//  PlanID    – plan subscribed to.
//  Status    – ACTIVE, CANCELLED or EXPIRED.
//  StartedAt – beginning of the current period.
//  ExpiresAt – end of the current period.
//  CreatedAt – creation timestamp.
type Subscription struct {
    ID        uint64    // subscriptions.id
    UserID    uint64    // subscriptions.user_id
    PlanID    uint64    // subscriptions.plan_id
    Status    string    // subscriptions.status
    StartedAt time.Time // subscriptions.started_at
    ExpiresAt time.Time // subscriptions.expires_at
    CreatedAt time.Time // subscriptions.created_at
}
