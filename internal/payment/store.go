package payment

import (
	"context"
	"errors"

	"github.com/iliyamo/coworking-space-rental/internal/model"
	"github.com/iliyamo/coworking-space-rental/internal/repository"
)

// SQLStore adapts the repository layer to the coordinator's Store and
// CredentialStore interfaces, translating repository sentinels into the
// coordinator's error vocabulary so callers only ever see payment
// package errors.
type SQLStore struct {
	Payments     *repository.PaymentRepo
	Reservations *repository.ReservationRepo
	Gateways     *repository.GatewayRepo
}

// NewSQLStore wires the three repositories the coordinator mutates.
func NewSQLStore(p *repository.PaymentRepo, r *repository.ReservationRepo, g *repository.GatewayRepo) *SQLStore {
	if p == nil || r == nil || g == nil {
		panic("nil repository passed to NewSQLStore")
	}
	return &SQLStore{Payments: p, Reservations: r, Gateways: g}
}

func (s *SQLStore) LatestPayment(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	p, err := s.Payments.LatestByReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) PaymentByExternalID(ctx context.Context, externalTxID string) (*model.Payment, error) {
	p, err := s.Payments.ByExternalTxID(ctx, externalTxID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) TransitionPayment(ctx context.Context, paymentID uint64, from, to string, raw []byte) (bool, error) {
	return s.Payments.TransitionStatus(ctx, paymentID, from, to, raw)
}

func (s *SQLStore) TransitionReservation(ctx context.Context, reservationID uint64, from, to string) (bool, error) {
	return s.Reservations.TransitionStatus(ctx, reservationID, from, to)
}

func (s *SQLStore) ReservationUser(ctx context.Context, reservationID uint64) (uint64, error) {
	res, err := s.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return res.UserID, nil
}

func (s *SQLStore) Credentials(ctx context.Context, spaceID uint64) (*model.GatewayIntegration, error) {
	gi, err := s.Gateways.Get(ctx, spaceID)
	if err != nil {
		if errors.Is(err, repository.ErrIntegrationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return gi, nil
}

func (s *SQLStore) ClearCredentials(ctx context.Context, spaceID uint64) error {
	return s.Gateways.Clear(ctx, spaceID)
}
