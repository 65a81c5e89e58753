// Package repository defines the data-access interfaces for the loyalty core.
//
// The service layer and the reconciler depend on these interfaces, never on
// the record store directly. Tests substitute in-memory fakes; production
// wires the implementations in repository/record, which marshal the domain
// models into the store's JSON tables.
package repository

import (
	"context"
	"time"

	"github.com/sakif/loyalty-club/internal/model"
)

// UserRepository accesses the users table.
//
// All methods return copies: records are unmarshalled fresh on every read, so
// a caller mutating a returned User never reaches persisted state.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context) ([]model.User, error)
	Put(ctx context.Context, user *model.User) error
	// ReplaceAll swaps the whole table for users in one transaction.
	ReplaceAll(ctx context.Context, users []model.User) error
	// FindByIDOrPhone tries the primary key first, then a linear scan
	// matching id or phone. No match returns (nil, nil) — absence is an
	// answer here, not an error.
	FindByIDOrPhone(ctx context.Context, identifier string) (*model.User, error)
}

// PromoRepository accesses the promos table. Promotions are read-only on this
// side; ReplaceAll exists solely for the reconciler's snapshot overwrite.
type PromoRepository interface {
	GetByID(ctx context.Context, id string) (*model.Promotion, error)
	GetAll(ctx context.Context) ([]model.Promotion, error)
	ReplaceAll(ctx context.Context, promos []model.Promotion) error
}

// PendingRepository accesses the append-only pending-action log.
type PendingRepository interface {
	// Append stores the action and fills in its store-assigned sequence.
	Append(ctx context.Context, action *model.PendingAction) error
	List(ctx context.Context) ([]model.PendingAction, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// MetaRepository accesses the singleton metadata table.
type MetaRepository interface {
	// LastSync returns the last successful reconciliation time, or the zero
	// time if no reconciliation has ever completed.
	LastSync(ctx context.Context) (time.Time, error)
	SetLastSync(ctx context.Context, at time.Time) error
}
