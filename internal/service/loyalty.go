// Package service contains the business logic of the loyalty core.
//
// LoyaltyService is the only mutation entry point: every write goes
// record-store → pending-log in that order, under one mutex, so a
// read-modify-write like AddVisit can never interleave with another operation
// touching the same record. Handlers above it translate HTTP; repositories
// below it translate storage. The service knows about neither.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/loyalty-club/internal/apperror"
	"github.com/sakif/loyalty-club/internal/auth"
	"github.com/sakif/loyalty-club/internal/model"
	"github.com/sakif/loyalty-club/internal/repository"
)

// MaxNameLength bounds the member name field.
const MaxNameLength = 100

// DefaultPassword is hashed into new accounts created without an explicit
// password. Members are told to change it on first login.
const DefaultPassword = "1234"

// LoyaltyService handles visits, redemptions, and member management.
//
// The mutex serializes all mutations. A single venue produces one scan every
// few seconds at most, so a coarse lock costs nothing and buys the guarantee
// that a record is persisted together with its pending-log entry before the
// next operation sees either.
type LoyaltyService struct {
	mu        sync.Mutex
	users     repository.UserRepository
	promos    repository.PromoRepository
	pending   repository.PendingRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewLoyaltyService creates a LoyaltyService. All dependencies are injected;
// tests pass repositories over an in-memory store and a cheap password cost.
func NewLoyaltyService(
	users repository.UserRepository,
	promos repository.PromoRepository,
	pending repository.PendingRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *LoyaltyService {
	return &LoyaltyService{
		users:     users,
		promos:    promos,
		pending:   pending,
		passwords: passwords,
		logger:    logger,
	}
}

// CreateUserInput carries the fields staff can set when creating a member.
type CreateUserInput struct {
	Name     string
	Phone    string
	Visits   int
	Password string // empty → DefaultPassword
}

// UpdateUserInput carries the fields staff can change on an existing member.
// An empty Password leaves the stored hash untouched — a credential is never
// overwritten with emptiness.
type UpdateUserInput struct {
	Name     string
	Phone    string
	Visits   int
	Password string
}

// AddVisit increments a member's visit count by one and logs the mutation.
//
// The returned record is the persisted state; if the pending-log append
// fails, the whole operation is reported as failed even though the visit
// count was written, because an unlogged mutation would be invisible to the
// exporter and silently lost on the next reconciliation.
func (s *LoyaltyService) AddVisit(ctx context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Visits++
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Put(ctx, user); err != nil {
		return nil, fmt.Errorf("adding visit: %w", err)
	}
	if err := s.logAction(ctx, model.ActionAddVisit, user.ID, ""); err != nil {
		return nil, err
	}

	s.logger.Info("visit added",
		slog.String("userId", user.ID),
		slog.Int("visits", user.Visits),
	)
	return user, nil
}

// RedeemPromo exchanges visits for a promotion.
//
// The precondition (enough visits) is checked before anything is written, so
// the count can never go negative and a failed redemption leaves the member
// untouched.
func (s *LoyaltyService) RedeemPromo(ctx context.Context, userID, promoID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	promo, err := s.promos.GetByID(ctx, promoID)
	if err != nil {
		return nil, err
	}

	if user.Visits < promo.VisitsRequired {
		return nil, apperror.InsufficientBalance(user.Visits, promo.VisitsRequired)
	}

	now := time.Now().UTC()
	user.Visits -= promo.VisitsRequired
	user.LastRedemption = &model.Redemption{PromoID: promo.ID, Date: now}
	user.UpdatedAt = now

	if err := s.users.Put(ctx, user); err != nil {
		return nil, fmt.Errorf("redeeming promo: %w", err)
	}
	if err := s.logAction(ctx, model.ActionRedeemPromo, user.ID, promo.ID); err != nil {
		return nil, err
	}

	s.logger.Info("promo redeemed",
		slog.String("userId", user.ID),
		slog.String("promoId", promo.ID),
		slog.Int("visitsLeft", user.Visits),
	)
	return user, nil
}

// CreateUser registers a new member with a generated id.
func (s *LoyaltyService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if err := validateFields(in.Name, in.Visits); err != nil {
		return nil, err
	}

	password := in.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	user := &model.User{
		ID:           xid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Visits:       in.Visits,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Put(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if err := s.logAction(ctx, model.ActionCreateUser, user.ID, ""); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		slog.String("userId", user.ID),
		slog.String("name", user.Name),
	)
	return user, nil
}

// UpdateUser edits an existing member's fields.
func (s *LoyaltyService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	if err := validateFields(in.Name, in.Visits); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(in.Name)
	user.Phone = strings.TrimSpace(in.Phone)
	user.Visits = in.Visits
	if in.Password != "" {
		hash, err := s.passwords.Hash(in.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Put(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if err := s.logAction(ctx, model.ActionUpdateUser, user.ID, ""); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.String("userId", user.ID))
	return user, nil
}

// GetUser returns a member by id.
func (s *LoyaltyService) GetUser(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user id is required")
	}
	return s.users.GetByID(ctx, id)
}

// FindUser looks up a member by id or phone number. The member login screen
// accepts either, so a miss on the primary key falls back to a scan. Returns
// (nil, nil) when nothing matches — an unknown identifier is an answer, not
// an error.
func (s *LoyaltyService) FindUser(ctx context.Context, identifier string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperror.ValidationFailed("identifier", "id or phone is required")
	}
	return s.users.FindByIDOrPhone(ctx, identifier)
}

// ListUsers returns every member, ordered by id.
func (s *LoyaltyService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.GetAll(ctx)
}

// ListPromos returns the current promotion catalogue.
func (s *LoyaltyService) ListPromos(ctx context.Context) ([]model.Promotion, error) {
	return s.promos.GetAll(ctx)
}

// PendingCount reports how many local mutations await external sync.
func (s *LoyaltyService) PendingCount(ctx context.Context) (int, error) {
	return s.pending.Count(ctx)
}

// PendingActions returns the full unsynced-mutation log in append order.
func (s *LoyaltyService) PendingActions(ctx context.Context) ([]model.PendingAction, error) {
	return s.pending.List(ctx)
}

// ClearPending empties the pending log. Exposed for the external exporter to
// call once it has durably written the user table; the core never drains the
// log on its own.
func (s *LoyaltyService) ClearPending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Clear(ctx)
}

// ExportUsers serializes the full user table as pretty-printed JSON with
// 2-space indentation — the exact format of the remote usuarios.json, so the
// export can be dropped in as the next snapshot.
func (s *LoyaltyService) ExportUsers(ctx context.Context) ([]byte, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting users: %w", err)
	}

	out, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return out, nil
}

// logAction appends a pending-log entry for a mutation that was just
// persisted. Callers propagate its error as a failure of the mutation itself.
func (s *LoyaltyService) logAction(ctx context.Context, kind model.ActionKind, userID, promoID string) error {
	action := &model.PendingAction{
		Kind:      kind,
		UserID:    userID,
		PromoID:   promoID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.pending.Append(ctx, action); err != nil {
		s.logger.Error("pending log append failed",
			slog.String("kind", string(kind)),
			slog.String("userId", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("logging %s: %w", kind, err)
	}
	return nil
}

func validateFields(name string, visits int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if visits < 0 {
		return apperror.ValidationFailed("visits", "visit count cannot be negative")
	}
	return nil
}
