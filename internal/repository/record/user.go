package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/loyalty-club/internal/apperror"
	"github.com/sakif/loyalty-club/internal/model"
	"github.com/sakif/loyalty-club/internal/repository"
	"github.com/sakif/loyalty-club/internal/store"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo stores users as JSON documents keyed by user id.
type UserRepo struct {
	store *store.Store
}

// GetByID returns the user stored under id.
// Passes through apperror.ErrNotFound from the store when absent.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	doc, err := r.store.Get(ctx, store.TableUsers, id)
	if err != nil {
		return nil, err
	}

	var u model.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("record: decoding user %s: %w", id, err)
	}
	return &u, nil
}

// GetAll returns every stored user, ordered by id.
func (r *UserRepo) GetAll(ctx context.Context) ([]model.User, error) {
	docs, err := r.store.GetAll(ctx, store.TableUsers)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		var u model.User
		if err := json.Unmarshal(doc, &u); err != nil {
			return nil, fmt.Errorf("record: decoding user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Put upserts one user under its id.
func (r *UserRepo) Put(ctx context.Context, user *model.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("record: encoding user %s: %w", user.ID, err)
	}
	return r.store.Put(ctx, store.TableUsers, user.ID, doc)
}

// ReplaceAll swaps the whole users table for the given set in one transaction.
// The reconciler uses this to persist a merged user map.
func (r *UserRepo) ReplaceAll(ctx context.Context, users []model.User) error {
	docs := make(map[string]json.RawMessage, len(users))
	for i := range users {
		doc, err := json.Marshal(&users[i])
		if err != nil {
			return fmt.Errorf("record: encoding user %s: %w", users[i].ID, err)
		}
		docs[users[i].ID] = doc
	}
	return r.store.Replace(ctx, store.TableUsers, docs)
}

// FindByIDOrPhone looks up by primary id first, then falls back to a linear
// scan matching either id or phone number. O(n) is fine at this dataset size;
// an index would only pay off if the club outgrows a single venue.
//
// Returns (nil, nil) when nothing matches.
func (r *UserRepo) FindByIDOrPhone(ctx context.Context, identifier string) (*model.User, error) {
	u, err := r.GetByID(ctx, identifier)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == identifier || users[i].Phone == identifier {
			return &users[i], nil
		}
	}
	return nil, nil
}
