package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/loyalty-club/internal/apperror"
	"github.com/sakif/loyalty-club/internal/repository"
	"github.com/sakif/loyalty-club/internal/store"
)

var _ repository.MetaRepository = (*MetaRepo)(nil)

// lastSyncKey is the singleton key holding the last reconciliation time.
const lastSyncKey = "lastSync"

// MetaRepo stores small singleton values in the meta table.
type MetaRepo struct {
	store *store.Store
}

// LastSync returns the last successful reconciliation time. A store that has
// never synced returns the zero time, not an error.
func (r *MetaRepo) LastSync(ctx context.Context) (time.Time, error) {
	doc, err := r.store.Get(ctx, store.TableMeta, lastSyncKey)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}

	var at time.Time
	if err := json.Unmarshal(doc, &at); err != nil {
		return time.Time{}, fmt.Errorf("record: decoding lastSync: %w", err)
	}
	return at, nil
}

func (r *MetaRepo) SetLastSync(ctx context.Context, at time.Time) error {
	doc, err := json.Marshal(at)
	if err != nil {
		return fmt.Errorf("record: encoding lastSync: %w", err)
	}
	return r.store.Put(ctx, store.TableMeta, lastSyncKey, doc)
}
