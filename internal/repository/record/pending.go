package record

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sakif/loyalty-club/internal/model"
	"github.com/sakif/loyalty-club/internal/repository"
	"github.com/sakif/loyalty-club/internal/store"
)

var _ repository.PendingRepository = (*PendingRepo)(nil)

// PendingRepo stores pending actions in the sequence-keyed pending table.
// Entries are append-only; Clear is the only way anything leaves the log.
type PendingRepo struct {
	store *store.Store
}

// Append stores the action and fills in action.Seq with the sequence the
// store assigned. A failed append surfaces as a store transaction error,
// which the service treats as a failure of the whole mutation.
func (r *PendingRepo) Append(ctx context.Context, action *model.PendingAction) error {
	doc, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("record: encoding pending action: %w", err)
	}

	seq, err := r.store.Append(ctx, doc)
	if err != nil {
		return err
	}
	action.Seq = seq
	return nil
}

// List returns every logged action in append order.
func (r *PendingRepo) List(ctx context.Context) ([]model.PendingAction, error) {
	seqs, docs, err := r.store.AppendList(ctx)
	if err != nil {
		return nil, err
	}

	actions := make([]model.PendingAction, 0, len(docs))
	for i, doc := range docs {
		var a model.PendingAction
		if err := json.Unmarshal(doc, &a); err != nil {
			return nil, fmt.Errorf("record: decoding pending action %d: %w", seqs[i], err)
		}
		a.Seq = seqs[i]
		actions = append(actions, a)
	}
	return actions, nil
}

func (r *PendingRepo) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func (r *PendingRepo) Clear(ctx context.Context) error {
	return r.store.Clear(ctx)
}
