package record

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sakif/loyalty-club/internal/model"
	"github.com/sakif/loyalty-club/internal/repository"
	"github.com/sakif/loyalty-club/internal/store"
)

var _ repository.PromoRepository = (*PromoRepo)(nil)

// PromoRepo stores promotions as JSON documents keyed by promo id.
// There is no single-record Put: promos only change by snapshot replace.
type PromoRepo struct {
	store *store.Store
}

func (r *PromoRepo) GetByID(ctx context.Context, id string) (*model.Promotion, error) {
	doc, err := r.store.Get(ctx, store.TablePromos, id)
	if err != nil {
		return nil, err
	}

	var p model.Promotion
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("record: decoding promo %s: %w", id, err)
	}
	return &p, nil
}

func (r *PromoRepo) GetAll(ctx context.Context) ([]model.Promotion, error) {
	docs, err := r.store.GetAll(ctx, store.TablePromos)
	if err != nil {
		return nil, err
	}

	promos := make([]model.Promotion, 0, len(docs))
	for _, doc := range docs {
		var p model.Promotion
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("record: decoding promo: %w", err)
		}
		promos = append(promos, p)
	}
	return promos, nil
}

// ReplaceAll swaps the whole promos table for the remote list. The remote is
// authoritative for promotions, so there is nothing to merge.
func (r *PromoRepo) ReplaceAll(ctx context.Context, promos []model.Promotion) error {
	docs := make(map[string]json.RawMessage, len(promos))
	for i := range promos {
		doc, err := json.Marshal(&promos[i])
		if err != nil {
			return fmt.Errorf("record: encoding promo %s: %w", promos[i].ID, err)
		}
		docs[promos[i].ID] = doc
	}
	return r.store.Replace(ctx, store.TablePromos, docs)
}
