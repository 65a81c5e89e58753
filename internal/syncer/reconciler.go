// Package syncer reconciles the local replica with the remote snapshot.
//
// The client runs fully offline; once per start it pulls two read-only JSON
// documents (the user list and the promo list) from wherever the venue hosts
// them and merges the user list into the local store. The merge is
// last-writer-wins on each record's updatedAt: the remote snapshot is the
// baseline, and a local record overrides it only when the local edit is
// strictly newer. Local-only records are always kept — they are either new
// members created offline or members the stale snapshot hasn't learned about.
//
// A failed fetch is not an error. It is the offline path: the local tables
// are left byte-for-byte untouched and the application serves local data.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/sakif/loyalty-club/internal/apperror"
	"github.com/sakif/loyalty-club/internal/model"
	"github.com/sakif/loyalty-club/internal/repository"
)

// Snapshot document names, relative to the remote base URL. These are the
// files the venue hand-publishes; the exporter writes usuarios.json back.
const (
	usersDoc  = "usuarios.json"
	promosDoc = "promociones.json"
)

// DefaultTimeout bounds the snapshot fetch. The fetch is the only operation
// in the core with unbounded latency, so it is the only one with a deadline.
const DefaultTimeout = 10 * time.Second

// Reconciler merges the remote snapshot into the local store at startup.
type Reconciler struct {
	client  *http.Client
	baseURL string
	users   repository.UserRepository
	promos  repository.PromoRepository
	meta    repository.MetaRepository
	logger  *slog.Logger
}

// New creates a Reconciler fetching from baseURL with the given timeout
// (DefaultTimeout if zero).
func New(
	baseURL string,
	timeout time.Duration,
	users repository.UserRepository,
	promos repository.PromoRepository,
	meta repository.MetaRepository,
	logger *slog.Logger,
) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Reconciler{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		users:   users,
		promos:  promos,
		meta:    meta,
		logger:  logger,
	}
}

// Run performs one reconciliation pass. It must complete before any domain
// operation is served.
//
// Returns online=true when the snapshot was fetched and merged. A fetch
// failure returns (false, nil) — offline is a mode, not an error — with the
// local tables untouched. The error return is reserved for local store
// failures, which genuinely should stop startup.
func (r *Reconciler) Run(ctx context.Context) (online bool, err error) {
	remoteUsers, remotePromos, err := r.fetchSnapshot(ctx)
	if err != nil {
		// RemoteUnavailable stops here, at the reconciliation boundary.
		r.logger.Warn("offline mode: using local data",
			slog.String("reason", err.Error()),
		)
		return false, nil
	}

	localUsers, err := r.users.GetAll(ctx)
	if err != nil {
		return false, fmt.Errorf("syncer: reading local users: %w", err)
	}

	merged := mergeUsers(remoteUsers, localUsers)

	if err := r.users.ReplaceAll(ctx, merged); err != nil {
		return false, fmt.Errorf("syncer: persisting merged users: %w", err)
	}
	// The remote is authoritative for promotions — stored verbatim.
	if err := r.promos.ReplaceAll(ctx, remotePromos); err != nil {
		return false, fmt.Errorf("syncer: persisting promos: %w", err)
	}
	if err := r.meta.SetLastSync(ctx, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("syncer: recording sync time: %w", err)
	}

	r.logger.Info("sync complete",
		slog.Int("remoteUsers", len(remoteUsers)),
		slog.Int("localUsers", len(localUsers)),
		slog.Int("mergedUsers", len(merged)),
		slog.Int("promos", len(remotePromos)),
	)
	return true, nil
}

// fetchSnapshot pulls both snapshot documents. Either one failing (transport
// error or non-2xx status) makes the whole fetch count as offline.
func (r *Reconciler) fetchSnapshot(ctx context.Context) ([]model.User, []model.Promotion, error) {
	var users []model.User
	if err := r.fetchJSON(ctx, usersDoc, &users); err != nil {
		return nil, nil, err
	}
	var promos []model.Promotion
	if err := r.fetchJSON(ctx, promosDoc, &promos); err != nil {
		return nil, nil, err
	}
	return users, promos, nil
}

func (r *Reconciler) fetchJSON(ctx context.Context, doc string, v any) error {
	url := r.baseURL + "/" + doc
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperror.RemoteUnavailable(err)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return apperror.RemoteUnavailable(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return apperror.RemoteUnavailable(fmt.Errorf("%s: status %d", doc, res.StatusCode))
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return apperror.RemoteUnavailable(fmt.Errorf("%s: decoding: %w", doc, err))
	}
	return nil
}

// mergeUsers applies the last-writer-wins merge.
//
// The remote list seeds the baseline map; each local record then either
// fills a gap (local-only id) or competes on updatedAt, where it wins only
// when strictly newer. Equal timestamps keep the baseline — including the
// both-zero case, where neither side carries a timestamp at all.
//
// The result is sorted by id so the merge is deterministic regardless of map
// iteration order.
func mergeUsers(remote, local []model.User) []model.User {
	byID := make(map[string]model.User, len(remote))
	for _, u := range remote {
		byID[u.ID] = u
	}

	for _, lu := range local {
		base, ok := byID[lu.ID]
		if !ok {
			// Local-only: a member created offline, or the snapshot is stale.
			byID[lu.ID] = lu
			continue
		}
		if lu.UpdatedAt.After(base.UpdatedAt) {
			byID[lu.ID] = lu
		}
	}

	merged := make([]model.User, 0, len(byID))
	for _, u := range byID {
		merged = append(merged, u)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}
